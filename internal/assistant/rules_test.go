package assistant

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/postop-assistant/internal/clinical"
)

func route(t *testing.T, r *Router, q Query) Answer {
	t.Helper()
	q.Text = normalize(q.Text)
	answer, ok := r.Route(context.Background(), q)
	require.True(t, ok, "expected a rule to match %q", q.Text)
	return answer
}

func TestRouter_RulePriority(t *testing.T) {
	w := seedWard(t)
	r := NewRouter(w.store, testLogger())

	tests := []struct {
		message  string
		selected bool
		want     Intent
	}{
		{"What is Priya's phone number?", false, IntentContactInfo},
		{"priya contact", false, IntentContactInfo},
		{"tell me about heart failure", false, IntentDiseaseInfo},
		{"how many patients", false, IntentPatientCount},
		{"How many cardiology patients?", false, IntentPatientCount},
		{"list all patients in cardiology", false, IntentPatientCount},
		{"complete record of priya", false, IntentFullDetails},
		{"priya sharma vitals", false, IntentNameAction},
		{"Priya age", false, IntentNameAction},
		{"cardiology patient details", false, IntentDepartmentList},
		{"oncology patients", false, IntentDepartmentList},
		{"show me patients in the surgery department", false, IntentDepartmentList},
		{"what is the blood type", true, IntentSelectedField},
		{"how old is she", true, IntentSelectedField},
		{"teach me about appendectomy", false, IntentTeach},
		{"explain knee replacement", true, IntentTeach},
		{"how old is priya", false, IntentAgeShorthand},
		{"find patient marcus", false, IntentPatientSearch},
		{"show patient elena rossi", false, IntentPatientSearch},
		{"all patient info", true, IntentSelectedAll},
		{"what is the diagnosis", true, IntentSelectedDiagnosis},
		{"his surgery", true, IntentSelectedSurgery},
		{"show vitals", true, IntentSelectedVitals},
		{"post-op notes", true, IntentSelectedVitals},
		{"medications", true, IntentSelectedMedication},
		{"recovery milestones", true, IntentSelectedMilestones},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			q := Query{Text: normalize(tt.message)}
			if tt.selected {
				q.PatientID = w.priya.ID
			}
			got, ok := r.Classify(q)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouter_NoMatchFallsThrough(t *testing.T) {
	w := seedWard(t)
	r := NewRouter(w.store, testLogger())

	for _, msg := range []string{
		"what's the weather like",
		"show vitals",
		"teach me about quantum physics",
		"how old is he",
	} {
		_, ok := r.Route(context.Background(), Query{Text: normalize(msg)})
		assert.False(t, ok, "expected %q to fall through without a selected patient", msg)
	}
}

func TestRouter_DepartmentListingNewestFirst(t *testing.T) {
	w := seedWard(t)
	r := NewRouter(w.store, testLogger())

	answer := route(t, r, Query{Text: "cardiology patient details"})
	assert.Equal(t, IntentDepartmentList, answer.Intent)

	lines := strings.Split(answer.Text, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Cardiology patients (3):", lines[0])
	assert.Equal(t, "1. Elena Rossi — Status: admitted — Admitted: 2025-03-10", lines[1])
	assert.Equal(t, "2. Marcus Lee — Status: recovering — Admitted: 2025-03-09", lines[2])
	assert.Equal(t, "3. Priya Sharma — Status: admitted — Admitted: 2025-03-08", lines[3])
}

func TestRouter_NameAge(t *testing.T) {
	w := seedWard(t)
	r := NewRouter(w.store, testLogger())

	answer := route(t, r, Query{Text: "Priya age"})
	want := fmt.Sprintf("Priya Sharma — Age: %d", time.Now().UTC().Year()-1990)
	assert.Equal(t, want, answer.Text)

	answer = route(t, r, Query{Text: "How old is Priya Sharma?"})
	assert.Equal(t, IntentAgeShorthand, answer.Intent)
	assert.Equal(t, want, answer.Text)
}

func TestRouter_TeachAppendectomy(t *testing.T) {
	w := seedWard(t)
	r := NewRouter(w.store, testLogger())

	answer := route(t, r, Query{Text: "teach me about appendectomy"})
	assert.Equal(t, IntentTeach, answer.Intent)

	info, ok := lookupSurgery("appendectomy")
	require.True(t, ok)
	for _, section := range []string{info.Purpose, info.Procedure, info.Risks, info.Precautions, info.Recovery, info.Teaching} {
		assert.Contains(t, answer.Text, section)
	}
	assert.True(t, strings.HasPrefix(answer.Text, "Appendectomy\n"))
}

func TestRouter_Disambiguation(t *testing.T) {
	w := seedWard(t)
	r := NewRouter(w.store, testLogger())

	answer := route(t, r, Query{Text: "john surgery"})
	assert.Equal(t, IntentNameAction, answer.Intent)
	assert.Contains(t, answer.Text, `Multiple patients match "john"`)
	assert.Contains(t, answer.Text, "John Carter")
	assert.Contains(t, answer.Text, "John Baker")
	assert.NotContains(t, answer.Text, "Surgeries for")
}

func TestRouter_DisambiguationIsCappedAtTen(t *testing.T) {
	s := clinical.NewMemoryStore()
	for i := 0; i < 14; i++ {
		mustPatient(t, s, clinical.NewPatient{
			FullName:   fmt.Sprintf("Sam Smith %02d", i),
			Department: clinical.DepartmentSurgery,
		})
	}
	r := NewRouter(s, testLogger())

	for _, msg := range []string{"smith vitals", "find smith", "how old is smith", "full details for smith"} {
		answer := route(t, r, Query{Text: msg})
		numbered := 0
		for _, line := range strings.Split(answer.Text, "\n") {
			if len(line) > 2 && line[0] >= '0' && line[0] <= '9' {
				numbered++
			}
		}
		assert.Equal(t, 10, numbered, msg)
	}
}

func TestRouter_NotFound(t *testing.T) {
	w := seedWard(t)
	r := NewRouter(w.store, testLogger())

	for _, msg := range []string{"zelda vitals", "find patient zelda", "how old is zelda", "full details for zelda"} {
		answer := route(t, r, Query{Text: msg})
		assert.Equal(t, `No patients found matching "zelda".`, answer.Text, msg)
	}
}

func TestRouter_ContactRequiresSignIn(t *testing.T) {
	w := seedWard(t)
	r := NewRouter(w.store, testLogger())

	answer := route(t, r, Query{Text: "priya's phone number"})
	assert.Equal(t, contactSignInRequired, answer.Text)
	assert.NotContains(t, answer.Text, "555-0101")

	answer = route(t, r, Query{Text: "priya's phone number", Caller: staff()})
	assert.Contains(t, answer.Text, "Contact information for Priya Sharma")
	assert.Contains(t, answer.Text, "Phone: 555-0101")
	assert.Contains(t, answer.Text, "Emergency contact: Raj Sharma 555-0102")

	answer = route(t, r, Query{Text: "what is the emergency contact", Caller: staff(), PatientID: w.marcus.ID})
	assert.Contains(t, answer.Text, "Contact information for Marcus Lee")
	assert.Contains(t, answer.Text, "Phone: not recorded")

	answer = route(t, r, Query{Text: "show phone number", Caller: staff()})
	assert.Equal(t, contactNoPatient, answer.Text)
}

func TestRouter_SelectedPatientLookups(t *testing.T) {
	w := seedWard(t)
	r := NewRouter(w.store, testLogger())
	sel := func(msg string) string {
		return route(t, r, Query{Text: msg, PatientID: w.priya.ID}).Text
	}

	vitals := sel("show vitals")
	assert.Contains(t, vitals, "Latest vitals for Priya Sharma (post-op day 2)")
	assert.Contains(t, vitals, "BP 124/80, HR 84, Temp 37.2, SpO2 97%")
	assert.Contains(t, vitals, "Pain: 4/10")

	notes := sel("post-op notes")
	assert.Less(t, strings.Index(notes, "Day 1:"), strings.Index(notes, "Day 2:"))

	surgery := sel("surgery")
	assert.Contains(t, surgery, "Coronary Artery Bypass Graft on 2025-03-10 by Dr. Okafor (240 min)")
	assert.Contains(t, surgery, "Sternal precautions")

	diag := sel("what is the diagnosis")
	assert.Contains(t, diag, "Diagnosis for Priya Sharma: Coronary artery disease")
	assert.Contains(t, diag, "About Coronary Artery Disease")

	meds := sel("medications")
	assert.Contains(t, meds, "Aspirin 81mg, Atorvastatin 40mg")
	assert.Contains(t, meds, "Allergies: Penicillin")

	milestones := sel("milestones")
	assert.Contains(t, milestones, "(1 of 2 achieved)")
	assert.Contains(t, milestones, "[x] Walk 50 meters (achieved 2025-03-12)")
	assert.Contains(t, milestones, "[ ] Chest drain removed")

	assert.Equal(t, "Priya Sharma — Blood type: O+", sel("blood type"))

	all := sel("all patient info")
	for _, part := range []string{"Priya Sharma", "Diagnosis: Coronary artery disease", "Surgeries for", "Post-op notes for", "Recovery milestones for"} {
		assert.Contains(t, all, part)
	}

	phrasings := []struct {
		message string
		intent  Intent
		want    string
	}{
		{"check vitals", IntentSelectedVitals, "Latest vitals for Priya Sharma"},
		{"display vitals", IntentSelectedVitals, "Latest vitals for Priya Sharma"},
		{"list surgeries", IntentSelectedSurgery, "Coronary Artery Bypass Graft"},
		{"any surgeries", IntentSelectedSurgery, "Coronary Artery Bypass Graft"},
		{"previous surgeries", IntentSelectedSurgery, "Coronary Artery Bypass Graft"},
		{"past surgeries", IntentSelectedSurgery, "Coronary Artery Bypass Graft"},
	}
	for _, tt := range phrasings {
		answer := route(t, r, Query{Text: tt.message, PatientID: w.priya.ID})
		assert.Equal(t, tt.intent, answer.Intent, tt.message)
		assert.Contains(t, answer.Text, tt.want, tt.message)
		assert.NotContains(t, answer.Text, "No patients found", tt.message)
	}
}

func TestRouter_FullDetailsWithholdContactFromAnonymous(t *testing.T) {
	w := seedWard(t)
	r := NewRouter(w.store, testLogger())

	queries := []Query{
		{Text: "full details of priya"},
		{Text: "priya details"},
		{Text: "all patient info", PatientID: w.priya.ID},
	}
	for _, q := range queries {
		answer := route(t, r, q)
		assert.Contains(t, answer.Text, "Diagnosis: Coronary artery disease", q.Text)
		assert.Contains(t, answer.Text, contactSignInRequired, q.Text)
		for _, pii := range []string{"555-0101", "priya@example.com", "12 Elm Street", "Raj Sharma"} {
			assert.NotContains(t, answer.Text, pii, q.Text)
		}

		q.Caller = staff()
		answer = route(t, r, q)
		assert.Contains(t, answer.Text, "Phone: 555-0101", q.Text)
		assert.Contains(t, answer.Text, "Emergency contact: Raj Sharma 555-0102", q.Text)
	}
}

func TestRouter_PatientCount(t *testing.T) {
	w := seedWard(t)
	r := NewRouter(w.store, testLogger())

	answer := route(t, r, Query{Text: "how many patients do we have"})
	assert.Equal(t, "There are 5 patients in total.\n- Cardiology: 3\n- Oncology: 1\n- Surgery: 1", answer.Text)

	answer = route(t, r, Query{Text: "how many oncology patients"})
	assert.Equal(t, "There are 1 oncology patients.", answer.Text)
}

func TestRouter_StorageFailureDegradesToNoData(t *testing.T) {
	w := seedWard(t)
	r := NewRouter(flakyReader{Reader: w.store, fail: map[string]bool{"search": true, "surgeries": true}}, testLogger())

	answer := route(t, r, Query{Text: "cardiology patients"})
	assert.Equal(t, "No cardiology patients found.", answer.Text)

	answer = route(t, r, Query{Text: "priya vitals"})
	assert.Equal(t, `No patients found matching "priya".`, answer.Text)

	answer = route(t, r, Query{Text: "surgeries", PatientID: w.priya.ID})
	assert.Equal(t, "No surgeries found for Priya Sharma.", answer.Text)
}

func TestRouter_SelectedPatientMissing(t *testing.T) {
	w := seedWard(t)
	r := NewRouter(w.store, testLogger())

	answer := route(t, r, Query{Text: "show vitals", PatientID: "does-not-exist"})
	assert.Equal(t, selectedNotFound, answer.Text)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "priya age", normalize("  Priya   AGE?! "))
	assert.Equal(t, "", normalize(" ?? "))
}

func TestNameCandidate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"priya", "priya", true},
		{"show me priya sharma", "priya sharma", true},
		{"priya's", "priya", true},
		{"cardiology patient", "", false},
		{"his", "", false},
		{"the", "", false},
		{"latest", "", false},
		{"check", "", false},
		{"list", "", false},
		{"previous", "", false},
	}
	for _, tt := range tests {
		got, ok := nameCandidate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
