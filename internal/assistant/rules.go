package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wolfman30/postop-assistant/internal/clinical"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

const (
	contactSignInRequired = "You need to be signed in to view patient contact information."
	contactNoPatient      = "I can't share contact information without a specific patient. Select a patient or include their name."
	selectedNotFound      = "The selected patient could not be found."
)

var (
	piiPattern = regexp.MustCompile(`\b(?:address|phone|email|e-mail|contact)\b`)

	countPattern     = regexp.MustCompile(`^(?:how many|number of|count of|total)\s+(?:(\w+)\s+)?patients\b`)
	countAllPattern  = regexp.MustCompile(`\b(?:all patients|patient count|total patients|list every patient)\b`)
	fullDetailsRE    = regexp.MustCompile(`\b(?:full|complete|all)\s+(?:details|info|information|record|records|history|profile)\s+(?:of|for|on|about)\s+(?:patient\s+)?(.+)$`)
	nameActionRE     = regexp.MustCompile(`^(.+?)\s+(surgery|surgeries|post-op|postop|post op|recovery|details|age|meds|medications|vitals|contact)$`)
	deptBeforeRE     = regexp.MustCompile(`\b(cardiology|cardiac|oncology|cancer|surgery|surgical)\s+(?:department\s+|ward\s+|unit\s+)?patients?\b`)
	deptAfterRE      = regexp.MustCompile(`\bpatients?\s+(?:in|from|on|under)\s+(?:the\s+)?(cardiology|cardiac|oncology|cancer|surgery|surgical)\b`)
	fieldRE          = regexp.MustCompile(`\b(age|how old|blood type|blood group|contact)\b`)
	teachRE          = regexp.MustCompile(`^(?:teach me about|tell me about|what is|what's|whats|what are|explain|describe|information about|info on)\s+(?:an?\s+|the\s+)?(.+)$`)
	howOldRE         = regexp.MustCompile(`^(?:how old is|what is the age of|what's the age of|age of)\s+(.+)$`)
	possessiveAgeRE  = regexp.MustCompile(`^(?:what is\s+|what's\s+)?(.+?)(?:'s|’s) age$`)
	searchRE         = regexp.MustCompile(`^(?:find|search for|search|look up|lookup|locate)\s+(?:patients?\s+)?(?:named\s+|called\s+)?(.+)$`)
	showPatientRE    = regexp.MustCompile(`^(?:show|get|open|pull up)\s+(?:me\s+)?(?:the\s+)?patients?\s+(?:named\s+|called\s+)?(.+)$`)
	selectedAllRE    = regexp.MustCompile(`\b(?:all (?:patient )?(?:info|information|details|data)|everything|full (?:profile|summary)|summary|overview)\b`)
	selectedDiagRE   = regexp.MustCompile(`\b(?:diagnosis|diagnosed|condition|disease|what's wrong)\b`)
	selectedSurgRE   = regexp.MustCompile(`\b(?:surgery|surgeries|operation|operations|procedure|procedures|operated)\b`)
	selectedVitalsRE = regexp.MustCompile(`\b(?:vitals?|vital signs|blood pressure|bp|heart rate|pulse|temperature|temp|oxygen|spo2|pain|post-op|postop|post op|notes?)\b`)
	selectedNotesRE  = regexp.MustCompile(`\b(?:notes?|post-op|postop|post op)\b`)
	selectedMedsRE   = regexp.MustCompile(`\b(?:medications?|meds|medicines?|drugs?|prescriptions?|allergy|allergies)\b`)
	selectedMilesRE  = regexp.MustCompile(`\b(?:milestones?|progress|recovery|goals?)\b`)
)

// piiWords are dropped when pulling a name out of a contact request.
var piiWords = map[string]bool{
	"address": true, "phone": true, "email": true, "e-mail": true, "contact": true,
	"emergency": true, "cell": true, "mobile": true, "home": true, "update": true,
	"how": true, "reach": true,
}

type rule struct {
	intent Intent
	match  func(q Query) ([]string, bool)
	handle func(ctx context.Context, q Query, args []string) string
}

// Router classifies a message with an ordered rule list. The first rule
// whose match accepts the query answers it; order is the priority.
type Router struct {
	fetch fetcher
	now   func() time.Time
	rules []rule
}

// NewRouter builds the rule list over the given clinical reader.
func NewRouter(store clinical.Reader, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Router{
		fetch: fetcher{store: store, logger: logger},
		now:   func() time.Time { return time.Now().UTC() },
	}
	r.rules = []rule{
		{IntentContactInfo, matchRegexp(piiPattern), r.contactInfo},
		{IntentDiseaseInfo, matchDisease, r.diseaseInfo},
		{IntentPatientCount, matchCount, r.patientCount},
		{IntentFullDetails, matchName(fullDetailsRE), r.fullDetailsByName},
		{IntentNameAction, matchNameAction, r.nameAction},
		{IntentDepartmentList, matchDepartment, r.departmentList},
		{IntentSelectedField, whenSelected(matchRegexp(fieldRE)), r.selectedField},
		{IntentTeach, matchTeach, r.teach},
		{IntentAgeShorthand, matchName(howOldRE, possessiveAgeRE), r.ageByName},
		{IntentPatientSearch, matchName(searchRE, showPatientRE), r.search},
		{IntentSelectedAll, whenSelected(matchRegexp(selectedAllRE)), r.selectedAll},
		{IntentSelectedDiagnosis, whenSelected(matchRegexp(selectedDiagRE)), r.selectedDiagnosis},
		{IntentSelectedSurgery, whenSelected(matchRegexp(selectedSurgRE)), r.selectedSurgery},
		{IntentSelectedVitals, whenSelected(matchRegexp(selectedVitalsRE)), r.selectedVitals},
		{IntentSelectedMedication, whenSelected(matchRegexp(selectedMedsRE)), r.selectedMedication},
		{IntentSelectedMilestones, whenSelected(matchRegexp(selectedMilesRE)), r.selectedMilestones},
	}
	return r
}

// Route answers q locally, or reports false when no rule matched.
func (r *Router) Route(ctx context.Context, q Query) (Answer, bool) {
	for _, rl := range r.rules {
		args, ok := rl.match(q)
		if !ok {
			continue
		}
		return Answer{Intent: rl.intent, Text: rl.handle(ctx, q, args)}, true
	}
	return Answer{}, false
}

// Classify returns the intent of the first matching rule without fetching.
func (r *Router) Classify(q Query) (Intent, bool) {
	for _, rl := range r.rules {
		if _, ok := rl.match(q); ok {
			return rl.intent, true
		}
	}
	return "", false
}

// matchers

func matchRegexp(re *regexp.Regexp) func(Query) ([]string, bool) {
	return func(q Query) ([]string, bool) {
		m := re.FindStringSubmatch(q.Text)
		if m == nil {
			return nil, false
		}
		return m[1:], true
	}
}

func whenSelected(inner func(Query) ([]string, bool)) func(Query) ([]string, bool) {
	return func(q Query) ([]string, bool) {
		if !q.HasPatient() {
			return nil, false
		}
		return inner(q)
	}
}

// matchName tries each pattern and accepts the first capture that reads as a name.
func matchName(patterns ...*regexp.Regexp) func(Query) ([]string, bool) {
	return func(q Query) ([]string, bool) {
		for _, re := range patterns {
			m := re.FindStringSubmatch(q.Text)
			if m == nil {
				continue
			}
			if name, ok := nameCandidate(m[1]); ok {
				return []string{name}, true
			}
		}
		return nil, false
	}
}

func matchDisease(q Query) ([]string, bool) {
	if _, ok := mentionedDisease(q.Text); !ok {
		return nil, false
	}
	return nil, true
}

func matchCount(q Query) ([]string, bool) {
	if m := countPattern.FindStringSubmatch(q.Text); m != nil {
		return []string{m[1]}, true
	}
	if countAllPattern.MatchString(q.Text) {
		return []string{""}, true
	}
	return nil, false
}

func matchNameAction(q Query) ([]string, bool) {
	m := nameActionRE.FindStringSubmatch(q.Text)
	if m == nil {
		return nil, false
	}
	name, ok := nameCandidate(m[1])
	if !ok {
		return nil, false
	}
	return []string{name, m[2]}, true
}

func matchDepartment(q Query) ([]string, bool) {
	for _, re := range []*regexp.Regexp{deptBeforeRE, deptAfterRE} {
		if m := re.FindStringSubmatch(q.Text); m != nil {
			return []string{m[1]}, true
		}
	}
	return nil, false
}

func matchTeach(q Query) ([]string, bool) {
	m := teachRE.FindStringSubmatch(q.Text)
	if m == nil {
		return nil, false
	}
	topic := m[1]
	if _, ok := lookupSurgery(topic); ok {
		return []string{topic}, true
	}
	if _, ok := lookupDisease(topic); ok {
		return []string{topic}, true
	}
	return nil, false
}

// handlers

// resolveName returns the single patient matching name, or the text to
// answer with instead: not-found for none, a disambiguation list for many.
func (r *Router) resolveName(ctx context.Context, name string) (*clinical.Patient, string) {
	patients := r.fetch.searchByName(ctx, name)
	switch len(patients) {
	case 0:
		return nil, formatNotFound(name)
	case 1:
		return &patients[0], ""
	default:
		return nil, formatDisambiguation(name, patients)
	}
}

func (r *Router) selected(ctx context.Context, q Query) (*clinical.Patient, string) {
	p := r.fetch.patient(ctx, q.PatientID)
	if p == nil {
		return nil, selectedNotFound
	}
	return p, ""
}

func (r *Router) contactInfo(ctx context.Context, q Query, _ []string) string {
	if !q.Authenticated() {
		return contactSignInRequired
	}
	if name := extractName(q.Text, piiWords); name != "" {
		p, text := r.resolveName(ctx, name)
		if p == nil {
			return text
		}
		return formatContact(p)
	}
	if q.HasPatient() {
		p, text := r.selected(ctx, q)
		if p == nil {
			return text
		}
		return formatContact(p)
	}
	return contactNoPatient
}

func (r *Router) diseaseInfo(_ context.Context, q Query, _ []string) string {
	info, _ := mentionedDisease(q.Text)
	return formatDiseaseInfo(info)
}

func (r *Router) patientCount(ctx context.Context, _ Query, args []string) string {
	if dept, ok := clinical.ParseDepartment(args[0]); ok {
		n := r.fetch.count(ctx, clinical.PatientFilter{Department: dept})
		if n < 0 {
			return "No patient data found."
		}
		return fmt.Sprintf("There are %d %s patients.", n, dept)
	}
	perDept := make(map[clinical.Department]int, len(clinical.Departments))
	for _, d := range clinical.Departments {
		perDept[d] = r.fetch.count(ctx, clinical.PatientFilter{Department: d})
	}
	return formatPatientCount(r.fetch.count(ctx, clinical.PatientFilter{}), perDept)
}

func (r *Router) details(ctx context.Context, q Query, p *clinical.Patient) string {
	return formatFullDetails(patientDetails{
		patient:     p,
		record:      r.fetch.latestRecord(ctx, p.ID),
		surgeries:   r.fetch.surgeries(ctx, p.ID),
		notes:       r.fetch.recentNotes(ctx, p.ID),
		milestones:  r.fetch.milestones(ctx, p.ID),
		showContact: q.Authenticated(),
	}, r.now())
}

func (r *Router) fullDetailsByName(ctx context.Context, q Query, args []string) string {
	p, text := r.resolveName(ctx, args[0])
	if p == nil {
		return text
	}
	return r.details(ctx, q, p)
}

func (r *Router) nameAction(ctx context.Context, q Query, args []string) string {
	p, text := r.resolveName(ctx, args[0])
	if p == nil {
		return text
	}
	switch args[1] {
	case "surgery", "surgeries":
		return formatSurgeries(p, r.fetch.surgeries(ctx, p.ID))
	case "post-op", "postop", "post op":
		return formatNotes(p, r.fetch.recentNotes(ctx, p.ID))
	case "recovery":
		return formatNotes(p, r.fetch.recentNotes(ctx, p.ID)) + "\n\n" + formatMilestones(p, r.fetch.milestones(ctx, p.ID))
	case "age":
		return formatAgeLine(p, r.now())
	case "meds", "medications":
		return formatMedications(p, r.fetch.latestRecord(ctx, p.ID))
	case "vitals":
		return formatVitals(p, r.fetch.latestNote(ctx, p.ID))
	case "contact":
		if !q.Authenticated() {
			return contactSignInRequired
		}
		return formatContact(p)
	default:
		return r.details(ctx, q, p)
	}
}

func (r *Router) departmentList(ctx context.Context, _ Query, args []string) string {
	dept, _ := clinical.ParseDepartment(args[0])
	return formatDepartmentList(dept, r.fetch.byDepartment(ctx, dept))
}

func (r *Router) selectedField(ctx context.Context, q Query, args []string) string {
	if args[0] == "contact" {
		return r.contactInfo(ctx, q, nil)
	}
	p, text := r.selected(ctx, q)
	if p == nil {
		return text
	}
	if strings.HasPrefix(args[0], "blood") {
		return formatBloodType(p)
	}
	return formatAgeLine(p, r.now())
}

func (r *Router) teach(_ context.Context, _ Query, args []string) string {
	if info, ok := lookupSurgery(args[0]); ok {
		return formatSurgeryTeaching(info)
	}
	info, _ := lookupDisease(args[0])
	return formatDiseaseInfo(info)
}

func (r *Router) ageByName(ctx context.Context, _ Query, args []string) string {
	p, text := r.resolveName(ctx, args[0])
	if p == nil {
		return text
	}
	return formatAgeLine(p, r.now())
}

func (r *Router) search(ctx context.Context, _ Query, args []string) string {
	p, text := r.resolveName(ctx, args[0])
	if p == nil {
		return text
	}
	return formatPatientSummary(p, r.now())
}

func (r *Router) selectedAll(ctx context.Context, q Query, _ []string) string {
	p, text := r.selected(ctx, q)
	if p == nil {
		return text
	}
	return r.details(ctx, q, p)
}

func (r *Router) selectedDiagnosis(ctx context.Context, q Query, _ []string) string {
	p, text := r.selected(ctx, q)
	if p == nil {
		return text
	}
	return formatDiagnosis(p, r.fetch.latestRecord(ctx, p.ID))
}

func (r *Router) selectedSurgery(ctx context.Context, q Query, _ []string) string {
	p, text := r.selected(ctx, q)
	if p == nil {
		return text
	}
	return formatSurgeries(p, r.fetch.surgeries(ctx, p.ID))
}

func (r *Router) selectedVitals(ctx context.Context, q Query, _ []string) string {
	p, text := r.selected(ctx, q)
	if p == nil {
		return text
	}
	if selectedNotesRE.MatchString(q.Text) {
		return formatNotes(p, r.fetch.recentNotes(ctx, p.ID))
	}
	return formatVitals(p, r.fetch.latestNote(ctx, p.ID))
}

func (r *Router) selectedMedication(ctx context.Context, q Query, _ []string) string {
	p, text := r.selected(ctx, q)
	if p == nil {
		return text
	}
	return formatMedications(p, r.fetch.latestRecord(ctx, p.ID))
}

func (r *Router) selectedMilestones(ctx context.Context, q Query, _ []string) string {
	p, text := r.selected(ctx, q)
	if p == nil {
		return text
	}
	return formatMilestones(p, r.fetch.milestones(ctx, p.ID))
}
