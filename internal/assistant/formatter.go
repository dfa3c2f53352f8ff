package assistant

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/postop-assistant/internal/clinical"
)

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "not recorded"
	}
	return t.Format(dateLayout)
}

func orNotRecorded(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not recorded"
	}
	return s
}

func formatAgeLine(p *clinical.Patient, now time.Time) string {
	if p.DateOfBirth.IsZero() {
		return fmt.Sprintf("%s — Age: unknown (no date of birth recorded)", p.FullName)
	}
	return fmt.Sprintf("%s — Age: %d", p.FullName, p.Age(now))
}

func formatNotFound(query string) string {
	return fmt.Sprintf("No patients found matching \"%s\".", query)
}

func formatDisambiguation(query string, patients []clinical.Patient) string {
	if len(patients) > listingCap {
		patients = patients[:listingCap]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Multiple patients match \"%s\". Which one do you mean?\n", query)
	for i, p := range patients {
		fmt.Fprintf(&b, "%d. %s (%s, DOB %s, %s)\n", i+1, p.FullName, p.Department.Title(), formatDate(p.DateOfBirth), p.Status)
	}
	b.WriteString("Select the patient or use their full name.")
	return b.String()
}

func formatPatientSummary(p *clinical.Patient, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.FullName)
	age := "unknown"
	if !p.DateOfBirth.IsZero() {
		age = strconv.Itoa(p.Age(now))
	}
	fmt.Fprintf(&b, "Age: %s | Gender: %s | Blood type: %s\n", age, orNotRecorded(p.Gender), orNotRecorded(p.BloodType))
	fmt.Fprintf(&b, "Department: %s | Status: %s\n", p.Department.Title(), p.Status)
	fmt.Fprintf(&b, "Admitted: %s", formatDate(p.AdmissionDate))
	return b.String()
}

func formatPatientCount(total int, perDept map[clinical.Department]int) string {
	if total < 0 {
		return "No patient data found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "There are %d patients in total.", total)
	for _, d := range clinical.Departments {
		n, ok := perDept[d]
		if !ok || n < 0 {
			continue
		}
		fmt.Fprintf(&b, "\n- %s: %d", d.Title(), n)
	}
	return b.String()
}

func formatDepartmentList(dept clinical.Department, patients []clinical.Patient) string {
	if len(patients) == 0 {
		return fmt.Sprintf("No %s patients found.", dept)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s patients (%d):", dept.Title(), len(patients))
	for i, p := range patients {
		fmt.Fprintf(&b, "\n%d. %s — Status: %s — Admitted: %s", i+1, p.FullName, p.Status, formatDate(p.AdmissionDate))
	}
	return b.String()
}

func formatContact(p *clinical.Patient) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Contact information for %s:\n", p.FullName)
	fmt.Fprintf(&b, "Phone: %s\n", orNotRecorded(p.Phone))
	fmt.Fprintf(&b, "Email: %s\n", orNotRecorded(p.Email))
	fmt.Fprintf(&b, "Address: %s\n", orNotRecorded(p.Address))
	fmt.Fprintf(&b, "Emergency contact: %s", orNotRecorded(p.EmergencyContact))
	return b.String()
}

func formatBloodType(p *clinical.Patient) string {
	return fmt.Sprintf("%s — Blood type: %s", p.FullName, orNotRecorded(p.BloodType))
}

func formatRecord(rec *clinical.MedicalRecord) string {
	if rec == nil {
		return "No medical records found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Diagnosis: %s\n", rec.Diagnosis)
	fmt.Fprintf(&b, "Treatment plan: %s\n", orNotRecorded(rec.TreatmentPlan))
	fmt.Fprintf(&b, "Medications: %s\n", orNotRecorded(rec.Medications))
	fmt.Fprintf(&b, "Allergies: %s\n", orNotRecorded(rec.Allergies))
	fmt.Fprintf(&b, "History: %s", orNotRecorded(rec.History))
	return b.String()
}

func formatMedications(p *clinical.Patient, rec *clinical.MedicalRecord) string {
	if rec == nil {
		return fmt.Sprintf("No medical records found for %s.", p.FullName)
	}
	return fmt.Sprintf("Medications for %s: %s\nAllergies: %s",
		p.FullName, orNotRecorded(rec.Medications), orNotRecorded(rec.Allergies))
}

func formatDiagnosis(p *clinical.Patient, rec *clinical.MedicalRecord) string {
	if rec == nil {
		return fmt.Sprintf("No medical records found for %s.", p.FullName)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Diagnosis for %s: %s\nTreatment plan: %s", p.FullName, rec.Diagnosis, orNotRecorded(rec.TreatmentPlan))
	if info, ok := lookupDisease(rec.Diagnosis); ok {
		fmt.Fprintf(&b, "\n\nAbout %s: %s\nTeaching: %s", info.Name, info.Summary, info.Teaching)
	}
	return b.String()
}

func formatSurgeries(p *clinical.Patient, surgeries []clinical.Surgery) string {
	if len(surgeries) == 0 {
		return fmt.Sprintf("No surgeries found for %s.", p.FullName)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Surgeries for %s:", p.FullName)
	for i, s := range surgeries {
		fmt.Fprintf(&b, "\n%d. %s on %s", i+1, s.SurgeryType, formatDate(s.SurgeryDate))
		if s.Surgeon != "" {
			fmt.Fprintf(&b, " by %s", s.Surgeon)
		}
		if s.DurationMinutes > 0 {
			fmt.Fprintf(&b, " (%d min)", s.DurationMinutes)
		}
		if s.Notes != "" {
			fmt.Fprintf(&b, "\n   Notes: %s", s.Notes)
		}
		if info, ok := lookupSurgery(s.SurgeryType); ok {
			fmt.Fprintf(&b, "\n   Recovery: %s\n   Precautions: %s", info.Recovery, info.Precautions)
		}
	}
	return b.String()
}

func formatVitalSigns(v clinical.VitalSigns) string {
	if v.IsZero() {
		return "no vitals recorded"
	}
	var parts []string
	if v.BloodPressure != "" {
		parts = append(parts, "BP "+v.BloodPressure)
	}
	if v.HeartRate > 0 {
		parts = append(parts, fmt.Sprintf("HR %d", v.HeartRate))
	}
	if v.Temperature > 0 {
		parts = append(parts, fmt.Sprintf("Temp %.1f", v.Temperature))
	}
	if v.OxygenSaturation > 0 {
		parts = append(parts, fmt.Sprintf("SpO2 %d%%", v.OxygenSaturation))
	}
	return strings.Join(parts, ", ")
}

func formatVitals(p *clinical.Patient, note *clinical.PostOpNote) string {
	if note == nil {
		return fmt.Sprintf("No post-op notes found for %s.", p.FullName)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Latest vitals for %s (post-op day %d):\n", p.FullName, note.DayNumber)
	fmt.Fprintf(&b, "%s\n", formatVitalSigns(note.VitalSigns))
	fmt.Fprintf(&b, "Pain: %d/10 | Mobility: %s | Wound: %s", note.PainLevel, orNotRecorded(note.Mobility), orNotRecorded(note.WoundCondition))
	if note.Complications != "" {
		fmt.Fprintf(&b, "\nComplications: %s", note.Complications)
	}
	return b.String()
}

func formatNotes(p *clinical.Patient, notes []clinical.PostOpNote) string {
	if len(notes) == 0 {
		return fmt.Sprintf("No post-op notes found for %s.", p.FullName)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Post-op notes for %s:", p.FullName)
	for _, n := range notes {
		fmt.Fprintf(&b, "\nDay %d: %s, pain %d/10", n.DayNumber, formatVitalSigns(n.VitalSigns), n.PainLevel)
		if n.Mobility != "" {
			fmt.Fprintf(&b, ", mobility: %s", n.Mobility)
		}
		if n.WoundCondition != "" {
			fmt.Fprintf(&b, ", wound: %s", n.WoundCondition)
		}
		if n.Complications != "" {
			fmt.Fprintf(&b, ", complications: %s", n.Complications)
		}
	}
	return b.String()
}

func achievedCount(milestones []clinical.RecoveryMilestone) int {
	n := 0
	for _, m := range milestones {
		if m.Achieved {
			n++
		}
	}
	return n
}

func formatMilestones(p *clinical.Patient, milestones []clinical.RecoveryMilestone) string {
	if len(milestones) == 0 {
		return fmt.Sprintf("No recovery milestones found for %s.", p.FullName)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Recovery milestones for %s (%d of %d achieved):", p.FullName, achievedCount(milestones), len(milestones))
	for _, m := range milestones {
		mark := "[ ]"
		if m.Achieved {
			mark = "[x]"
		}
		fmt.Fprintf(&b, "\n%s %s", mark, m.MilestoneType)
		if m.Description != "" {
			fmt.Fprintf(&b, ": %s", m.Description)
		}
		switch {
		case m.Achieved && m.AchievedDate != nil:
			fmt.Fprintf(&b, " (achieved %s)", formatDate(*m.AchievedDate))
		case !m.Achieved && m.TargetDate != nil:
			fmt.Fprintf(&b, " (target %s)", formatDate(*m.TargetDate))
		}
	}
	return b.String()
}

// patientDetails gathers every section shown for a full-details answer.
type patientDetails struct {
	patient    *clinical.Patient
	record     *clinical.MedicalRecord
	surgeries  []clinical.Surgery
	notes      []clinical.PostOpNote
	milestones []clinical.RecoveryMilestone
	// showContact is false for anonymous callers.
	showContact bool
}

func formatFullDetails(d patientDetails, now time.Time) string {
	contact := contactSignInRequired
	if d.showContact {
		contact = formatContact(d.patient)
	}
	sections := []string{
		formatPatientSummary(d.patient, now),
		contact,
		formatRecord(d.record),
		formatSurgeries(d.patient, d.surgeries),
		formatNotes(d.patient, d.notes),
		formatMilestones(d.patient, d.milestones),
	}
	return strings.Join(sections, "\n\n")
}

func formatSurgeryTeaching(info SurgeryInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", info.Name)
	fmt.Fprintf(&b, "Purpose: %s\n\n", info.Purpose)
	fmt.Fprintf(&b, "Procedure: %s\n\n", info.Procedure)
	fmt.Fprintf(&b, "Risks: %s\n\n", info.Risks)
	fmt.Fprintf(&b, "Precautions: %s\n\n", info.Precautions)
	fmt.Fprintf(&b, "Recovery: %s\n\n", info.Recovery)
	fmt.Fprintf(&b, "Patient teaching: %s", info.Teaching)
	return b.String()
}

func formatDiseaseInfo(info DiseaseInfo) string {
	return fmt.Sprintf("%s\n\n%s\n\nTeaching: %s", info.Name, info.Summary, info.Teaching)
}
