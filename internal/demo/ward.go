// Package demo seeds a small ward of patients so the assistant can be tried
// without a database.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/postop-assistant/internal/clinical"
)

// Ward holds the ids of the seeded patients by full name.
type Ward struct {
	Patients map[string]string
}

// PatientID returns the id of a seeded patient, or "" if unknown.
func (w *Ward) PatientID(name string) string {
	if w == nil {
		return ""
	}
	return w.Patients[name]
}

type seedPatient struct {
	patient    clinical.NewPatient
	record     *clinical.NewMedicalRecord
	surgery    *clinical.NewSurgery
	notes      []clinical.NewPostOpNote
	milestones []string
	achieved   int
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedData(now time.Time) []seedPatient {
	ago := func(days int) time.Time { return now.AddDate(0, 0, -days).Truncate(24 * time.Hour) }
	return []seedPatient{
		{
			patient: clinical.NewPatient{
				FullName: "Priya Sharma", DateOfBirth: day(1968, time.May, 1), Gender: "female", BloodType: "O+",
				Phone: "555-0101", Email: "priya.sharma@example.com", Address: "12 Elm Street",
				EmergencyContact: "Raj Sharma 555-0102", Department: clinical.DepartmentCardiology,
				Status: clinical.StatusRecovering, AdmissionDate: ago(5),
			},
			record: &clinical.NewMedicalRecord{
				Diagnosis: "Coronary artery disease", TreatmentPlan: "CABG followed by cardiac rehabilitation",
				Medications: "Aspirin 81mg, Atorvastatin 40mg, Metoprolol 25mg", Allergies: "Penicillin",
			},
			surgery: &clinical.NewSurgery{SurgeryType: "Coronary Artery Bypass Graft", SurgeryDate: ago(3), Surgeon: "Dr. Okafor", DurationMinutes: 240},
			notes: []clinical.NewPostOpNote{
				{DayNumber: 1, PainLevel: 6, Mobility: "bed rest", WoundCondition: "dressing intact", VitalSigns: clinical.VitalSigns{BloodPressure: "130/85", HeartRate: 92, Temperature: 37.8, OxygenSaturation: 95}},
				{DayNumber: 2, PainLevel: 4, Mobility: "walking with assistance", WoundCondition: "clean, dry", VitalSigns: clinical.VitalSigns{BloodPressure: "124/80", HeartRate: 84, Temperature: 37.2, OxygenSaturation: 97}},
			},
			milestones: []string{"Walk 50 meters", "Chest drain removed", "Independent stairs"},
			achieved:   1,
		},
		{
			patient: clinical.NewPatient{
				FullName: "Marcus Lee", DateOfBirth: day(1958, time.January, 20), Gender: "male", BloodType: "A-",
				Phone: "555-0140", Department: clinical.DepartmentSurgery, AdmissionDate: ago(2),
			},
			record:     &clinical.NewMedicalRecord{Diagnosis: "Appendicitis", Medications: "Cefazolin 1g", Allergies: "None known"},
			surgery:    &clinical.NewSurgery{SurgeryType: "Appendectomy", SurgeryDate: ago(1), Surgeon: "Dr. Silva", DurationMinutes: 55},
			notes:      []clinical.NewPostOpNote{{DayNumber: 1, PainLevel: 3, Mobility: "ambulating", VitalSigns: clinical.VitalSigns{BloodPressure: "118/76", HeartRate: 78, Temperature: 37.0, OxygenSaturation: 98}}},
			milestones: []string{"Tolerating diet", "Discharge planning"},
		},
		{
			patient: clinical.NewPatient{
				FullName: "Elena Rossi", DateOfBirth: day(1972, time.July, 4), Gender: "female", BloodType: "B+",
				Department: clinical.DepartmentOncology, AdmissionDate: ago(8),
			},
			record:  &clinical.NewMedicalRecord{Diagnosis: "Breast cancer", TreatmentPlan: "Mastectomy then adjuvant chemotherapy", Medications: "Ondansetron 4mg"},
			surgery: &clinical.NewSurgery{SurgeryType: "Mastectomy", SurgeryDate: ago(6), Surgeon: "Dr. Haddad", DurationMinutes: 150},
		},
		{
			patient: clinical.NewPatient{
				FullName: "John Carter", DateOfBirth: day(1965, time.February, 2), Department: clinical.DepartmentCardiology,
				Status: clinical.StatusDischarged, AdmissionDate: ago(20),
			},
			record: &clinical.NewMedicalRecord{Diagnosis: "Atrial fibrillation", Medications: "Apixaban 5mg"},
		},
	}
}

// SeedWard writes the demo patients and their histories into store.
func SeedWard(ctx context.Context, store clinical.Store, now time.Time) (*Ward, error) {
	ward := &Ward{Patients: make(map[string]string)}
	for _, sp := range seedData(now) {
		p, err := store.CreatePatient(ctx, sp.patient)
		if err != nil {
			return nil, fmt.Errorf("demo: create %s: %w", sp.patient.FullName, err)
		}
		ward.Patients[p.FullName] = p.ID

		if sp.record != nil {
			rec := *sp.record
			rec.PatientID = p.ID
			if _, err := store.AddMedicalRecord(ctx, rec); err != nil {
				return nil, fmt.Errorf("demo: record for %s: %w", p.FullName, err)
			}
		}
		var surgeryID *string
		if sp.surgery != nil {
			sg := *sp.surgery
			sg.PatientID = p.ID
			created, err := store.AddSurgery(ctx, sg)
			if err != nil {
				return nil, fmt.Errorf("demo: surgery for %s: %w", p.FullName, err)
			}
			surgeryID = &created.ID
		}
		for _, n := range sp.notes {
			n.PatientID = p.ID
			n.SurgeryID = surgeryID
			if _, err := store.AddPostOpNote(ctx, n); err != nil {
				return nil, fmt.Errorf("demo: note for %s: %w", p.FullName, err)
			}
		}
		for i, name := range sp.milestones {
			m, err := store.AddMilestone(ctx, clinical.NewMilestone{PatientID: p.ID, MilestoneType: name})
			if err != nil {
				return nil, fmt.Errorf("demo: milestone for %s: %w", p.FullName, err)
			}
			if i < sp.achieved {
				if _, err := store.ToggleMilestone(ctx, m.ID, now); err != nil {
					return nil, fmt.Errorf("demo: toggle milestone: %w", err)
				}
			}
		}
	}
	return ward, nil
}
