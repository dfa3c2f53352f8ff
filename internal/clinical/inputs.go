package clinical

import "time"

// NewPatient is the body accepted when staff register a patient.
type NewPatient struct {
	FullName         string        `json:"full_name" validate:"required"`
	DateOfBirth      time.Time     `json:"date_of_birth"`
	Gender           string        `json:"gender"`
	BloodType        string        `json:"blood_type"`
	Phone            string        `json:"phone"`
	Email            string        `json:"email" validate:"omitempty,email"`
	Address          string        `json:"address"`
	EmergencyContact string        `json:"emergency_contact"`
	Department       Department    `json:"department" validate:"required,oneof=cardiology oncology surgery"`
	Status           PatientStatus `json:"status" validate:"omitempty,oneof=admitted recovering discharged"`
	AdmissionDate    time.Time     `json:"admission_date"`
	CreatedBy        string        `json:"-"`
}

func (in *NewPatient) applyDefaults(now time.Time) {
	if in.Status == "" {
		in.Status = StatusAdmitted
	}
	if in.AdmissionDate.IsZero() {
		in.AdmissionDate = now
	}
}

// PatientPatch carries the mutable patient fields; nil means unchanged.
type PatientPatch struct {
	Status           *PatientStatus `json:"status" validate:"omitempty,oneof=admitted recovering discharged"`
	Department       *Department    `json:"department" validate:"omitempty,oneof=cardiology oncology surgery"`
	Phone            *string        `json:"phone"`
	Email            *string        `json:"email" validate:"omitempty,email"`
	Address          *string        `json:"address"`
	EmergencyContact *string        `json:"emergency_contact"`
}

func (p PatientPatch) apply(pt *Patient) {
	if p.Status != nil {
		pt.Status = *p.Status
	}
	if p.Department != nil {
		pt.Department = *p.Department
	}
	if p.Phone != nil {
		pt.Phone = *p.Phone
	}
	if p.Email != nil {
		pt.Email = *p.Email
	}
	if p.Address != nil {
		pt.Address = *p.Address
	}
	if p.EmergencyContact != nil {
		pt.EmergencyContact = *p.EmergencyContact
	}
}

// NewMedicalRecord appends a record to a patient's history.
type NewMedicalRecord struct {
	PatientID     string `json:"-" validate:"required"`
	Diagnosis     string `json:"diagnosis" validate:"required"`
	TreatmentPlan string `json:"treatment_plan"`
	Medications   string `json:"medications"`
	Allergies     string `json:"allergies"`
	History       string `json:"history"`
	CreatedBy     string `json:"-"`
}

// NewSurgery records a procedure.
type NewSurgery struct {
	PatientID       string    `json:"-" validate:"required"`
	SurgeryType     string    `json:"surgery_type" validate:"required"`
	SurgeryDate     time.Time `json:"surgery_date"`
	Surgeon         string    `json:"surgeon"`
	DurationMinutes int       `json:"duration_minutes" validate:"min=0"`
	Notes           string    `json:"notes"`
}

// NewPostOpNote records one post-operative day.
type NewPostOpNote struct {
	PatientID      string     `json:"-" validate:"required"`
	SurgeryID      *string    `json:"surgery_id"`
	DayNumber      int        `json:"day_number" validate:"min=0"`
	VitalSigns     VitalSigns `json:"vital_signs"`
	PainLevel      int        `json:"pain_level" validate:"painscale"`
	Mobility       string     `json:"mobility"`
	WoundCondition string     `json:"wound_condition"`
	Complications  string     `json:"complications"`
	Notes          string     `json:"notes"`
}

// NewMilestone adds a recovery goal for a patient.
type NewMilestone struct {
	PatientID     string     `json:"-" validate:"required"`
	MilestoneType string     `json:"milestone_type" validate:"required"`
	Description   string     `json:"description"`
	TargetDate    *time.Time `json:"target_date"`
	Notes         string     `json:"notes"`
}
