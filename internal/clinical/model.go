package clinical

import (
	"strings"
	"time"
)

// Department is one of the three wards the service covers.
type Department string

const (
	DepartmentCardiology Department = "cardiology"
	DepartmentOncology   Department = "oncology"
	DepartmentSurgery    Department = "surgery"
)

// Departments lists every department in display order.
var Departments = []Department{DepartmentCardiology, DepartmentOncology, DepartmentSurgery}

// ParseDepartment maps free text ("Cardiology", "cardiac") to a department.
func ParseDepartment(s string) (Department, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cardiology", "cardiac":
		return DepartmentCardiology, true
	case "oncology", "cancer":
		return DepartmentOncology, true
	case "surgery", "surgical":
		return DepartmentSurgery, true
	}
	return "", false
}

// Title returns the department name capitalized for display.
func (d Department) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// PatientStatus is a label only; transitions are not guarded.
type PatientStatus string

const (
	StatusAdmitted   PatientStatus = "admitted"
	StatusRecovering PatientStatus = "recovering"
	StatusDischarged PatientStatus = "discharged"
)

// Patient is the root record every clinical entry hangs off.
type Patient struct {
	ID               string        `json:"id"`
	FullName         string        `json:"full_name"`
	DateOfBirth      time.Time     `json:"date_of_birth"`
	Gender           string        `json:"gender"`
	BloodType        string        `json:"blood_type"`
	Phone            string        `json:"phone"`
	Email            string        `json:"email"`
	Address          string        `json:"address"`
	EmergencyContact string        `json:"emergency_contact"`
	Department       Department    `json:"department"`
	Status           PatientStatus `json:"status"`
	AdmissionDate    time.Time     `json:"admission_date"`
	CreatedBy        string        `json:"created_by,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Age is the calendar-year difference between now and the date of birth.
func (p *Patient) Age(now time.Time) int {
	if p == nil || p.DateOfBirth.IsZero() {
		return 0
	}
	return now.Year() - p.DateOfBirth.Year()
}

// MedicalRecord is append-only; the newest row is the current one.
type MedicalRecord struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	Diagnosis     string    `json:"diagnosis"`
	TreatmentPlan string    `json:"treatment_plan"`
	Medications   string    `json:"medications"`
	Allergies     string    `json:"allergies"`
	History       string    `json:"history"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Surgery is a procedure performed on a patient.
type Surgery struct {
	ID              string    `json:"id"`
	PatientID       string    `json:"patient_id"`
	SurgeryType     string    `json:"surgery_type"`
	SurgeryDate     time.Time `json:"surgery_date"`
	Surgeon         string    `json:"surgeon"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
}

// VitalSigns is stored as a nested document on the post-op note.
type VitalSigns struct {
	BloodPressure    string  `json:"blood_pressure,omitempty"`
	HeartRate        int     `json:"heart_rate,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	OxygenSaturation int     `json:"oxygen_saturation,omitempty"`
}

// IsZero reports whether no vital sign was recorded.
func (v VitalSigns) IsZero() bool {
	return v == VitalSigns{}
}

// PostOpNote is one day's recovery observation.
type PostOpNote struct {
	ID             string     `json:"id"`
	PatientID      string     `json:"patient_id"`
	SurgeryID      *string    `json:"surgery_id,omitempty"`
	DayNumber      int        `json:"day_number"`
	VitalSigns     VitalSigns `json:"vital_signs"`
	PainLevel      int        `json:"pain_level"`
	Mobility       string     `json:"mobility"`
	WoundCondition string     `json:"wound_condition"`
	Complications  string     `json:"complications"`
	Notes          string     `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
}

// RecoveryMilestone is toggled by staff as the patient progresses.
type RecoveryMilestone struct {
	ID            string     `json:"id"`
	PatientID     string     `json:"patient_id"`
	MilestoneType string     `json:"milestone_type"`
	Description   string     `json:"description"`
	Achieved      bool       `json:"achieved"`
	AchievedDate  *time.Time `json:"achieved_date,omitempty"`
	TargetDate    *time.Time `json:"target_date,omitempty"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SortOrder selects the direction for post-op notes by day number.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// PatientFilter scopes patient listings. Zero values mean "any".
type PatientFilter struct {
	NameLike   string
	Department Department
	Limit      int
}
