// Package assistant answers free-text staff questions about patients. An
// ordered rule list handles the questions it recognizes from stored data;
// anything else goes to an external model with a patient snapshot.
package assistant

import "github.com/wolfman30/postop-assistant/internal/auth"

// Intent is the classified purpose of a message.
type Intent string

const (
	IntentContactInfo        Intent = "contact_info"
	IntentDiseaseInfo        Intent = "disease_info"
	IntentPatientCount       Intent = "patient_count"
	IntentFullDetails        Intent = "full_details"
	IntentNameAction         Intent = "name_action"
	IntentDepartmentList     Intent = "department_list"
	IntentSelectedField      Intent = "selected_field"
	IntentTeach              Intent = "teach"
	IntentAgeShorthand       Intent = "age_shorthand"
	IntentPatientSearch      Intent = "patient_search"
	IntentSelectedAll        Intent = "selected_all"
	IntentSelectedDiagnosis  Intent = "selected_diagnosis"
	IntentSelectedSurgery    Intent = "selected_surgery"
	IntentSelectedVitals     Intent = "selected_vitals"
	IntentSelectedMedication Intent = "selected_medication"
	IntentSelectedMilestones Intent = "selected_milestones"

	// IntentExternal marks answers produced by the external assistant path.
	IntentExternal Intent = "external"
	IntentEmpty    Intent = "empty"
	IntentError    Intent = "error"
)

// Source says which path produced a response.
type Source string

const (
	SourceLocal       Source = "local"
	SourceExternal    Source = "external"
	SourceSynthesized Source = "synthesized"
	SourceApology     Source = "apology"
	SourceError       Source = "error"
)

// Query is one message as seen by the router.
type Query struct {
	// Text is the normalized message.
	Text      string
	Raw       string
	PatientID string
	Caller    *auth.Identity
}

// HasPatient reports whether a patient is currently selected.
func (q Query) HasPatient() bool {
	return q.PatientID != ""
}

// Authenticated reports whether the caller signed in.
func (q Query) Authenticated() bool {
	return q.Caller != nil && q.Caller.UserID != ""
}

// Answer is a locally produced response.
type Answer struct {
	Intent Intent
	Text   string
}
