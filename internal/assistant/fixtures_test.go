package assistant

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wolfman30/postop-assistant/internal/auth"
	"github.com/wolfman30/postop-assistant/internal/clinical"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

type ward struct {
	store   *clinical.MemoryStore
	priya   *clinical.Patient
	marcus  *clinical.Patient
	elena   *clinical.Patient
	johnC   *clinical.Patient
	johnB   *clinical.Patient
	walkID  string
	drainID string
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testLogger() *logging.Logger {
	return logging.NewWithOptions(logging.Options{Level: "error", Output: &bytes.Buffer{}})
}

func staff() *auth.Identity {
	return &auth.Identity{UserID: "staff-1", Email: "rn@example.com", FullName: "Ana Nurse", Role: "staff"}
}

func mustPatient(t *testing.T, s *clinical.MemoryStore, in clinical.NewPatient) *clinical.Patient {
	t.Helper()
	p, err := s.CreatePatient(context.Background(), in)
	require.NoError(t, err)
	return p
}

// seedWard creates three cardiology patients (Priya first, Elena last), two
// Johns in other departments, and a full post-op history for Priya.
func seedWard(t *testing.T) *ward {
	t.Helper()
	ctx := context.Background()
	s := clinical.NewMemoryStore()
	w := &ward{store: s}

	w.priya = mustPatient(t, s, clinical.NewPatient{
		FullName:         "Priya Sharma",
		DateOfBirth:      date(1990, time.May, 1),
		Gender:           "female",
		BloodType:        "O+",
		Phone:            "555-0101",
		Email:            "priya@example.com",
		Address:          "12 Elm Street",
		EmergencyContact: "Raj Sharma 555-0102",
		Department:       clinical.DepartmentCardiology,
		AdmissionDate:    date(2025, time.March, 8),
	})
	w.marcus = mustPatient(t, s, clinical.NewPatient{
		FullName:      "Marcus Lee",
		DateOfBirth:   date(1958, time.January, 20),
		Department:    clinical.DepartmentCardiology,
		Status:        clinical.StatusRecovering,
		AdmissionDate: date(2025, time.March, 9),
	})
	w.elena = mustPatient(t, s, clinical.NewPatient{
		FullName:      "Elena Rossi",
		DateOfBirth:   date(1972, time.July, 4),
		Department:    clinical.DepartmentCardiology,
		AdmissionDate: date(2025, time.March, 10),
	})
	w.johnC = mustPatient(t, s, clinical.NewPatient{
		FullName:    "John Carter",
		DateOfBirth: date(1965, time.February, 2),
		Department:  clinical.DepartmentOncology,
	})
	w.johnB = mustPatient(t, s, clinical.NewPatient{
		FullName:    "John Baker",
		DateOfBirth: date(1980, time.October, 12),
		Department:  clinical.DepartmentSurgery,
	})

	_, err := s.AddMedicalRecord(ctx, clinical.NewMedicalRecord{
		PatientID:     w.priya.ID,
		Diagnosis:     "Coronary artery disease",
		TreatmentPlan: "CABG followed by cardiac rehabilitation",
		Medications:   "Aspirin 81mg, Atorvastatin 40mg",
		Allergies:     "Penicillin",
	})
	require.NoError(t, err)

	sg, err := s.AddSurgery(ctx, clinical.NewSurgery{
		PatientID:       w.priya.ID,
		SurgeryType:     "Coronary Artery Bypass Graft",
		SurgeryDate:     date(2025, time.March, 10),
		Surgeon:         "Dr. Okafor",
		DurationMinutes: 240,
	})
	require.NoError(t, err)

	for _, n := range []clinical.NewPostOpNote{
		{DayNumber: 1, PainLevel: 6, Mobility: "bed rest", VitalSigns: clinical.VitalSigns{BloodPressure: "130/85", HeartRate: 92, Temperature: 37.8, OxygenSaturation: 95}},
		{DayNumber: 2, PainLevel: 4, Mobility: "walking with assistance", WoundCondition: "clean, dry", VitalSigns: clinical.VitalSigns{BloodPressure: "124/80", HeartRate: 84, Temperature: 37.2, OxygenSaturation: 97}},
	} {
		n.PatientID = w.priya.ID
		n.SurgeryID = &sg.ID
		_, err := s.AddPostOpNote(ctx, n)
		require.NoError(t, err)
	}

	walk, err := s.AddMilestone(ctx, clinical.NewMilestone{PatientID: w.priya.ID, MilestoneType: "Walk 50 meters"})
	require.NoError(t, err)
	drain, err := s.AddMilestone(ctx, clinical.NewMilestone{PatientID: w.priya.ID, MilestoneType: "Chest drain removed"})
	require.NoError(t, err)
	_, err = s.ToggleMilestone(ctx, walk.ID, date(2025, time.March, 12))
	require.NoError(t, err)
	w.walkID, w.drainID = walk.ID, drain.ID
	return w
}

var errStorageDown = errors.New("storage down")

// flakyReader fails the listed operations and delegates the rest.
type flakyReader struct {
	clinical.Reader
	fail map[string]bool
}

func (f flakyReader) GetPatient(ctx context.Context, id string) (*clinical.Patient, error) {
	if f.fail["patient"] {
		return nil, errStorageDown
	}
	return f.Reader.GetPatient(ctx, id)
}

func (f flakyReader) SearchPatients(ctx context.Context, filter clinical.PatientFilter) ([]clinical.Patient, error) {
	if f.fail["search"] {
		return nil, errStorageDown
	}
	return f.Reader.SearchPatients(ctx, filter)
}

func (f flakyReader) ListSurgeries(ctx context.Context, id string, limit int) ([]clinical.Surgery, error) {
	if f.fail["surgeries"] {
		return nil, errStorageDown
	}
	return f.Reader.ListSurgeries(ctx, id, limit)
}

func (f flakyReader) ListMilestones(ctx context.Context, id string, limit int) ([]clinical.RecoveryMilestone, error) {
	if f.fail["milestones"] {
		return nil, errStorageDown
	}
	return f.Reader.ListMilestones(ctx, id, limit)
}

// stubLLM returns a canned response and records the last request.
type stubLLM struct {
	resp LLMResponse
	err  error
	wait bool
	last LLMRequest
	hits int
}

func (s *stubLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	s.hits++
	s.last = req
	if s.wait {
		<-ctx.Done()
		return LLMResponse{}, ctx.Err()
	}
	return s.resp, s.err
}
