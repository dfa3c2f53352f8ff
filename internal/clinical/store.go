package clinical

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reader is the read side of the storage collaborator. Listing methods
// return newest first unless stated otherwise; limit <= 0 means no cap.
type Reader interface {
	GetPatient(ctx context.Context, id string) (*Patient, error)
	SearchPatients(ctx context.Context, filter PatientFilter) ([]Patient, error)
	CountPatients(ctx context.Context, filter PatientFilter) (int, error)
	ListMedicalRecords(ctx context.Context, patientID string, limit int) ([]MedicalRecord, error)
	ListSurgeries(ctx context.Context, patientID string, limit int) ([]Surgery, error)
	// ListPostOpNotes orders by day number in the requested direction.
	ListPostOpNotes(ctx context.Context, patientID string, order SortOrder, limit int) ([]PostOpNote, error)
	ListMilestones(ctx context.Context, patientID string, limit int) ([]RecoveryMilestone, error)
	GetMilestone(ctx context.Context, id string) (*RecoveryMilestone, error)
}

// Writer is the write side of the storage collaborator.
type Writer interface {
	CreatePatient(ctx context.Context, in NewPatient) (*Patient, error)
	UpdatePatient(ctx context.Context, id string, patch PatientPatch) (*Patient, error)
	AddMedicalRecord(ctx context.Context, in NewMedicalRecord) (*MedicalRecord, error)
	AddSurgery(ctx context.Context, in NewSurgery) (*Surgery, error)
	AddPostOpNote(ctx context.Context, in NewPostOpNote) (*PostOpNote, error)
	AddMilestone(ctx context.Context, in NewMilestone) (*RecoveryMilestone, error)
	// ToggleMilestone flips achieved in one step. Marking it achieved stamps
	// at; un-marking clears the achieved date.
	ToggleMilestone(ctx context.Context, id string, at time.Time) (*RecoveryMilestone, error)
}

// Store combines both sides.
type Store interface {
	Reader
	Writer
}

// MemoryStore is an in-process Store used for demos and tests. It enforces
// the same constraints the Postgres schema does.
type MemoryStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	seq        int64
	patients   map[string]*Patient
	records    map[string]*MedicalRecord
	surgeries  map[string]*Surgery
	notes      map[string]*PostOpNote
	milestones map[string]*RecoveryMilestone
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:        func() time.Time { return time.Now().UTC() },
		patients:   make(map[string]*Patient),
		records:    make(map[string]*MedicalRecord),
		surgeries:  make(map[string]*Surgery),
		notes:      make(map[string]*PostOpNote),
		milestones: make(map[string]*RecoveryMilestone),
	}
}

// stamp returns a strictly increasing creation time so "newest first" is
// stable even when rows are inserted within the same clock tick.
func (s *MemoryStore) stamp() time.Time {
	s.seq++
	return s.now().Add(time.Duration(s.seq) * time.Microsecond)
}

func (s *MemoryStore) GetPatient(ctx context.Context, id string) (*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) SearchPatients(ctx context.Context, filter PatientFilter) ([]Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.filterPatients(filter)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return capSlice(out, filter.Limit), nil
}

func (s *MemoryStore) CountPatients(ctx context.Context, filter PatientFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filterPatients(filter)), nil
}

func (s *MemoryStore) filterPatients(filter PatientFilter) []Patient {
	needle := strings.ToLower(strings.TrimSpace(filter.NameLike))
	out := make([]Patient, 0, len(s.patients))
	for _, p := range s.patients {
		if filter.Department != "" && p.Department != filter.Department {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.FullName), needle) {
			continue
		}
		out = append(out, *p)
	}
	return out
}

func (s *MemoryStore) ListMedicalRecords(ctx context.Context, patientID string, limit int) ([]MedicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []MedicalRecord
	for _, r := range s.records {
		if r.PatientID == patientID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return capSlice(out, limit), nil
}

func (s *MemoryStore) ListSurgeries(ctx context.Context, patientID string, limit int) ([]Surgery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Surgery
	for _, sg := range s.surgeries {
		if sg.PatientID == patientID {
			out = append(out, *sg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SurgeryDate.Equal(out[j].SurgeryDate) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].SurgeryDate.After(out[j].SurgeryDate)
	})
	return capSlice(out, limit), nil
}

func (s *MemoryStore) ListPostOpNotes(ctx context.Context, patientID string, order SortOrder, limit int) ([]PostOpNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []PostOpNote
	for _, n := range s.notes {
		if n.PatientID == patientID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayNumber == out[j].DayNumber {
			return out[i].CreatedAt.Before(out[j].CreatedAt) == (order == Ascending)
		}
		if order == Descending {
			return out[i].DayNumber > out[j].DayNumber
		}
		return out[i].DayNumber < out[j].DayNumber
	})
	return capSlice(out, limit), nil
}

func (s *MemoryStore) ListMilestones(ctx context.Context, patientID string, limit int) ([]RecoveryMilestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RecoveryMilestone
	for _, m := range s.milestones {
		if m.PatientID == patientID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return capSlice(out, limit), nil
}

func (s *MemoryStore) GetMilestone(ctx context.Context, id string) (*RecoveryMilestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.milestones[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) CreatePatient(ctx context.Context, in NewPatient) (*Patient, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.stamp()
	in.applyDefaults(now)
	p := &Patient{
		ID:               uuid.NewString(),
		FullName:         strings.TrimSpace(in.FullName),
		DateOfBirth:      in.DateOfBirth,
		Gender:           in.Gender,
		BloodType:        in.BloodType,
		Phone:            in.Phone,
		Email:            in.Email,
		Address:          in.Address,
		EmergencyContact: in.EmergencyContact,
		Department:       in.Department,
		Status:           in.Status,
		AdmissionDate:    in.AdmissionDate,
		CreatedBy:        in.CreatedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.patients[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) UpdatePatient(ctx context.Context, id string, patch PatientPatch) (*Patient, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	patch.apply(p)
	p.UpdatedAt = s.stamp()
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) AddMedicalRecord(ctx context.Context, in NewMedicalRecord) (*MedicalRecord, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[in.PatientID]; !ok {
		return nil, ErrPatientNotFound
	}
	r := &MedicalRecord{
		ID:            uuid.NewString(),
		PatientID:     in.PatientID,
		Diagnosis:     in.Diagnosis,
		TreatmentPlan: in.TreatmentPlan,
		Medications:   in.Medications,
		Allergies:     in.Allergies,
		History:       in.History,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     s.stamp(),
	}
	s.records[r.ID] = r
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) AddSurgery(ctx context.Context, in NewSurgery) (*Surgery, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[in.PatientID]; !ok {
		return nil, ErrPatientNotFound
	}
	sg := &Surgery{
		ID:              uuid.NewString(),
		PatientID:       in.PatientID,
		SurgeryType:     in.SurgeryType,
		SurgeryDate:     in.SurgeryDate,
		Surgeon:         in.Surgeon,
		DurationMinutes: in.DurationMinutes,
		Notes:           in.Notes,
		CreatedAt:       s.stamp(),
	}
	s.surgeries[sg.ID] = sg
	cp := *sg
	return &cp, nil
}

func (s *MemoryStore) AddPostOpNote(ctx context.Context, in NewPostOpNote) (*PostOpNote, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[in.PatientID]; !ok {
		return nil, ErrPatientNotFound
	}
	if in.SurgeryID != nil {
		sg, ok := s.surgeries[*in.SurgeryID]
		if !ok || sg.PatientID != in.PatientID {
			return nil, &ValidationError{Field: "surgery_id", Message: "must reference a surgery of the same patient"}
		}
	}
	n := &PostOpNote{
		ID:             uuid.NewString(),
		PatientID:      in.PatientID,
		SurgeryID:      in.SurgeryID,
		DayNumber:      in.DayNumber,
		VitalSigns:     in.VitalSigns,
		PainLevel:      in.PainLevel,
		Mobility:       in.Mobility,
		WoundCondition: in.WoundCondition,
		Complications:  in.Complications,
		Notes:          in.Notes,
		CreatedAt:      s.stamp(),
	}
	s.notes[n.ID] = n
	cp := *n
	return &cp, nil
}

func (s *MemoryStore) AddMilestone(ctx context.Context, in NewMilestone) (*RecoveryMilestone, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[in.PatientID]; !ok {
		return nil, ErrPatientNotFound
	}
	m := &RecoveryMilestone{
		ID:            uuid.NewString(),
		PatientID:     in.PatientID,
		MilestoneType: in.MilestoneType,
		Description:   in.Description,
		TargetDate:    in.TargetDate,
		Notes:         in.Notes,
		CreatedAt:     s.stamp(),
	}
	s.milestones[m.ID] = m
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) ToggleMilestone(ctx context.Context, id string, at time.Time) (*RecoveryMilestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.milestones[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.Achieved = !m.Achieved
	if m.Achieved {
		stamp := at
		m.AchievedDate = &stamp
	} else {
		m.AchievedDate = nil
	}
	cp := *m
	return &cp, nil
}

func capSlice[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
