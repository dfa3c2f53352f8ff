package assistant

import (
	"context"
	"errors"

	"github.com/wolfman30/postop-assistant/internal/clinical"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

const (
	listingCap     = 10
	recentNotesCap = 5
)

// fetcher wraps clinical reads so storage failures stop here: they are
// logged and returned as nil, which the formatter renders as "no data".
type fetcher struct {
	store  clinical.Reader
	logger *logging.Logger
}

func (f fetcher) logFailure(op, patientID string, err error) {
	if errors.Is(err, clinical.ErrPatientNotFound) || errors.Is(err, clinical.ErrNotFound) {
		return
	}
	f.logger.Warn("assistant fetch failed", "op", op, "patient_id", patientID, "error", err)
}

func (f fetcher) patient(ctx context.Context, id string) *clinical.Patient {
	p, err := f.store.GetPatient(ctx, id)
	if err != nil {
		f.logFailure("get_patient", id, err)
		return nil
	}
	return p
}

func (f fetcher) searchByName(ctx context.Context, name string) []clinical.Patient {
	patients, err := f.store.SearchPatients(ctx, clinical.PatientFilter{NameLike: name, Limit: listingCap})
	if err != nil {
		f.logFailure("search_patients", "", err)
		return nil
	}
	return patients
}

func (f fetcher) byDepartment(ctx context.Context, dept clinical.Department) []clinical.Patient {
	patients, err := f.store.SearchPatients(ctx, clinical.PatientFilter{Department: dept, Limit: listingCap})
	if err != nil {
		f.logFailure("list_department", "", err)
		return nil
	}
	return patients
}

// count returns -1 when the store could not answer.
func (f fetcher) count(ctx context.Context, filter clinical.PatientFilter) int {
	n, err := f.store.CountPatients(ctx, filter)
	if err != nil {
		f.logFailure("count_patients", "", err)
		return -1
	}
	return n
}

func (f fetcher) latestRecord(ctx context.Context, patientID string) *clinical.MedicalRecord {
	records, err := f.store.ListMedicalRecords(ctx, patientID, 1)
	if err != nil {
		f.logFailure("latest_record", patientID, err)
		return nil
	}
	if len(records) == 0 {
		return nil
	}
	return &records[0]
}

func (f fetcher) surgeries(ctx context.Context, patientID string) []clinical.Surgery {
	surgeries, err := f.store.ListSurgeries(ctx, patientID, listingCap)
	if err != nil {
		f.logFailure("list_surgeries", patientID, err)
		return nil
	}
	return surgeries
}

// recentNotes returns the newest post-op days, displayed in day order.
func (f fetcher) recentNotes(ctx context.Context, patientID string) []clinical.PostOpNote {
	notes, err := f.store.ListPostOpNotes(ctx, patientID, clinical.Descending, recentNotesCap)
	if err != nil {
		f.logFailure("recent_notes", patientID, err)
		return nil
	}
	for i, j := 0, len(notes)-1; i < j; i, j = i+1, j-1 {
		notes[i], notes[j] = notes[j], notes[i]
	}
	return notes
}

func (f fetcher) latestNote(ctx context.Context, patientID string) *clinical.PostOpNote {
	notes, err := f.store.ListPostOpNotes(ctx, patientID, clinical.Descending, 1)
	if err != nil {
		f.logFailure("latest_note", patientID, err)
		return nil
	}
	if len(notes) == 0 {
		return nil
	}
	return &notes[0]
}

func (f fetcher) milestones(ctx context.Context, patientID string) []clinical.RecoveryMilestone {
	milestones, err := f.store.ListMilestones(ctx, patientID, listingCap)
	if err != nil {
		f.logFailure("list_milestones", patientID, err)
		return nil
	}
	return milestones
}
