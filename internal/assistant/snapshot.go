package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/postop-assistant/internal/clinical"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

// Snapshot section names reported in PatientContext.Missing.
const (
	SectionRecord     = "medical_record"
	SectionSurgeries  = "surgeries"
	SectionLatestNote = "latest_note"
	SectionMilestones = "milestones"
)

// PatientContext is the structured summary handed to the external assistant.
type PatientContext struct {
	Patient      clinical.Patient             `json:"patient"`
	Age          int                          `json:"age"`
	LatestRecord *clinical.MedicalRecord      `json:"latest_record,omitempty"`
	Surgeries    []clinical.Surgery           `json:"surgeries,omitempty"`
	LatestNote   *clinical.PostOpNote         `json:"latest_note,omitempty"`
	Milestones   []clinical.RecoveryMilestone `json:"milestones,omitempty"`

	// Missing lists sections whose reads failed.
	Missing []string  `json:"missing,omitempty"`
	BuiltAt time.Time `json:"built_at"`
}

// PromptText renders the snapshot as labelled lines for the model prompt.
func (pc *PatientContext) PromptText() string {
	var b strings.Builder
	p := pc.Patient
	fmt.Fprintf(&b, "Patient: %s\n", p.FullName)
	fmt.Fprintf(&b, "Age: %d | Gender: %s | Blood type: %s\n", pc.Age, orNotRecorded(p.Gender), orNotRecorded(p.BloodType))
	fmt.Fprintf(&b, "Department: %s | Status: %s | Admitted: %s\n", p.Department.Title(), p.Status, formatDate(p.AdmissionDate))
	if rec := pc.LatestRecord; rec != nil {
		fmt.Fprintf(&b, "Diagnosis: %s\n", rec.Diagnosis)
		fmt.Fprintf(&b, "Medications: %s\n", orNotRecorded(rec.Medications))
		fmt.Fprintf(&b, "Allergies: %s\n", orNotRecorded(rec.Allergies))
	}
	if len(pc.Surgeries) > 0 {
		parts := make([]string, 0, len(pc.Surgeries))
		for _, s := range pc.Surgeries {
			parts = append(parts, fmt.Sprintf("%s (%s)", s.SurgeryType, formatDate(s.SurgeryDate)))
		}
		fmt.Fprintf(&b, "Surgeries: %s\n", strings.Join(parts, ", "))
	}
	if n := pc.LatestNote; n != nil {
		fmt.Fprintf(&b, "Latest post-op day %d: %s, pain %d/10, mobility: %s, wound: %s, complications: %s\n",
			n.DayNumber, formatVitalSigns(n.VitalSigns), n.PainLevel,
			orNotRecorded(n.Mobility), orNotRecorded(n.WoundCondition), orNotRecorded(n.Complications))
	}
	if len(pc.Milestones) > 0 {
		fmt.Fprintf(&b, "Recovery milestones: %d of %d achieved\n", achievedCount(pc.Milestones), len(pc.Milestones))
	}
	if len(pc.Missing) > 0 {
		fmt.Fprintf(&b, "Unavailable sections: %s\n", strings.Join(pc.Missing, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// SnapshotBuilder assembles a PatientContext, consulting the cache first.
type SnapshotBuilder struct {
	store  clinical.Reader
	cache  SnapshotCache
	logger *logging.Logger
	now    func() time.Time
}

// NewSnapshotBuilder creates a builder. cache may be nil.
func NewSnapshotBuilder(store clinical.Reader, cache SnapshotCache, logger *logging.Logger) *SnapshotBuilder {
	if logger == nil {
		logger = logging.Default()
	}
	return &SnapshotBuilder{
		store:  store,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Build loads the patient and fans out the section reads. Only a missing
// patient fails the build; a failed section is left empty and listed in
// Missing.
func (b *SnapshotBuilder) Build(ctx context.Context, patientID string) (*PatientContext, error) {
	if b.cache != nil {
		if pc, ok, err := b.cache.Get(ctx, patientID); err != nil {
			b.logger.Warn("snapshot cache read failed", "patient_id", patientID, "error", err)
		} else if ok {
			return pc, nil
		}
	}

	p, err := b.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("assistant: load patient for snapshot: %w", err)
	}
	now := b.now()
	pc := &PatientContext{Patient: *p, Age: p.Age(now), BuiltAt: now}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	missing := func(section string, err error) {
		b.logger.Warn("snapshot section unavailable", "patient_id", patientID, "section", section, "error", err)
		mu.Lock()
		pc.Missing = append(pc.Missing, section)
		mu.Unlock()
	}

	g.Go(func() error {
		records, err := b.store.ListMedicalRecords(ctx, patientID, 1)
		if err != nil {
			missing(SectionRecord, err)
			return nil
		}
		if len(records) > 0 {
			pc.LatestRecord = &records[0]
		}
		return nil
	})
	g.Go(func() error {
		surgeries, err := b.store.ListSurgeries(ctx, patientID, listingCap)
		if err != nil {
			missing(SectionSurgeries, err)
			return nil
		}
		pc.Surgeries = surgeries
		return nil
	})
	g.Go(func() error {
		notes, err := b.store.ListPostOpNotes(ctx, patientID, clinical.Descending, 1)
		if err != nil {
			missing(SectionLatestNote, err)
			return nil
		}
		if len(notes) > 0 {
			pc.LatestNote = &notes[0]
		}
		return nil
	})
	g.Go(func() error {
		milestones, err := b.store.ListMilestones(ctx, patientID, listingCap)
		if err != nil {
			missing(SectionMilestones, err)
			return nil
		}
		pc.Milestones = milestones
		return nil
	})
	_ = g.Wait()

	// Incomplete snapshots are not cached so the next request retries.
	if b.cache != nil && len(pc.Missing) == 0 {
		if err := b.cache.Set(ctx, pc); err != nil {
			b.logger.Warn("snapshot cache write failed", "patient_id", patientID, "error", err)
		}
	}
	return pc, nil
}
