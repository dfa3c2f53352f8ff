package demo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/postop-assistant/internal/clinical"
)

func TestSeedWard(t *testing.T) {
	store := clinical.NewMemoryStore()
	ctx := context.Background()

	ward, err := SeedWard(ctx, store, time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, ward.Patients, 4)

	n, err := store.CountPatients(ctx, clinical.PatientFilter{Department: clinical.DepartmentCardiology})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	priya := ward.PatientID("Priya Sharma")
	require.NotEmpty(t, priya)
	notes, err := store.ListPostOpNotes(ctx, priya, clinical.Descending, 1)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, 2, notes[0].DayNumber)
	require.NotNil(t, notes[0].SurgeryID)

	milestones, err := store.ListMilestones(ctx, priya, 0)
	require.NoError(t, err)
	achieved := 0
	for _, m := range milestones {
		if m.Achieved {
			achieved++
		}
	}
	assert.Equal(t, 1, achieved)
	assert.Empty(t, (*Ward)(nil).PatientID("Priya Sharma"))
}
