package assistant

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/postop-assistant/internal/clinical"
)

func TestSnapshotBuilder_Build(t *testing.T) {
	w := seedWard(t)
	b := NewSnapshotBuilder(w.store, nil, testLogger())

	pc, err := b.Build(context.Background(), w.priya.ID)
	require.NoError(t, err)
	assert.Equal(t, "Priya Sharma", pc.Patient.FullName)
	assert.Equal(t, time.Now().UTC().Year()-1990, pc.Age)
	require.NotNil(t, pc.LatestRecord)
	assert.Equal(t, "Coronary artery disease", pc.LatestRecord.Diagnosis)
	assert.Len(t, pc.Surgeries, 1)
	require.NotNil(t, pc.LatestNote)
	assert.Equal(t, 2, pc.LatestNote.DayNumber)
	assert.Len(t, pc.Milestones, 2)
	assert.Empty(t, pc.Missing)

	text := pc.PromptText()
	assert.Contains(t, text, "Patient: Priya Sharma")
	assert.Contains(t, text, "Latest post-op day 2: BP 124/80")
	assert.Contains(t, text, "Recovery milestones: 1 of 2 achieved")
}

func TestSnapshotBuilder_PartialFailureLeavesSectionMissing(t *testing.T) {
	w := seedWard(t)
	reader := flakyReader{Reader: w.store, fail: map[string]bool{"surgeries": true, "milestones": true}}
	b := NewSnapshotBuilder(reader, nil, testLogger())

	pc, err := b.Build(context.Background(), w.priya.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{SectionSurgeries, SectionMilestones}, pc.Missing)
	assert.Empty(t, pc.Surgeries)
	require.NotNil(t, pc.LatestRecord)
	assert.Contains(t, pc.PromptText(), "Unavailable sections:")
}

func TestSnapshotBuilder_MissingPatientFails(t *testing.T) {
	w := seedWard(t)
	b := NewSnapshotBuilder(w.store, nil, testLogger())

	_, err := b.Build(context.Background(), "nope")
	assert.ErrorIs(t, err, clinical.ErrPatientNotFound)
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *RedisSnapshotCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisSnapshotCache(client, 0, nil)
}

func TestRedisSnapshotCache_RoundTripAndInvalidate(t *testing.T) {
	mr, cache := newTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)

	pc := &PatientContext{
		Patient:      clinical.Patient{ID: "p1", FullName: "Priya Sharma"},
		Age:          35,
		LatestRecord: &clinical.MedicalRecord{Diagnosis: "Hypertension"},
	}
	require.NoError(t, cache.Set(ctx, pc))
	assert.True(t, mr.Exists("assistant:context:p1"))
	assert.Equal(t, time.Minute, mr.TTL("assistant:context:p1"))

	got, ok, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Hypertension", got.LatestRecord.Diagnosis)

	require.NoError(t, cache.Invalidate(ctx, "p1"))
	assert.False(t, mr.Exists("assistant:context:p1"))
}

func TestSnapshotBuilder_UsesCache(t *testing.T) {
	w := seedWard(t)
	mr, cache := newTestCache(t)
	b := NewSnapshotBuilder(w.store, cache, testLogger())
	ctx := context.Background()

	_, err := b.Build(ctx, w.priya.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists("assistant:context:"+w.priya.ID))

	// Served from cache even when storage is down.
	b.store = flakyReader{Reader: w.store, fail: map[string]bool{"patient": true}}
	pc, err := b.Build(ctx, w.priya.ID)
	require.NoError(t, err)
	assert.Equal(t, "Priya Sharma", pc.Patient.FullName)

	require.NoError(t, cache.Invalidate(ctx, w.priya.ID))
	_, err = b.Build(ctx, w.priya.ID)
	assert.ErrorIs(t, err, errStorageDown)
}

func TestSnapshotBuilder_IncompleteSnapshotNotCached(t *testing.T) {
	w := seedWard(t)
	mr, cache := newTestCache(t)
	reader := flakyReader{Reader: w.store, fail: map[string]bool{"milestones": true}}
	b := NewSnapshotBuilder(reader, cache, testLogger())

	_, err := b.Build(context.Background(), w.priya.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists("assistant:context:"+w.priya.ID))
}

func TestRedisSnapshotCache_GetError(t *testing.T) {
	mr, cache := newTestCache(t)
	mr.Close()
	_, _, err := cache.Get(context.Background(), "p1")
	assert.Error(t, err)
}
