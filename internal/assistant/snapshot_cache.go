package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultSnapshotTTL = time.Minute

// SnapshotCache stores recently built patient snapshots.
type SnapshotCache interface {
	Get(ctx context.Context, patientID string) (*PatientContext, bool, error)
	Set(ctx context.Context, pc *PatientContext) error
	Invalidate(ctx context.Context, patientID string) error
}

// RedisSnapshotCache keeps snapshots in Redis under a short TTL.
type RedisSnapshotCache struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisSnapshotCache {
	if client == nil {
		panic("assistant: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	if tracer == nil {
		tracer = otel.Tracer("postop.internal.assistant.snapshot_cache")
	}
	return &RedisSnapshotCache{redis: client, ttl: ttl, tracer: tracer}
}

func (c *RedisSnapshotCache) Get(ctx context.Context, patientID string) (*PatientContext, bool, error) {
	ctx, span := c.tracer.Start(ctx, "assistant.snapshot_cache.get", trace.WithAttributes(attribute.String("patient_id", patientID)))
	defer span.End()

	data, err := c.redis.Get(ctx, snapshotKey(patientID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		span.RecordError(err)
		return nil, false, fmt.Errorf("assistant: failed to load snapshot: %w", err)
	}
	var pc PatientContext
	if err := json.Unmarshal(data, &pc); err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("assistant: failed to decode snapshot: %w", err)
	}
	return &pc, true, nil
}

func (c *RedisSnapshotCache) Set(ctx context.Context, pc *PatientContext) error {
	ctx, span := c.tracer.Start(ctx, "assistant.snapshot_cache.set", trace.WithAttributes(attribute.String("patient_id", pc.Patient.ID)))
	defer span.End()

	data, err := json.Marshal(pc)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: failed to marshal snapshot: %w", err)
	}
	if err := c.redis.Set(ctx, snapshotKey(pc.Patient.ID), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: failed to persist snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot after a clinical write.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, patientID string) error {
	ctx, span := c.tracer.Start(ctx, "assistant.snapshot_cache.invalidate", trace.WithAttributes(attribute.String("patient_id", patientID)))
	defer span.End()

	if err := c.redis.Del(ctx, snapshotKey(patientID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: failed to invalidate snapshot: %w", err)
	}
	return nil
}

func snapshotKey(patientID string) string {
	return fmt.Sprintf("assistant:context:%s", patientID)
}
