// Package progress exposes import job state to outside observers.
//
// Snapshots live in Redis under "upload_progress:<jobID>" as a small
// JSON object. Writers use a per-job Reporter which enforces the
// lifecycle invariant: once a job reports completed or failed, no
// further writes are accepted for that job.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// KeyPrefix namespaces progress keys in Redis.
const KeyPrefix = "upload_progress:"

// Status is the externally visible lifecycle state of a job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Snapshot is the only job state visible to pollers.
type Snapshot struct {
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// ErrUnknownJob is returned when no snapshot exists for a job id.
var ErrUnknownJob = errors.New("unknown job")

// Key returns the Redis key for a job id.
func Key(jobID string) string {
	return KeyPrefix + jobID
}

// Store reads and writes snapshots in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a Store over an existing Redis client.
// A zero ttl keeps snapshots until Redis evicts them.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Set writes the latest snapshot for a job.
func (s *Store) Set(ctx context.Context, jobID string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, Key(jobID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set progress %s: %w", jobID, err)
	}
	return nil
}

// Get returns the latest snapshot for a job, or ErrUnknownJob when the
// key is absent.
func (s *Store) Get(ctx context.Context, jobID string) (Snapshot, error) {
	data, err := s.client.Get(ctx, Key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrUnknownJob
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get progress %s: %w", jobID, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot %s: %w", jobID, err)
	}
	return snap, nil
}
