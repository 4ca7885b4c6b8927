package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for unknown or expired job ids.
	ErrNotFound = errors.New("job not found")
	// ErrConflict is returned when a Save races another writer.
	ErrConflict = errors.New("job was modified concurrently")
	// ErrLocked is returned when another batch of the same job is in flight.
	ErrLocked = errors.New("job is locked by another batch")
)

// Store persists jobs across process activations.
// Save is a compare-and-swap on Revision: it fails with ErrConflict when the
// stored revision differs from job.Revision, and bumps job.Revision on success.
type Store interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Save(ctx context.Context, job *Job) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Locker serializes batches of one job. Lock fails fast with ErrLocked.
type Locker interface {
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

func encode(job *Job) ([]byte, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}
	return data, nil
}

func decode(data []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	job.initMaps()
	return &job, nil
}
