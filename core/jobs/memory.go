package jobs

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps jobs in process memory, serialized so callers never
// share mutable state with the store.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string][]byte
	revs map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string][]byte), revs: make(map[string]int64)}
}

func (s *MemoryStore) Create(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	job.Revision = 1
	data, err := encode(job)
	if err != nil {
		return err
	}
	s.jobs[job.ID] = data
	s.revs[job.ID] = job.Revision
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.Lock()
	data, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (s *MemoryStore) Save(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev, ok := s.revs[job.ID]
	if !ok {
		return ErrNotFound
	}
	if rev != job.Revision {
		return ErrConflict
	}
	job.Revision++
	data, err := encode(job)
	if err != nil {
		job.Revision--
		return err
	}
	s.jobs[job.ID] = data
	s.revs[job.ID] = job.Revision
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	delete(s.revs, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// KeyedMutex is an in-process Locker with one non-blocking lock per job id.
type KeyedMutex struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{held: make(map[string]bool)}
}

func (k *KeyedMutex) Lock(_ context.Context, id string) (func(), error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.held[id] {
		return nil, ErrLocked
	}
	k.held[id] = true
	var once sync.Once
	return func() {
		once.Do(func() {
			k.mu.Lock()
			delete(k.held, id)
			k.mu.Unlock()
		})
	}, nil
}
