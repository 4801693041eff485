package glossary

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore(initial ...Entry) *MemoryStore {
	s := &MemoryStore{}
	s.entries = append(s.entries, initial...)
	return s
}

func (s *MemoryStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *MemoryStore) Lookup(ctx context.Context, source, target string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Lookup(s.entries, source, target), nil
}

func (s *MemoryStore) Add(ctx context.Context, e Entry) (Entry, error) {
	e, err := prepare(e)
	if err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch Patch) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID != id {
			continue
		}
		updated, err := prepare(patch.apply(e))
		if err != nil {
			return Entry{}, err
		}
		s.entries[i] = updated
		return updated, nil
	}
	return Entry{}, ErrNotFound
}

func (s *MemoryStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Close() error { return nil }
