package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. Records are cloned on the way in and
// on the way out, so callers never share memory with the stored copy.
type MemoryStore[S Entity[S]] struct {
	mu      sync.RWMutex
	records map[string]Record[S]
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore[S Entity[S]]() *MemoryStore[S] {
	return &MemoryStore[S]{records: make(map[string]Record[S])}
}

func (s *MemoryStore[S]) Get(_ context.Context, id string) (Record[S], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record[S]{}, fmt.Errorf("%w: '%s'", ErrNotFound, id)
	}
	return copyRecord(rec), nil
}

func (s *MemoryStore[S]) Insert(_ context.Context, rec Record[S]) error {
	id := rec.Entity.EntityID()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; ok {
		return fmt.Errorf("%w: '%s'", ErrAlreadyExists, id)
	}
	s.records[id] = copyRecord(rec)
	return nil
}

func (s *MemoryStore[S]) CompareAndSwap(_ context.Context, rec Record[S], expected int64) error {
	id := rec.Entity.EntityID()
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: '%s'", ErrNotFound, id)
	}
	if cur.Version != expected {
		return fmt.Errorf("%w: '%s' at version %d, expected %d", ErrConcurrentModification, id, cur.Version, expected)
	}
	s.records[id] = copyRecord(rec)
	return nil
}

// Filter returns copies of every record whose entity matches, ordered by id.
func (s *MemoryStore[S]) Filter(match func(S) bool) []Record[S] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record[S], 0)
	for _, rec := range s.records {
		if match(rec.Entity) {
			out = append(out, copyRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Entity.EntityID() < out[j].Entity.EntityID()
	})
	return out
}

// Len returns the number of stored records.
func (s *MemoryStore[S]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func copyRecord[S Entity[S]](rec Record[S]) Record[S] {
	return Record[S]{Entity: rec.Entity.Clone(), Version: rec.Version, Generation: rec.Generation}
}
