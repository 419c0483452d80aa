// Package memory provides an in-memory document store, primarily for
// tests and experiments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/core/ports/driven"
)

// DocStore keeps document records in a map. Safe for concurrent use.
type DocStore struct {
	mu      sync.RWMutex
	records map[int64]domain.DocumentRecord
	nextID  int64
}

var _ driven.DocumentStore = (*DocStore)(nil)

func NewDocStore() *DocStore {
	return &DocStore{records: make(map[int64]domain.DocumentRecord), nextID: 1}
}

// NextIDs reserves n consecutive ids and returns the first.
func (s *DocStore) NextIDs(_ context.Context, n int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := s.nextID
	s.nextID += int64(n)
	return first, nil
}

// PutBatch inserts the given records.
func (s *DocStore) PutBatch(_ context.Context, records []domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.ID] = r
	}
	return nil
}

// Get returns the record stored under id.
func (s *DocStore) Get(_ context.Context, id int64) (domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return domain.DocumentRecord{}, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}
	return r, nil
}

// GetBatch returns one record per id, in input order. Any absent id
// fails the whole call.
func (s *DocStore) GetBatch(_ context.Context, ids []int64) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]domain.DocumentRecord, 0, len(ids))
	for _, id := range ids {
		r, ok := s.records[id]
		if !ok {
			return nil, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
		}
		records = append(records, r)
	}
	return records, nil
}

// IDs lists every stored record id in ascending order.
func (s *DocStore) IDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Delete removes the records stored under the given ids.
func (s *DocStore) Delete(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.records, id)
	}
	return nil
}

func (s *DocStore) Close() error { return nil }
