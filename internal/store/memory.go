package store

import (
	"context"
	"strings"
	"sync"

	"github.com/vyrodovalexey/subauthgw/internal/subscription"
)

// MemoryStore is an in-memory Store, used for tests and local runs. Keys
// are matched case-insensitively, like the backing store's id lookups.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*subscription.Record
	claims  map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*subscription.Record),
		claims:  make(map[string]string),
	}
}

// Put adds or replaces a record. Records with a federated-identity
// username are also indexed by claim.
func (s *MemoryStore) Put(rec *subscription.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[strings.ToLower(rec.ID)] = rec
	if rec.IsEntraUser && rec.EntraUser != "" {
		s.claims[strings.ToLower(rec.EntraUser)] = strings.ToLower(rec.ID)
	}
}

// FetchByID implements Store.
func (s *MemoryStore) FetchByID(ctx context.Context, id string) (*subscription.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrBackendUnavailable
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[strings.ToLower(id)]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// FetchByClaim implements Store.
func (s *MemoryStore) FetchByClaim(ctx context.Context, claim string) (*subscription.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrBackendUnavailable
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.claims[strings.ToLower(claim)]
	if !ok {
		return nil, ErrNotFound
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
