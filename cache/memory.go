package cache

import (
	"context"
	"sync"

	"github.com/devspace/skills-analyzer/model"
)

// MemoryStore keeps cache records in a process-local map. Used by tests and
// by deployments without a sqlite path configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.CacheRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]model.CacheRecord),
	}
}

func (s *MemoryStore) Get(_ context.Context, username string) (*model.CacheRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, found := s.records[username]

	if !found {
		return nil, nil
	}

	// copy the slice so callers cannot mutate the stored record
	record.Languages = append([]model.LanguageStat(nil), record.Languages...)
	return &record, nil
}

func (s *MemoryStore) Upsert(_ context.Context, record model.CacheRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Languages = append([]model.LanguageStat(nil), record.Languages...)
	s.records[record.Username] = record
	return nil
}
