package cache

import (
	"context"

	"github.com/devspace/skills-analyzer/model"
)

// Store is the key-value persistence behind the analysis cache. The analysis
// service only relies on these two operations, so an in-memory map (tests,
// single instance) and a shared external store are interchangeable.
type Store interface {
	// Get returns the record for the given username, or nil when absent
	Get(ctx context.Context, username string) (*model.CacheRecord, error)

	// Upsert inserts or replaces the record keyed by its username
	Upsert(ctx context.Context, record model.CacheRecord) error
}
