// Package catalog caches archive metadata and digests so repeated lookups
// (operators re-checking the same archive, dashboards polling) skip the
// registry. Entries expire quickly; a supersession must become visible.
package catalog

import (
	"context"
	"sync"
	"time"

	"kycvault/internal/archive"
	"kycvault/internal/platform/config"
	"kycvault/pkg/platform/sentinel"
)

type Catalog interface {
	Put(ctx context.Context, record archive.Record) error
	// Get returns a cached record or sentinel.ErrNotFound on miss/expiry.
	Get(ctx context.Context, name string) (archive.Record, error)
	// Invalidate drops an entry; called on supersession.
	Invalidate(ctx context.Context, name string) error
}

type cachedRecord struct {
	record   archive.Record
	storedAt time.Time
}

// Memory is the fallback catalog when Redis is unconfigured.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cachedRecord
}

func NewMemory() *Memory {
	return &Memory{ttl: config.CatalogTTL, entries: make(map[string]cachedRecord)}
}

func (c *Memory) Put(_ context.Context, record archive.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[record.Name] = cachedRecord{record: record, storedAt: time.Now()}
	return nil
}

func (c *Memory) Get(_ context.Context, name string) (archive.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.entries[name]
	if !ok || time.Since(cached.storedAt) >= c.ttl {
		return archive.Record{}, sentinel.ErrNotFound
	}
	return cached.record, nil
}

func (c *Memory) Invalidate(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
	return nil
}
