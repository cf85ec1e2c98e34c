// internal/engine/quota/memory_store.go
package quota

import (
	"context"
	"sync"
)

// MemoryStore implements Store with in-process counters. One lock per
// tenant, so contention on one tenant never blocks another. Suitable for
// single-replica deployments and tests.
type MemoryStore struct {
	counters sync.Map // tenantID -> *counter
}

type counter struct {
	mu   sync.Mutex
	used int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) CheckAndConsume(_ context.Context, tenantID string, limit int64) (bool, error) {
	v, _ := s.counters.LoadOrStore(tenantID, &counter{})
	c := v.(*counter)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.used >= limit {
		return false, nil
	}
	c.used++
	return true, nil
}

// Used returns the tenant's consumed slots, for diagnostics.
func (s *MemoryStore) Used(tenantID string) int64 {
	v, ok := s.counters.Load(tenantID)
	if !ok {
		return 0
	}
	c := v.(*counter)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}
