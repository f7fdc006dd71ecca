// Package snapshot provides stores for exported document snapshots: an S3
// backend for publishing and an in-memory store for tests.
package snapshot

import (
	"context"
	"fmt"
	"sync"
)

// Store persists one HTML snapshot under a name and returns its location.
type Store interface {
	Put(ctx context.Context, name string, html []byte) (string, error)
}

// MemStore keeps snapshots in memory. Safe for concurrent use.
type MemStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string][]byte)}
}

// Put stores a snapshot copy under name.
func (m *MemStore) Put(_ context.Context, name string, html []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(html))
	copy(buf, html)
	m.objects[name] = buf
	return "mem://" + name, nil
}

// Get returns the stored snapshot, or false if absent.
func (m *MemStore) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf, ok := m.objects[name]
	return buf, ok
}

// Len returns the number of stored snapshots.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var _ Store = (*MemStore)(nil)

// ErrEmptySnapshot is returned when a snapshot has no content.
var ErrEmptySnapshot = fmt.Errorf("snapshot: empty content")
