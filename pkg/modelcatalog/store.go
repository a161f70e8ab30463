package modelcatalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/providers"
)

// Snapshot is one provider's cached model enumeration.
type Snapshot struct {
	ProviderID  string
	Models      []providers.ModelInfo
	RefreshedAt time.Time
}

// Age returns how long ago the snapshot was refreshed.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.RefreshedAt)
}

// Names returns the model names in enumeration order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.Models))
	for _, m := range s.Models {
		names = append(names, m.Name)
	}
	return names
}

// Store persists model snapshots keyed by provider id.
type Store interface {
	// Save replaces the snapshot for a provider.
	Save(ctx context.Context, snapshot *Snapshot) error

	// Load returns the snapshot for a provider, or nil when none is
	// stored.
	Load(ctx context.Context, providerID string) (*Snapshot, error)

	// Delete removes a provider's snapshot.
	Delete(ctx context.Context, providerID string) error

	// List returns all stored snapshots.
	List(ctx context.Context) ([]*Snapshot, error)

	// Close releases store resources.
	Close() error
}

// MemoryStore is an in-memory Store for single-process, ephemeral use.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]*Snapshot),
	}
}

// Save replaces the snapshot for a provider.
func (m *MemoryStore) Save(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if snapshot.ProviderID == "" {
		return fmt.Errorf("provider id cannot be empty")
	}

	copied := *snapshot
	copied.Models = make([]providers.ModelInfo, len(snapshot.Models))
	copy(copied.Models, snapshot.Models)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshot.ProviderID] = &copied
	return nil
}

// Load returns the snapshot for a provider, or nil when none is stored.
func (m *MemoryStore) Load(ctx context.Context, providerID string) (*Snapshot, error) {
	if providerID == "" {
		return nil, fmt.Errorf("provider id cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot, ok := m.snapshots[providerID]
	if !ok {
		return nil, nil
	}

	copied := *snapshot
	copied.Models = make([]providers.ModelInfo, len(snapshot.Models))
	copy(copied.Models, snapshot.Models)
	return &copied, nil
}

// Delete removes a provider's snapshot.
func (m *MemoryStore) Delete(ctx context.Context, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.snapshots, providerID)
	return nil
}

// List returns all stored snapshots.
func (m *MemoryStore) List(ctx context.Context) ([]*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshots := make([]*Snapshot, 0, len(m.snapshots))
	for _, snapshot := range m.snapshots {
		copied := *snapshot
		copied.Models = make([]providers.ModelInfo, len(snapshot.Models))
		copy(copied.Models, snapshot.Models)
		snapshots = append(snapshots, &copied)
	}
	return snapshots, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
