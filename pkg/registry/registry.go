package registry

import (
	"fmt"
	"log/slog"
	"sync"

	"mercator-hq/ganymede/pkg/providers"
)

// Registry holds provider adapters keyed by id and tracks which one is
// active. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]providers.Provider
	order    []string
	activeID string
	logger   *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		adapters: make(map[string]providers.Provider),
		logger:   logger,
	}
}

// Register adds an adapter under its configured id. If an adapter with the
// same id already exists, it is replaced and the old one is closed;
// replacement keeps the original registration position.
func (r *Registry) Register(p providers.Provider) error {
	if p == nil {
		return fmt.Errorf("cannot register nil provider")
	}
	id := p.Config().ID
	if id == "" {
		return fmt.Errorf("cannot register provider with empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.adapters[id]; ok {
		r.logger.Warn("replacing registered provider", "id", id)
		if err := existing.Close(); err != nil {
			r.logger.Error("error closing replaced provider", "id", id, "error", err)
		}
	} else {
		r.order = append(r.order, id)
	}
	r.adapters[id] = p

	r.logger.Info("provider registered",
		"id", id,
		"type", p.Config().Type,
		"total_providers", len(r.adapters),
	)
	return nil
}

// Unregister removes an adapter and closes it. If the removed adapter was
// active, the registry is left with no active provider.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.adapters[id]
	if !ok {
		return fmt.Errorf("provider %q not registered", id)
	}

	if err := p.Close(); err != nil {
		r.logger.Error("error closing provider", "id", id, "error", err)
	}

	delete(r.adapters, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.activeID == id {
		r.activeID = ""
	}

	r.logger.Info("provider unregistered",
		"id", id,
		"remaining_providers", len(r.adapters),
	)
	return nil
}

// Has reports whether an adapter with the given id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.adapters[id]
	return ok
}

// Get returns the adapter registered under id.
func (r *Registry) Get(id string) (providers.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("provider %q not registered", id)
	}
	return p, nil
}

// List returns all registered ids in registration order. The returned
// slice is a copy and safe to modify.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// SetActive selects the active provider. It fails when the id is not
// registered, leaving the previous selection in place.
func (r *Registry) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.adapters[id]; !ok {
		return fmt.Errorf("provider %q not registered", id)
	}
	r.activeID = id

	r.logger.Info("active provider changed", "id", id)
	return nil
}

// Active returns the currently active adapter, or false when no selection
// has been made.
func (r *Registry) Active() (providers.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.adapters[r.activeID]
	return p, ok
}

// ActiveID returns the id of the active provider, or the empty string.
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.activeID
}

// NextAvailable returns the first registered adapter whose id is not in
// the exclude list. Selection follows registration order, so repeated
// calls with the same exclusions are deterministic.
func (r *Registry) NextAvailable(exclude ...string) (providers.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	for _, id := range r.order {
		if _, skip := excluded[id]; skip {
			continue
		}
		return r.adapters[id], true
	}
	return nil, false
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.adapters)
}

// Close closes every registered adapter and clears the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for id, p := range r.adapters {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %q: %w", id, err))
		}
	}

	r.adapters = make(map[string]providers.Provider)
	r.order = nil
	r.activeID = ""

	if len(errs) > 0 {
		return fmt.Errorf("errors closing providers: %v", errs)
	}
	return nil
}
