package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/literaryhaven-backend/internal/pricing"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
)

type keyBuilder func(sessionID string) string

// RegistryParams configures a Registry.
type RegistryParams struct {
	Storage Storage
	KeyFor  keyBuilder
	Policy  pricing.Policy
	Logger  *logger.Logger
	Metrics storageFailureRecorder
	// IdleTTL evicts stores not used for this long. Zero keeps them forever.
	IdleTTL time.Duration
}

type registryEntry struct {
	store    *Store
	lastUsed time.Time
}

// Registry hands out one Store per cart session. Every Open reloads the
// store from storage, so replicas sharing the storage agree on the cart.
type Registry struct {
	mu      sync.Mutex
	params  RegistryParams
	entries map[string]*registryEntry
	now     func() time.Time
}

// NewRegistry validates params and returns an empty registry.
func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.Storage == nil {
		return nil, errors.New("cart storage required")
	}
	if params.KeyFor == nil {
		return nil, errors.New("cart key builder required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &Registry{
		params:  params,
		entries: make(map[string]*registryEntry),
		now:     time.Now,
	}, nil
}

// Open returns the Store for sessionID.
func (r *Registry) Open(ctx context.Context, sessionID string) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.New("cart session required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictIdleLocked(now)

	if entry, ok := r.entries[sessionID]; ok {
		entry.lastUsed = now
		entry.store.Reload(ctx)
		return entry.store, nil
	}

	store, err := NewStore(ctx, StoreParams{
		Key:     r.params.KeyFor(sessionID),
		Storage: r.params.Storage,
		Policy:  r.params.Policy,
		Logger:  r.params.Logger,
		Metrics: r.params.Metrics,
	})
	if err != nil {
		return nil, err
	}
	r.entries[sessionID] = &registryEntry{store: store, lastUsed: now}
	return store, nil
}

// Len reports how many sessions are cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) evictIdleLocked(now time.Time) {
	if r.params.IdleTTL <= 0 {
		return
	}
	for id, entry := range r.entries {
		if now.Sub(entry.lastUsed) > r.params.IdleTTL {
			delete(r.entries, id)
		}
	}
}
