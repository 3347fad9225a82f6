package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/literaryhaven-backend/internal/pricing"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
)

type storageFailureRecorder interface {
	IncStorageFailure(op string)
}

// StoreParams configures a cart Store.
type StoreParams struct {
	Key     string
	Storage Storage
	Policy  pricing.Policy
	Logger  *logger.Logger
	Metrics storageFailureRecorder
}

// Store holds one session's line items. Mutations are serialised, persisted
// to Storage, re-priced and then published to observers. Storage failures
// are logged and never returned: the in-memory state stays authoritative.
type Store struct {
	mu        sync.Mutex
	key       string
	storage   Storage
	policy    pricing.Policy
	logg      *logger.Logger
	metrics   storageFailureRecorder
	items     []LineItem
	unsynced  bool
	observers map[int]Observer
	nextObsID int
}

// NewStore builds a store and restores any persisted cart under params.Key.
// Unreadable or corrupt records yield an empty cart.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Key == "" {
		return nil, errors.New("cart key required")
	}
	if params.Storage == nil {
		return nil, errors.New("cart storage required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	s := &Store{
		key:       params.Key,
		storage:   params.Storage,
		policy:    params.Policy,
		logg:      params.Logger,
		metrics:   params.Metrics,
		observers: make(map[int]Observer),
	}
	if items, ok := s.load(ctx); ok {
		s.items = items
	}
	return s, nil
}

// Reload replaces the in-memory items with the persisted record so writes
// made by other processes are seen. It is skipped while the last write
// failed, and a failed or corrupt read keeps the current items.
func (s *Store) Reload(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unsynced {
		if items, ok := s.load(ctx); ok {
			s.items = items
		}
	}
	return s.snapshotLocked()
}

// load reads the persisted record. ok is false when the read failed or the
// record is corrupt.
func (s *Store) load(ctx context.Context) ([]LineItem, bool) {
	ctx = s.logg.WithField(ctx, "cart_key", s.key)
	raw, found, err := s.storage.Read(ctx, s.key)
	if err != nil {
		s.recordFailure("read")
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart read failed")
		return nil, false
	}
	if !found || raw == "" {
		return nil, true
	}
	items, err := decodeItems(raw)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "ignoring corrupt cart record")
		return nil, false
	}
	return sanitize(items), true
}

// Snapshot returns the current items and derived totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// AddItem adds quantity units of product, capping the line at the product's
// stock. The line's product data is refreshed from product. Non-positive
// quantities are ignored.
func (s *Store) AddItem(ctx context.Context, product Product, quantity int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		return s.snapshotLocked()
	}

	next := cloneItems(s.items)
	pos := indexOf(next, product.ID)
	switch {
	case pos >= 0:
		next[pos].Product = product
		next[pos].Quantity = clampQuantity(next[pos].Quantity+quantity, product.StockQuantity)
		if next[pos].Quantity < 1 {
			next = append(next[:pos], next[pos+1:]...)
		}
	default:
		clamped := clampQuantity(quantity, product.StockQuantity)
		if clamped < 1 {
			return s.snapshotLocked()
		}
		next = append(next, LineItem{Product: product, Quantity: clamped})
	}
	return s.commitLocked(ctx, next)
}

// UpdateQuantity sets the line's quantity, capped at stock. A quantity of
// zero or less removes the line; an unknown product is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := indexOf(s.items, productID)
	if pos < 0 {
		return s.snapshotLocked()
	}
	next := cloneItems(s.items)
	clamped := clampQuantity(quantity, next[pos].Product.StockQuantity)
	if clamped < 1 {
		next = append(next[:pos], next[pos+1:]...)
	} else {
		next[pos].Quantity = clamped
	}
	return s.commitLocked(ctx, next)
}

// RemoveItem deletes the line for productID; an unknown product is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID uuid.UUID) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := indexOf(s.items, productID)
	if pos < 0 {
		return s.snapshotLocked()
	}
	next := cloneItems(s.items)
	next = append(next[:pos], next[pos+1:]...)
	return s.commitLocked(ctx, next)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, nil)
}

// IsInCart reports whether productID has a line.
func (s *Store) IsInCart(productID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.items, productID) >= 0
}

// QuantityOf returns the line quantity for productID, or 0.
func (s *Store) QuantityOf(productID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos := indexOf(s.items, productID); pos >= 0 {
		return s.items[pos].Quantity
	}
	return 0
}

// Subscribe registers fn for post-mutation snapshots and returns a function
// that removes it. Observers run synchronously and must not call back into
// the store.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) commitLocked(ctx context.Context, next []LineItem) Snapshot {
	s.items = next
	s.persistLocked(ctx)
	snap := s.snapshotLocked()
	for _, fn := range s.observers {
		fn(snap)
	}
	return snap
}

func (s *Store) persistLocked(ctx context.Context) {
	payload, err := encodeItems(s.items)
	if err == nil {
		err = s.storage.Write(ctx, s.key, payload)
	}
	s.unsynced = err != nil
	if err != nil {
		s.recordFailure("write")
		ctx = s.logg.WithFields(ctx, map[string]any{"cart_key": s.key, "error": err.Error()})
		s.logg.Warn(ctx, "cart persist failed")
	}
}

func (s *Store) snapshotLocked() Snapshot {
	items := cloneItems(s.items)
	return Snapshot{
		Items:  items,
		Totals: pricing.Calculate(pricingLines(items), s.policy),
	}
}

func (s *Store) recordFailure(op string) {
	if s.metrics != nil {
		s.metrics.IncStorageFailure(op)
	}
}

func indexOf(items []LineItem, productID uuid.UUID) int {
	for i, item := range items {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}
