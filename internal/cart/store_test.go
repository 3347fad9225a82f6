package cart

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/literaryhaven-backend/internal/pricing"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
)

const testKey = "lh:literary_haven_cart:test"

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
}

func book(price string, stock int) Product {
	return Product{
		ID:            uuid.New(),
		Title:         "Book " + price,
		Author:        "Author",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
}

func newTestStore(t *testing.T, storage Storage) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), StoreParams{
		Key:     testKey,
		Storage: storage,
		Policy:  pricing.DefaultPolicy(),
		Logger:  testLogger(),
	})
	require.NoError(t, err)
	return store
}

type failingStorage struct {
	readErr  error
	writeErr error
	raw      string
	found    bool
	writes   int
}

func (f *failingStorage) Read(context.Context, string) (string, bool, error) {
	return f.raw, f.found, f.readErr
}

func (f *failingStorage) Write(context.Context, string, string) error {
	f.writes++
	return f.writeErr
}

type countingRecorder struct {
	ops []string
}

func (c *countingRecorder) IncStorageFailure(op string) {
	c.ops = append(c.ops, op)
}

func TestAddItemClampsToStock(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())
	p := book("10.00", 3)

	store.AddItem(ctx, p, 2)
	snap := store.AddItem(ctx, p, 5)

	require.Len(t, snap.Items, 1)
	require.Equal(t, 3, snap.Items[0].Quantity)
	require.Equal(t, 3, snap.Totals.TotalItemCount)
}

func TestAddItemClampsOnInsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())
	p := book("10.00", 2)

	snap := store.AddItem(ctx, p, 9)
	require.Equal(t, 2, snap.Items[0].Quantity)
}

func TestAddItemOutOfStockIsNotInserted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())

	snap := store.AddItem(ctx, book("10.00", 0), 1)
	require.True(t, snap.IsEmpty())

	snap = store.AddItem(ctx, book("10.00", 4), 0)
	require.True(t, snap.IsEmpty())
}

func TestAddItemRefreshesProductData(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())
	p := book("10.00", 5)
	store.AddItem(ctx, p, 1)

	p.Price = decimal.RequireFromString("12.00")
	snap := store.AddItem(ctx, p, 1)

	require.True(t, snap.Items[0].Product.Price.Equal(decimal.RequireFromString("12.00")))
	require.True(t, snap.Totals.Subtotal.Equal(decimal.RequireFromString("24.00")))
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())
	a := book("10.00", 5)
	b := book("20.00", 5)
	store.AddItem(ctx, a, 2)
	store.AddItem(ctx, b, 1)

	snap := store.UpdateQuantity(ctx, a.ID, 99)
	require.Equal(t, 5, store.QuantityOf(a.ID))
	require.Equal(t, 6, snap.Totals.TotalItemCount)

	snap = store.UpdateQuantity(ctx, a.ID, 0)
	require.Len(t, snap.Items, 1)
	require.Equal(t, b.ID, snap.Items[0].Product.ID)
	require.False(t, store.IsInCart(a.ID))
	require.True(t, snap.Totals.Subtotal.Equal(decimal.RequireFromString("20.00")))
	require.True(t, snap.Totals.Shipping.Equal(decimal.RequireFromString("4.99")))

	before := store.Snapshot()
	after := store.UpdateQuantity(ctx, uuid.New(), 3)
	require.Equal(t, before, after)
}

func TestRemoveItemAndClear(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())
	a := book("10.00", 5)
	store.AddItem(ctx, a, 2)

	snap := store.RemoveItem(ctx, uuid.New())
	require.Len(t, snap.Items, 1)

	snap = store.RemoveItem(ctx, a.ID)
	require.True(t, snap.IsEmpty())

	store.AddItem(ctx, a, 2)
	snap = store.Clear(ctx)
	require.True(t, snap.IsEmpty())
	require.Equal(t, 0, snap.Totals.TotalItemCount)
	require.True(t, snap.Totals.Subtotal.IsZero())
	require.True(t, snap.Totals.Shipping.IsZero())
	require.True(t, snap.Totals.GrandTotal.IsZero())
}

func TestScenarioTwoBooksShipFree(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())
	store.AddItem(ctx, book("10.00", 10), 2)
	snap := store.AddItem(ctx, book("20.00", 10), 1)

	require.True(t, snap.Totals.Subtotal.Equal(decimal.RequireFromString("40")))
	require.True(t, snap.Totals.Shipping.IsZero())
	require.True(t, snap.Totals.GrandTotal.Equal(decimal.RequireFromString("40")))
}

func TestRestoreRoundTripReproducesTotals(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := newTestStore(t, storage)
	store.AddItem(ctx, book("12.50", 4), 3)
	saved := store.AddItem(ctx, book("7.25", 2), 1)

	restored := newTestStore(t, storage)
	require.Equal(t, saved.Totals.TotalItemCount, restored.Snapshot().Totals.TotalItemCount)
	require.True(t, saved.Totals.GrandTotal.Equal(restored.Snapshot().Totals.GrandTotal))
	require.Len(t, restored.Snapshot().Items, 2)
}

func TestRestoreCorruptRecordStartsEmpty(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Write(context.Background(), testKey, "{not json"))

	store := newTestStore(t, storage)
	require.True(t, store.Snapshot().IsEmpty())
}

func TestRestoreReadFailureStartsEmpty(t *testing.T) {
	recorder := &countingRecorder{}
	store, err := NewStore(context.Background(), StoreParams{
		Key:     testKey,
		Storage: &failingStorage{readErr: errors.New("connection refused")},
		Policy:  pricing.DefaultPolicy(),
		Logger:  testLogger(),
		Metrics: recorder,
	})
	require.NoError(t, err)
	require.True(t, store.Snapshot().IsEmpty())
	require.Equal(t, []string{"read"}, recorder.ops)
}

func TestRestoreSanitizesItems(t *testing.T) {
	p := book("5.00", 2)
	raw, err := encodeItems([]LineItem{
		{Product: p, Quantity: 1},
		{Product: p, Quantity: 4},
		{Product: book("3.00", 5), Quantity: 0},
		{Product: book("3.00", 0), Quantity: 1},
	})
	require.NoError(t, err)

	store := newTestStore(t, &failingStorage{raw: raw, found: true})
	snap := store.Snapshot()
	require.Len(t, snap.Items, 1)
	require.Equal(t, 2, snap.Items[0].Quantity)
}

func TestRestoreAcceptsBareItemArray(t *testing.T) {
	storage := NewMemoryStorage()
	raw := `[{"product":{"id":"` + uuid.NewString() + `","title":"Dune","author":"Herbert","price":"9.99","stock_quantity":3},"quantity":2}]`
	require.NoError(t, storage.Write(context.Background(), testKey, raw))

	store := newTestStore(t, storage)
	require.Equal(t, 2, store.Snapshot().Totals.TotalItemCount)
}

func TestWriteFailureKeepsInMemoryState(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{writeErr: errors.New("redis down")}
	recorder := &countingRecorder{}
	store, err := NewStore(ctx, StoreParams{
		Key:     testKey,
		Storage: storage,
		Policy:  pricing.DefaultPolicy(),
		Logger:  testLogger(),
		Metrics: recorder,
	})
	require.NoError(t, err)

	p := book("10.00", 5)
	snap := store.AddItem(ctx, p, 2)

	require.Equal(t, 2, snap.Totals.TotalItemCount)
	require.Equal(t, 2, store.QuantityOf(p.ID))
	require.Equal(t, 1, storage.writes)
	require.Equal(t, []string{"write"}, recorder.ops)
}

func TestObserversSeeRecomputedSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())

	var seen []Snapshot
	unsubscribe := store.Subscribe(func(s Snapshot) { seen = append(seen, s) })

	p := book("10.00", 5)
	store.AddItem(ctx, p, 2)
	store.UpdateQuantity(ctx, p.ID, 3)

	require.Len(t, seen, 2)
	require.Equal(t, 2, seen[0].Totals.TotalItemCount)
	require.Equal(t, 3, seen[1].Totals.TotalItemCount)
	require.True(t, seen[1].Totals.Subtotal.Equal(decimal.RequireFromString("30")))

	unsubscribe()
	store.Clear(ctx)
	require.Len(t, seen, 2)
}

func TestSnapshotIsImmutable(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())
	p := book("10.00", 5)
	snap := store.AddItem(ctx, p, 1)

	snap.Items[0].Quantity = 99
	require.Equal(t, 1, store.QuantityOf(p.ID))
}

func TestRandomMutationsKeepInvariants(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, NewMemoryStorage())
	rng := rand.New(rand.NewSource(42))

	products := []Product{book("4.99", 1), book("10.00", 3), book("15.50", 7), book("1.00", 0)}
	for i := 0; i < 500; i++ {
		p := products[rng.Intn(len(products))]
		var snap Snapshot
		switch rng.Intn(3) {
		case 0:
			snap = store.AddItem(ctx, p, rng.Intn(6))
		case 1:
			snap = store.UpdateQuantity(ctx, p.ID, rng.Intn(10)-2)
		default:
			snap = store.RemoveItem(ctx, p.ID)
		}

		sum := 0
		for _, item := range snap.Items {
			require.GreaterOrEqual(t, item.Quantity, 1)
			require.LessOrEqual(t, item.Quantity, item.Product.StockQuantity)
			sum += item.Quantity
		}
		require.Equal(t, sum, snap.Totals.TotalItemCount)
	}
}

func TestNewStoreValidatesParams(t *testing.T) {
	_, err := NewStore(context.Background(), StoreParams{Storage: NewMemoryStorage(), Logger: testLogger()})
	require.Error(t, err)
	_, err = NewStore(context.Background(), StoreParams{Key: testKey, Logger: testLogger()})
	require.Error(t, err)
	_, err = NewStore(context.Background(), StoreParams{Key: testKey, Storage: NewMemoryStorage()})
	require.Error(t, err)
}

func TestReloadKeepsUnsyncedItemsAfterWriteFailure(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{writeErr: errors.New("redis down")}
	store := newTestStore(t, storage)

	p := book("10.00", 5)
	store.AddItem(ctx, p, 2)
	require.Equal(t, 2, store.QuantityOf(p.ID))

	require.Equal(t, 2, store.Reload(ctx).Totals.TotalItemCount)

	storage.writeErr = nil
	store.AddItem(ctx, p, 1)
	raw, err := encodeItems(nil)
	require.NoError(t, err)
	storage.raw, storage.found = raw, true
	require.True(t, store.Reload(ctx).IsEmpty())
}

func TestReloadKeepsItemsOnReadFailure(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := newTestStore(t, storage)
	p := book("10.00", 5)
	store.AddItem(ctx, p, 2)

	require.NoError(t, storage.Write(ctx, testKey, "{not json"))
	require.Equal(t, 2, store.Reload(ctx).Totals.TotalItemCount)
}
