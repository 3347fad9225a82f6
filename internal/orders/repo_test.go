package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/literaryhaven-backend/pkg/db/dbtest"
	"github.com/angelmondragon/literaryhaven-backend/pkg/db/models"
	"github.com/angelmondragon/literaryhaven-backend/pkg/enums"
	"github.com/angelmondragon/literaryhaven-backend/pkg/pagination"
)

func seedProduct(t *testing.T, db *gorm.DB, title, price string) models.Product {
	t.Helper()
	p := models.Product{
		Title:         title,
		Author:        "Author of " + title,
		Category:      "Fiction - Classics",
		Price:         decimal.RequireFromString(price),
		StockQuantity: 10,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedHeader(t *testing.T, repo Repository, number, email string, userID *uuid.UUID, created time.Time) *models.Order {
	t.Helper()
	order, err := repo.CreateOrderHeader(context.Background(), &models.Order{
		OrderNumber:     number,
		UserID:          userID,
		CustomerName:    "Ada Reader",
		CustomerEmail:   email,
		CustomerPhone:   "+1 555 010 2000",
		ShippingAddress: "1 Library Way",
		City:            "Booktown",
		PostalCode:      "12345",
		ShippingFee:     decimal.RequireFromString("4.99"),
		TotalAmount:     decimal.RequireFromString("14.98"),
		Status:          enums.OrderStatusPending,
		PaymentMethod:   enums.PaymentMethodCashOnDelivery,
		CreatedAt:       created,
	})
	require.NoError(t, err)
	return order
}

func TestCreateHeaderAndLineItemsThenTrack(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	book := seedProduct(t, db, "Emma", "9.99")
	order := seedHeader(t, repo, "LH-20261018-000001", "ada@example.com", nil, time.Now().UTC())

	require.NoError(t, repo.CreateOrderLineItems(context.Background(), order.ID, []models.OrderItem{
		{ProductID: book.ID, Quantity: 1, PriceAtPurchase: decimal.RequireFromString("9.99")},
	}))

	found, err := repo.FindByNumber(context.Background(), " LH-20261018-000001 ")
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	require.NotNil(t, found.Items[0].Product)
	require.Equal(t, "Emma", found.Items[0].Product.Title)
	require.True(t, found.Subtotal().Equal(decimal.RequireFromString("9.99")))
}

func TestCreateOrderLineItemsRequiresItems(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	require.Error(t, repo.CreateOrderLineItems(context.Background(), uuid.New(), nil))
}

func TestDuplicateOrderNumberRejected(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	seedHeader(t, repo, "LH-DUP", "a@example.com", nil, time.Now().UTC())

	_, err := repo.CreateOrderHeader(context.Background(), &models.Order{
		OrderNumber:   "LH-DUP",
		CustomerName:  "B",
		CustomerEmail: "b@example.com",
		TotalAmount:   decimal.RequireFromString("1.00"),
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
	})
	require.Error(t, err)
}

func TestUpdateStatusIsConditional(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	order := seedHeader(t, repo, "LH-1", "a@example.com", nil, time.Now().UTC())

	ok, err := repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPending, enums.OrderStatusConfirmed)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled)
	require.NoError(t, err)
	require.False(t, ok)

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, reloaded.Status)
}

func TestOrphanedHeadersAndVoid(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	book := seedProduct(t, db, "Dune", "10.00")
	old := time.Now().UTC().Add(-time.Hour)

	orphan := seedHeader(t, repo, "LH-ORPHAN", "a@example.com", nil, old)
	complete := seedHeader(t, repo, "LH-COMPLETE", "a@example.com", nil, old)
	require.NoError(t, repo.CreateOrderLineItems(context.Background(), complete.ID, []models.OrderItem{
		{ProductID: book.ID, Quantity: 1, PriceAtPurchase: decimal.RequireFromString("10.00")},
	}))
	seedHeader(t, repo, "LH-FRESH", "a@example.com", nil, time.Now().UTC())

	rows, err := repo.FindOrphanedHeaders(context.Background(), time.Now().UTC().Add(-15*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, orphan.ID, rows[0].ID)

	ok, err := repo.VoidOrder(context.Background(), orphan.ID, VoidReasonNoLineItems, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.VoidOrder(context.Background(), orphan.ID, VoidReasonNoLineItems, time.Now())
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.VoidOrder(context.Background(), complete.ID, VoidReasonNoLineItems, time.Now())
	require.NoError(t, err)
	require.False(t, ok, "orders with items are never voided")

	_, err = repo.FindByNumber(context.Background(), "LH-ORPHAN")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	voided, err := repo.FindByID(context.Background(), orphan.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, voided.Status)
	require.NotNil(t, voided.VoidedAt)
}

func TestListByOwnerPaginatesNewestFirst(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	userID := uuid.New()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seedHeader(t, repo, "LH-U-"+string(rune('A'+i)), "user@example.com", &userID, base.Add(time.Duration(i)*time.Minute))
	}
	seedHeader(t, repo, "LH-GUEST", "Guest@Example.com", nil, base)

	first, next, err := repo.ListByOwner(context.Background(), Owner{UserID: &userID}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, "LH-U-E", first[0].OrderNumber)
	require.Equal(t, "LH-U-D", first[1].OrderNumber)
	require.NotEmpty(t, next)

	second, next, err := repo.ListByOwner(context.Background(), Owner{UserID: &userID}, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.Equal(t, "LH-U-C", second[0].OrderNumber)

	third, next, err := repo.ListByOwner(context.Background(), Owner{UserID: &userID}, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, third, 1)
	require.Empty(t, next)

	guest, _, err := repo.ListByOwner(context.Background(), Owner{Email: "guest@example.com "}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, guest, 1)

	_, _, err = repo.ListByOwner(context.Background(), Owner{}, pagination.Params{})
	require.Error(t, err)

	_, _, err = repo.ListByOwner(context.Background(), Owner{UserID: &userID}, pagination.Params{Cursor: "%%%"})
	require.ErrorIs(t, err, ErrInvalidCursor)
}

func TestListAllFiltersByStatus(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	a := seedHeader(t, repo, "LH-A", "a@example.com", nil, time.Now().UTC())
	seedHeader(t, repo, "LH-B", "b@example.com", nil, time.Now().UTC())
	_, err := repo.UpdateStatus(context.Background(), a.ID, enums.OrderStatusPending, enums.OrderStatusConfirmed)
	require.NoError(t, err)

	confirmed := enums.OrderStatusConfirmed
	rows, _, err := repo.ListAll(context.Background(), AdminFilters{Status: &confirmed}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "LH-A", rows[0].OrderNumber)

	all, _, err := repo.ListAll(context.Background(), AdminFilters{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestLatestOrderNumberPicksHighestForPrefix(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	now := time.Now().UTC()
	for _, number := range []string{"LH-20261018-000002", "LH-20261018-000010", "LH-20261019-000500", "LH-20261018-000009"} {
		seedHeader(t, repo, number, "a@example.com", nil, now)
	}

	latest, err := repo.LatestOrderNumber(context.Background(), "LH-20261018-")
	require.NoError(t, err)
	require.Equal(t, "LH-20261018-000010", latest)

	latest, err = repo.LatestOrderNumber(context.Background(), "LH-20261020-")
	require.NoError(t, err)
	require.Empty(t, latest)
}
