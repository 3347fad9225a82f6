package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/literaryhaven-backend/pkg/db/models"
	"github.com/angelmondragon/literaryhaven-backend/pkg/enums"
	"github.com/angelmondragon/literaryhaven-backend/pkg/pagination"
)

// Repository defines persistence operations for the orders and order_items tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrderHeader(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderLineItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
	ListByOwner(ctx context.Context, owner Owner, params pagination.Params) ([]models.Order, string, error)
	ListAll(ctx context.Context, filters AdminFilters, params pagination.Params) ([]models.Order, string, error)
	FindOrphanedHeaders(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	VoidOrder(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error)
	LatestOrderNumber(ctx context.Context, prefix string) (string, error)
}

// NumberGenerator hands out human-presentable order numbers.
type NumberGenerator interface {
	Next(ctx context.Context) (string, error)
}

// numberResyncer is a NumberGenerator whose sequence can fall behind the
// numbers already stored, e.g. after the counter's backing store is flushed.
type numberResyncer interface {
	DayPrefix() string
	Resync(ctx context.Context, latest string) error
}
