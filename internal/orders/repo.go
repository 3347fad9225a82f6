package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/literaryhaven-backend/pkg/db/models"
	"github.com/angelmondragon/literaryhaven-backend/pkg/enums"
	"github.com/angelmondragon/literaryhaven-backend/pkg/pagination"
)

const hasNoItemsClause = "NOT EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id)"

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrderHeader(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order == nil {
		return nil, errors.New("order required")
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderLineItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	if len(items) == 0 {
		return errors.New("at least one line item required")
	}
	now := time.Now().UTC()
	for i := range items {
		items[i].OrderID = orderID
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = now
		}
	}
	return r.db.WithContext(ctx).Omit("Product").Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderItemsAsc).
		Preload("Items.Product").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByNumber returns the order with line items and their products. Voided headers are hidden.
func (r *repository) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderItemsAsc).
		Preload("Items.Product").
		Where("order_number = ? AND voided_at IS NULL", strings.TrimSpace(orderNumber)).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus moves the order from one status to another only if it is still in from.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND voided_at IS NULL", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListByOwner(ctx context.Context, owner Owner, params pagination.Params) ([]models.Order, string, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("voided_at IS NULL")
	switch {
	case owner.UserID != nil:
		q = q.Where("user_id = ?", *owner.UserID)
	case owner.normalizedEmail() != "":
		q = q.Where("LOWER(customer_email) = ?", owner.normalizedEmail())
	default:
		return nil, "", errors.New("owner identity required")
	}
	return r.page(q, params)
}

func (r *repository) ListAll(ctx context.Context, filters AdminFilters, params pagination.Params) ([]models.Order, string, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if !filters.IncludeVoided {
		q = q.Where("voided_at IS NULL")
	}
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if email := strings.TrimSpace(filters.Email); email != "" {
		q = q.Where("LOWER(customer_email) = ?", strings.ToLower(email))
	}
	return r.page(q, params)
}

// page applies newest-first keyset pagination and returns the next cursor, if any.
func (r *repository) page(q *gorm.DB, params pagination.Params) ([]models.Order, string, error) {
	cursor, err := pagination.Decode(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Order
	err = q.Preload("Items", orderItemsAsc).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	rows, next := pagination.Trim(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return rows, next, nil
}

// FindOrphanedHeaders lists unvoided headers older than cutoff that never received line items.
func (r *repository) FindOrphanedHeaders(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = pagination.MaxLimit
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("voided_at IS NULL AND created_at < ?", cutoff.UTC()).
		Where(hasNoItemsClause).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// VoidOrder marks an item-less header as voided and cancelled. Repeated calls report false.
func (r *repository) VoidOrder(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND voided_at IS NULL", id).
		Where(hasNoItemsClause).
		Updates(map[string]any{
			"voided_at":   at.UTC(),
			"void_reason": reason,
			"status":      enums.OrderStatusCancelled,
			"updated_at":  at.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// LatestOrderNumber returns the highest order number starting with prefix, or
// "" when there is none. Numbers share a fixed width, so text order is numeric.
func (r *repository) LatestOrderNumber(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &numbers).Error
	if err != nil || len(numbers) == 0 {
		return "", err
	}
	return numbers[0], nil
}

func orderItemsAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
