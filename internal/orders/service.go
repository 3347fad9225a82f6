package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/literaryhaven-backend/pkg/db"
	"github.com/angelmondragon/literaryhaven-backend/pkg/db/models"
	"github.com/angelmondragon/literaryhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/literaryhaven-backend/pkg/errors"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
	"github.com/angelmondragon/literaryhaven-backend/pkg/outbox"
	"github.com/angelmondragon/literaryhaven-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/literaryhaven-backend/pkg/pagination"
)

const maxNumberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers order persistence for checkout plus the tracking, history and
// status operations exposed to customers and admins.
type Service interface {
	CreateHeader(ctx context.Context, input HeaderInput) (*models.Order, error)
	AttachLineItems(ctx context.Context, order *models.Order, items []LineItemInput) error
	Void(ctx context.Context, orderID uuid.UUID, reason string) (bool, error)
	Track(ctx context.Context, orderNumber string) (*OrderDTO, error)
	History(ctx context.Context, owner Owner, params pagination.Params) (*OrderList, error)
	Cancel(ctx context.Context, orderID uuid.UUID, owner Owner) (*OrderDTO, error)
	AdminUpdateStatus(ctx context.Context, input StatusUpdateInput) (*OrderDTO, error)
	AdminList(ctx context.Context, filters AdminFilters, params pagination.Params) (*OrderList, error)
	ReconcileOrphans(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// StatusUpdateInput is an administrative lifecycle change.
type StatusUpdateInput struct {
	OrderID     uuid.UUID
	Status      enums.OrderStatus
	ActorUserID *uuid.UUID
	ActorRole   string
}

// adminTransitions lists the lifecycle moves an admin may make. Terminal states have no entry.
var adminTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered},
}

// CanTransition reports whether an admin may move an order from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range adminTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outbox.Emitter
	numbers NumberGenerator
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, numbers NumberGenerator, logg *logger.Logger) (Service, error) {
	switch {
	case repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case emitter == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case numbers == nil:
		return nil, fmt.Errorf("order number generator required")
	case logg == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  emitter,
		numbers: numbers,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// CreateHeader inserts a pending cash-on-delivery header with a fresh order number.
func (s *service) CreateHeader(ctx context.Context, input HeaderInput) (*models.Order, error) {
	if input.TotalAmount.IsNegative() || input.ShippingFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amounts must not be negative")
	}

	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := s.numbers.Next(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate order number")
		}
		order := &models.Order{
			OrderNumber:     number,
			UserID:          input.UserID,
			CustomerName:    strings.TrimSpace(input.CustomerName),
			CustomerEmail:   strings.TrimSpace(input.CustomerEmail),
			CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
			ShippingAddress: strings.TrimSpace(input.ShippingAddress),
			City:            strings.TrimSpace(input.City),
			PostalCode:      strings.TrimSpace(input.PostalCode),
			Notes:           trimmedOrNil(input.Notes),
			ShippingFee:     input.ShippingFee,
			TotalAmount:     input.TotalAmount,
			Status:          enums.OrderStatusPending,
			PaymentMethod:   enums.PaymentMethodCashOnDelivery,
			CreatedAt:       s.now().UTC(),
		}
		created, err := s.repo.CreateOrderHeader(ctx, order)
		if err == nil {
			return created, nil
		}
		if !dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order header")
		}
		lastErr = err
		s.logg.Warn(s.logg.WithOrderNumber(ctx, number), "order number collision, retrying")
		s.resyncNumbers(ctx)
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "could not allocate a unique order number")
}

func (s *service) resyncNumbers(ctx context.Context) {
	resyncer, ok := s.numbers.(numberResyncer)
	if !ok {
		return
	}
	latest, err := s.repo.LatestOrderNumber(ctx, resyncer.DayPrefix())
	if err == nil && latest != "" {
		err = resyncer.Resync(ctx, latest)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order number resync failed")
	}
}

// AttachLineItems writes every line item and the order_created event in one transaction.
// The captured prices plus shipping must add up to the header total.
func (s *service) AttachLineItems(ctx context.Context, order *models.Order, items []LineItemInput) error {
	if order == nil || order.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order header required")
	}
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line item required")
	}

	rows := make([]models.OrderItem, 0, len(items))
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		if item.ProductID == uuid.Nil || item.Quantity < 1 || item.PriceAtPurchase.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid line item").WithDetails(map[string]any{
				"product_id": item.ProductID,
				"quantity":   item.Quantity,
			})
		}
		row := models.OrderItem{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
		}
		subtotal = subtotal.Add(row.LineTotal())
		count += item.Quantity
		rows = append(rows, row)
	}
	if !subtotal.Add(order.ShippingFee).Equal(order.TotalAmount) {
		return pkgerrors.New(pkgerrors.CodeInternal, "line items do not add up to the order total").WithDetails(map[string]any{
			"subtotal":     subtotal.StringFixed(2),
			"shipping_fee": order.ShippingFee.StringFixed(2),
			"total_amount": order.TotalAmount.StringFixed(2),
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateOrderLineItems(ctx, order.ID, rows); err != nil {
			return err
		}
		summaries := make([]payloads.OrderItemSummary, 0, len(rows))
		for _, row := range rows {
			summaries = append(summaries, payloads.OrderItemSummary{
				ProductID:       row.ProductID,
				Quantity:        row.Quantity,
				PriceAtPurchase: row.PriceAtPurchase,
			})
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         customerActor(order),
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				UserID:        order.UserID,
				CustomerEmail: order.CustomerEmail,
				CustomerName:  order.CustomerName,
				ItemCount:     count,
				ShippingFee:   order.ShippingFee,
				TotalAmount:   order.TotalAmount,
				PaymentMethod: order.PaymentMethod,
				Items:         summaries,
			},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order line items")
	}
	order.Items = rows
	return nil
}

// Void retires a header that has no line items. It is safe to call repeatedly and
// reports whether this call performed the void.
func (s *service) Void(ctx context.Context, orderID uuid.UUID, reason string) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	var voided bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		voided, err = repo.VoidOrder(ctx, orderID, reason, s.now())
		if err != nil || !voided {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderVoided,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data: payloads.OrderVoidedEvent{
				OrderID:     orderID,
				OrderNumber: order.OrderNumber,
				Reason:      reason,
			},
		})
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void order")
	}
	return voided, nil
}

func (s *service) Track(ctx context.Context, orderNumber string) (*OrderDTO, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, notFoundOr(err, "order not found", "load order")
	}
	return FromModel(order), nil
}

func (s *service) History(ctx context.Context, owner Owner, params pagination.Params) (*OrderList, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in or provide the order email")
	}
	rows, next, err := s.repo.ListByOwner(ctx, owner, params)
	if err != nil {
		return nil, listError(err)
	}
	return toList(rows, next), nil
}

// Cancel lets the owner cancel an order that is still pending.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, owner Owner) (*OrderDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in or provide the order email")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.VoidedAt != nil || !owner.Owns(order) {
			return gorm.ErrRecordNotFound
		}
		if order.Status != enums.OrderStatusPending {
			return statusConflict(order.Status, enums.OrderStatusCancelled, "only pending orders can be cancelled")
		}
		if err := s.transition(ctx, tx, repo, order, enums.OrderStatusCancelled, customerActor(order), "cancelled by customer"); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "order not found", "cancel order")
	}
	return FromModel(result), nil
}

func (s *service) AdminUpdateStatus(ctx context.Context, input StatusUpdateInput) (*OrderDTO, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").WithDetails(map[string]any{
			"status": input.Status,
		})
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.VoidedAt != nil {
			return gorm.ErrRecordNotFound
		}
		if !CanTransition(order.Status, input.Status) {
			return statusConflict(order.Status, input.Status, "status transition not allowed")
		}
		actor := &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole}
		if err := s.transition(ctx, tx, repo, order, input.Status, actor, ""); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "order not found", "update order status")
	}
	return FromModel(result), nil
}

// transition applies a compare-and-set status update and queues order_status_changed.
func (s *service) transition(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, to enums.OrderStatus, actor *outbox.ActorRef, reason string) error {
	from := order.Status
	ok, err := repo.UpdateStatus(ctx, order.ID, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return statusConflict(from, to, "order changed concurrently")
	}
	order.Status = to
	order.UpdatedAt = s.now().UTC()

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			From:        from,
			To:          to,
			Reason:      reason,
		},
	}); err != nil {
		return err
	}

	logCtx := s.logg.WithFields(s.logg.WithOrderNumber(ctx, order.OrderNumber), map[string]any{
		"from": from,
		"to":   to,
	})
	s.logg.Info(logCtx, "order status changed")
	return nil
}

func (s *service) AdminList(ctx context.Context, filters AdminFilters, params pagination.Params) (*OrderList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	rows, next, err := s.repo.ListAll(ctx, filters, params)
	if err != nil {
		return nil, listError(err)
	}
	return toList(rows, next), nil
}

// ReconcileOrphans voids headers older than cutoff that never received line items.
func (s *service) ReconcileOrphans(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	orphans, err := s.repo.FindOrphanedHeaders(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find orphaned orders")
	}
	voided := 0
	var errs error
	for _, order := range orphans {
		ok, err := s.Void(ctx, order.ID, VoidReasonNoLineItems)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("void %s: %w", order.OrderNumber, err))
			continue
		}
		if ok {
			voided++
			s.logg.Warn(s.logg.WithOrderNumber(ctx, order.OrderNumber), "voided order header without line items")
		}
	}
	return voided, errs
}

// VoidReasonNoLineItems marks headers whose line-item write never committed.
const VoidReasonNoLineItems = "line items were not recorded"

func customerActor(order *models.Order) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: order.UserID, Email: order.CustomerEmail, Role: "customer"}
}

func statusConflict(from, to enums.OrderStatus, msg string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, msg).WithDetails(map[string]any{
		"current_status":   from,
		"requested_status": to,
	})
}

func notFoundOr(err error, notFoundMsg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func listError(err error) error {
	if errors.Is(err, ErrInvalidCursor) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
}

func toList(rows []models.Order, next string) *OrderList {
	list := &OrderList{Orders: make([]OrderSummary, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		list.Orders = append(list.Orders, summarize(row))
	}
	return list
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
