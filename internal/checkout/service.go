// Package checkout turns a frozen cart into a persisted cash-on-delivery order.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/literaryhaven-backend/internal/cart"
	"github.com/angelmondragon/literaryhaven-backend/internal/orders"
	"github.com/angelmondragon/literaryhaven-backend/internal/pricing"
	"github.com/angelmondragon/literaryhaven-backend/internal/stock"
	"github.com/angelmondragon/literaryhaven-backend/pkg/checkout"
	"github.com/angelmondragon/literaryhaven-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/literaryhaven-backend/pkg/errors"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
)

const (
	stepCreateHeader    = "create_order_header"
	stepCreateLineItems = "create_order_line_items"
)

type stockVerifier interface {
	Verify(ctx context.Context, requests []stock.Request) (*stock.Result, error)
}

type orderWriter interface {
	CreateHeader(ctx context.Context, input orders.HeaderInput) (*models.Order, error)
	AttachLineItems(ctx context.Context, order *models.Order, items []orders.LineItemInput) error
	Void(ctx context.Context, orderID uuid.UUID, reason string) (bool, error)
}

type outcomeRecorder interface {
	Observe(state string, elapsed time.Duration)
}

// CartClearer is the part of the cart store the orchestrator touches, and
// only after an order is fully recorded.
type CartClearer interface {
	Clear(ctx context.Context) cart.Snapshot
}

// Request is a checkout submission. Items are a copy taken when the shopper
// submitted; later cart changes do not affect it.
type Request struct {
	Contact checkout.Contact
	UserID  *uuid.UUID
	Items   []cart.LineItem
}

// Result describes where an attempt ended. It is returned for failures too.
type Result struct {
	State  State
	Trace  []State
	Order  *models.Order
	Totals pricing.Totals
}

// Service places orders.
type Service interface {
	PlaceOrder(ctx context.Context, req Request, clearer CartClearer) (*Result, error)
}

// ServiceParams wires the orchestrator.
type ServiceParams struct {
	Verifier stockVerifier
	Orders   orderWriter
	Policy   pricing.Policy
	Logger   *logger.Logger
	Metrics  outcomeRecorder
}

type service struct {
	verifier stockVerifier
	orders   orderWriter
	policy   pricing.Policy
	logg     *logger.Logger
	metrics  outcomeRecorder
	now      func() time.Time
}

// NewService builds the checkout orchestrator. It holds no lock: callers must
// keep a second attempt for the same cart from starting while one runs.
func NewService(params ServiceParams) (Service, error) {
	if params.Verifier == nil {
		return nil, fmt.Errorf("stock verifier required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		verifier: params.Verifier,
		orders:   params.Orders,
		policy:   params.Policy,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

// PlaceOrder validates the request, rechecks stock, writes the order header
// and its line items, then clears the cart. The cart is cleared only when
// both writes succeeded. A header whose line items failed is voided on the
// spot; if that also fails the orphan reconciliation job picks it up.
func (s *service) PlaceOrder(ctx context.Context, req Request, clearer CartClearer) (*Result, error) {
	started := s.now()
	run := newAttempt()
	result := &Result{}
	finish := func(err error) (*Result, error) {
		result.State = run.state
		result.Trace = run.trace
		if s.metrics != nil {
			s.metrics.Observe(string(run.state), s.now().Sub(started))
		}
		return result, err
	}

	run.move(StateValidating)
	contact := req.Contact.Normalized()
	if err := checkout.ValidateContact(contact); err != nil {
		run.move(StateRejectedInput)
		return finish(err)
	}
	items := frozenItems(req.Items)
	if len(items) == 0 {
		run.move(StateRejectedInput)
		return finish(pkgerrors.New(pkgerrors.CodeValidation, "your cart is empty"))
	}
	result.Totals = pricing.Calculate(linesOf(items), s.policy)

	run.move(StateStockChecking)
	verdict, err := s.verifier.Verify(ctx, stockRequests(items))
	if err != nil {
		run.move(StateRejectedStock)
		return finish(err)
	}
	if !verdict.Available {
		run.move(StateRejectedStock)
		logCtx := s.logg.WithField(ctx, "shortfalls", len(verdict.Shortfalls))
		s.logg.Info(logCtx, "checkout rejected on stock")
		return finish(pkgerrors.New(pkgerrors.CodeStockShortage, "some items are no longer available in the requested quantity").WithDetails(map[string]any{
			"shortfalls": verdict.Shortfalls,
			"items":      verdict.Details,
		}))
	}

	run.move(StatePersisting)
	order, err := s.orders.CreateHeader(ctx, orders.HeaderInput{
		UserID:          req.UserID,
		CustomerName:    contact.FullName,
		CustomerEmail:   contact.Email,
		CustomerPhone:   contact.Phone,
		ShippingAddress: contact.ShippingAddress,
		City:            contact.City,
		PostalCode:      contact.PostalCode,
		Notes:           contact.Notes,
		ShippingFee:     result.Totals.Shipping,
		TotalAmount:     result.Totals.GrandTotal,
	})
	if err != nil {
		run.move(StateRejectedPersistence)
		s.logg.Error(ctx, "order header write failed", err)
		return finish(notPlaced(err, stepCreateHeader))
	}
	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)

	if err := s.orders.AttachLineItems(ctx, order, lineItemInputs(items)); err != nil {
		run.move(StateRejectedPersistence)
		s.logg.Error(ctx, "order line item write failed", err)
		s.compensate(ctx, order)
		return finish(notPlaced(err, stepCreateLineItems))
	}

	run.move(StateSucceeded)
	result.Order = order
	if clearer != nil {
		clearer.Clear(ctx)
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"item_count":   result.Totals.TotalItemCount,
		"total_amount": order.TotalAmount.StringFixed(2),
	})
	s.logg.Info(logCtx, "order placed")
	return finish(nil)
}

func (s *service) compensate(ctx context.Context, order *models.Order) {
	voided, err := s.orders.Void(ctx, order.ID, orders.VoidReasonNoLineItems)
	if err != nil {
		s.logg.Error(ctx, "voiding order header failed, left for reconciliation", err)
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "voided", voided), "order header voided after line item failure")
}

func notPlaced(cause error, step string) error {
	details := map[string]any{"step": step}
	if pkgerrors.IsCode(cause, pkgerrors.CodeValidation) {
		details["reason"] = pkgerrors.As(cause).Message()
	}
	return pkgerrors.Wrap(pkgerrors.CodeOrderNotPlaced, cause, "order could not be placed").WithDetails(details)
}

// frozenItems copies the submitted lines, merging repeated products and
// dropping non-positive quantities.
func frozenItems(items []cart.LineItem) []cart.LineItem {
	out := make([]cart.LineItem, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.Product.ID == uuid.Nil || item.Quantity < 1 {
			continue
		}
		if pos, ok := index[item.Product.ID]; ok {
			out[pos].Quantity += item.Quantity
			continue
		}
		index[item.Product.ID] = len(out)
		out = append(out, item)
	}
	return out
}

func linesOf(items []cart.LineItem) []pricing.Line {
	return cart.Snapshot{Items: items}.Lines()
}

func stockRequests(items []cart.LineItem) []stock.Request {
	out := make([]stock.Request, 0, len(items))
	for _, item := range items {
		out = append(out, stock.Request{ProductID: item.Product.ID, Quantity: item.Quantity})
	}
	return out
}

func lineItemInputs(items []cart.LineItem) []orders.LineItemInput {
	out := make([]orders.LineItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, orders.LineItemInput{
			ProductID:       item.Product.ID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.Product.Price,
		})
	}
	return out
}
