package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/literaryhaven-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once a placed order has all of its line items.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	OrderNumber   string              `json:"orderNumber"`
	UserID        *uuid.UUID          `json:"userId,omitempty"`
	CustomerEmail string              `json:"customerEmail"`
	CustomerName  string              `json:"customerName"`
	ItemCount     int                 `json:"itemCount"`
	ShippingFee   decimal.Decimal     `json:"shippingFee"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Items         []OrderItemSummary  `json:"items"`
}

type OrderItemSummary struct {
	ProductID       uuid.UUID       `json:"productId"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
}

// OrderStatusChangedEvent records a lifecycle transition made by the customer or an admin.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	Reason      string            `json:"reason,omitempty"`
}

// OrderVoidedEvent marks an order header that never received its items.
type OrderVoidedEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Reason      string    `json:"reason"`
}
