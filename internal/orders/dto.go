package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/literaryhaven-backend/pkg/db/models"
	"github.com/angelmondragon/literaryhaven-backend/pkg/enums"
	"github.com/angelmondragon/literaryhaven-backend/pkg/pagination"
)

// ErrInvalidCursor is returned when a pagination cursor cannot be decoded.
var ErrInvalidCursor = pagination.ErrInvalidCursor

// Owner identifies who is asking about an order: a signed-in user, or a guest by email.
type Owner struct {
	UserID *uuid.UUID
	Email  string
}

func (o Owner) normalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(o.Email))
}

// IsZero reports whether no identity was supplied.
func (o Owner) IsZero() bool {
	return o.UserID == nil && o.normalizedEmail() == ""
}

// Owns reports whether o may act on order. Orders placed while signed in belong to
// that user id; guest orders belong to their customer email.
func (o Owner) Owns(order *models.Order) bool {
	if order == nil {
		return false
	}
	if order.UserID != nil {
		return o.UserID != nil && *o.UserID == *order.UserID
	}
	email := o.normalizedEmail()
	return email != "" && email == strings.ToLower(strings.TrimSpace(order.CustomerEmail))
}

// AdminFilters narrows the administrative order list.
type AdminFilters struct {
	Status        *enums.OrderStatus
	Email         string
	IncludeVoided bool
}

// HeaderInput carries the customer, shipping and total fields of a new order header.
type HeaderInput struct {
	UserID          *uuid.UUID
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	City            string
	PostalCode      string
	Notes           *string
	ShippingFee     decimal.Decimal
	TotalAmount     decimal.Decimal
}

// LineItemInput is one purchased product with its price frozen at submission time.
type LineItemInput struct {
	ProductID       uuid.UUID
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// OrderItemDTO is a placed line item joined with the product's display data.
type OrderItemDTO struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Title           string          `json:"title,omitempty"`
	Author          string          `json:"author,omitempty"`
	CoverImageURL   *string         `json:"cover_image_url,omitempty"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// OrderDTO is the full order as returned by tracking and status endpoints.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          enums.OrderStatus   `json:"status"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email"`
	CustomerPhone   string              `json:"customer_phone"`
	ShippingAddress string              `json:"shipping_address"`
	City            string              `json:"city"`
	PostalCode      string              `json:"postal_code"`
	Notes           *string             `json:"notes,omitempty"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	ShippingFee     decimal.Decimal     `json:"shipping_fee"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Items           []OrderItemDTO      `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// OrderSummary is the compact row used in order history lists.
type OrderSummary struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	ItemCount   int               `json:"item_count"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderList wraps a page of summaries plus the cursor for the next page.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// FromModel maps a persisted order (with preloaded items) to its DTO.
func FromModel(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		CustomerPhone:   order.CustomerPhone,
		ShippingAddress: order.ShippingAddress,
		City:            order.City,
		PostalCode:      order.PostalCode,
		Notes:           order.Notes,
		PaymentMethod:   order.PaymentMethod,
		Subtotal:        order.Subtotal(),
		ShippingFee:     order.ShippingFee,
		TotalAmount:     order.TotalAmount,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		row := OrderItemDTO{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
			LineTotal:       item.LineTotal(),
		}
		if item.Product != nil {
			row.Title = item.Product.Title
			row.Author = item.Product.Author
			row.CoverImageURL = item.Product.CoverImageURL
		}
		dto.Items = append(dto.Items, row)
	}
	return dto
}

func summarize(order models.Order) OrderSummary {
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	return OrderSummary{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		ItemCount:   count,
		CreatedAt:   order.CreatedAt,
	}
}
