package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/literaryhaven-backend/pkg/enums"
)

// Order is the persisted header of a placed order. The subtotal is not
// stored; it is the sum of the line items.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string              `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	UserID          *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	CustomerName    string              `gorm:"column:customer_name;not null"`
	CustomerEmail   string              `gorm:"column:customer_email;not null;index"`
	CustomerPhone   string              `gorm:"column:customer_phone;not null"`
	ShippingAddress string              `gorm:"column:shipping_address;not null"`
	City            string              `gorm:"column:city;not null"`
	PostalCode      string              `gorm:"column:postal_code;not null"`
	Notes           *string             `gorm:"column:notes"`
	ShippingFee     decimal.Decimal     `gorm:"column:shipping_fee;type:numeric(10,2);not null;default:0"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Status          enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null;default:'cash_on_delivery'"`
	VoidedAt        *time.Time          `gorm:"column:voided_at"`
	VoidReason      *string             `gorm:"column:void_reason"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Subtotal sums the captured line prices.
func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}
