package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/literaryhaven-backend/internal/pricing"
	"github.com/angelmondragon/literaryhaven-backend/pkg/db/models"
)

// Product is the catalog data a line item carries. Price and stock are the
// values known when the product was last added; the stock verifier rechecks
// them at checkout.
type Product struct {
	ID            uuid.UUID       `json:"id"`
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CoverImageURL *string         `json:"cover_image_url,omitempty"`
}

// ProductFromModel maps a catalog row into the cart view.
func ProductFromModel(m models.Product) Product {
	return Product{
		ID:            m.ID,
		Title:         m.Title,
		Author:        m.Author,
		Price:         m.Price,
		StockQuantity: m.StockQuantity,
		CoverImageURL: m.CoverImageURL,
	}
}

// LineItem pairs a product with a quantity in [1, product stock].
type LineItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Snapshot is an immutable view of the cart with totals derived from Items.
type Snapshot struct {
	Items  []LineItem     `json:"items"`
	Totals pricing.Totals `json:"totals"`
}

// Lines returns the pricing view of the snapshot's items.
func (s Snapshot) Lines() []pricing.Line {
	return pricingLines(s.Items)
}

// IsEmpty reports whether the snapshot holds no items.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Observer receives the full snapshot after every mutation.
type Observer func(Snapshot)

func pricingLines(items []LineItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.Line{UnitPrice: item.Product.Price, Quantity: item.Quantity})
	}
	return lines
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func clampQuantity(quantity, stock int) int {
	if stock < 0 {
		stock = 0
	}
	if quantity > stock {
		return stock
	}
	return quantity
}
