package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsvc "github.com/angelmondragon/literaryhaven-backend/internal/cart"
	"github.com/angelmondragon/literaryhaven-backend/internal/pricing"
)

type cartResponse struct {
	Items  []cartItemResponse `json:"items"`
	Totals pricing.Totals     `json:"totals"`
}

type cartItemResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	CoverImageURL *string         `json:"cover_image_url,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	StockQuantity int             `json:"stock_quantity"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

func newCartResponse(snapshot cartsvc.Snapshot) cartResponse {
	items := make([]cartItemResponse, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		items = append(items, cartItemResponse{
			ProductID:     item.Product.ID,
			Title:         item.Product.Title,
			Author:        item.Product.Author,
			CoverImageURL: item.Product.CoverImageURL,
			UnitPrice:     item.Product.Price,
			Quantity:      item.Quantity,
			StockQuantity: item.Product.StockQuantity,
			LineTotal:     item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return cartResponse{Items: items, Totals: snapshot.Totals}
}
