package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/angelmondragon/literaryhaven-backend/internal/cart"
	productsvc "github.com/angelmondragon/literaryhaven-backend/internal/products"
)

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  *int      `json:"quantity,omitempty" validate:"omitempty,min=1,max=99"`
}

func (r addItemRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

// updateItemRequest accepts any quantity up to 99; zero or less removes the line.
type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=99"`
}

func toCartProduct(p *productsvc.ProductDTO) cartsvc.Product {
	return cartsvc.Product{
		ID:            p.ID,
		Title:         p.Title,
		Author:        p.Author,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		CoverImageURL: p.CoverImageURL,
	}
}
