package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/literaryhaven-backend/pkg/db/models"
)

// ProductDTO is the catalog payload returned to shoppers.
type ProductDTO struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	ISBN            *string         `json:"isbn,omitempty"`
	Description     *string         `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	CoverImageURL   *string         `json:"cover_image_url,omitempty"`
	StockQuantity   int             `json:"stock_quantity"`
	Category        string          `json:"category"`
	Publisher       *string         `json:"publisher,omitempty"`
	PublicationYear *int            `json:"publication_year,omitempty"`
	PageCount       *int            `json:"page_count,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CategoryCount is one category with the number of titles in it.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// ProductListResult is one page of catalog results.
type ProductListResult struct {
	Products []ProductDTO `json:"products"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit"`
	HasMore  bool         `json:"has_more"`
}

// FromModel maps a product row into its DTO.
func FromModel(m models.Product) ProductDTO {
	return ProductDTO{
		ID:              m.ID,
		Title:           m.Title,
		Author:          m.Author,
		ISBN:            m.ISBN,
		Description:     m.Description,
		Price:           m.Price,
		CoverImageURL:   m.CoverImageURL,
		StockQuantity:   m.StockQuantity,
		Category:        m.Category,
		Publisher:       m.Publisher,
		PublicationYear: m.PublicationYear,
		PageCount:       m.PageCount,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
