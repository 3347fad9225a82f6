package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a book listed in the catalog.
type Product struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Title           string          `gorm:"column:title;not null"`
	Author          string          `gorm:"column:author;not null"`
	ISBN            *string         `gorm:"column:isbn"`
	Description     *string         `gorm:"column:description"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	CoverImageURL   *string         `gorm:"column:cover_image_url"`
	StockQuantity   int             `gorm:"column:stock_quantity;not null;default:0"`
	Category        string          `gorm:"column:category;not null"`
	Publisher       *string         `gorm:"column:publisher"`
	PublicationYear *int            `gorm:"column:publication_year"`
	PageCount       *int            `gorm:"column:page_count"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
