// Package stock checks requested quantities against authoritative stock.
package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/literaryhaven-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/literaryhaven-backend/pkg/errors"
)

type catalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Request asks for quantity units of a product.
type Request struct {
	ProductID uuid.UUID
	Quantity  int
}

// Shortfall describes one product that cannot be supplied in full. Title is
// empty and Available zero when the product no longer exists.
type Shortfall struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title,omitempty"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Result reports whether every request can be met.
type Result struct {
	Available  bool        `json:"available"`
	Shortfalls []uuid.UUID `json:"shortfalls"`
	Details    []Shortfall `json:"details"`
}

// Verifier compares requests against current stock. Stock can still change
// after a check passes; no reservation is taken.
type Verifier struct {
	catalog catalog
}

// NewVerifier builds a verifier over the product catalog.
func NewVerifier(c catalog) (*Verifier, error) {
	if c == nil {
		return nil, errors.New("product catalog required")
	}
	return &Verifier{catalog: c}, nil
}

// Verify loads all requested products in one query. Repeated product ids are
// summed before comparison. Shortfalls keep first-request order.
func (v *Verifier) Verify(ctx context.Context, requests []Request) (*Result, error) {
	wanted := make(map[uuid.UUID]int, len(requests))
	order := make([]uuid.UUID, 0, len(requests))
	for _, req := range requests {
		if _, seen := wanted[req.ProductID]; !seen {
			order = append(order, req.ProductID)
		}
		wanted[req.ProductID] += req.Quantity
	}

	result := &Result{Available: true, Shortfalls: []uuid.UUID{}, Details: []Shortfall{}}
	if len(order) == 0 {
		return result, nil
	}

	rows, err := v.catalog.FindByIDs(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unable to verify stock")
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	for _, id := range order {
		requested := wanted[id]
		product, ok := byID[id]
		if ok && product.StockQuantity >= requested {
			continue
		}
		detail := Shortfall{ProductID: id, Requested: requested}
		if ok {
			detail.Title = product.Title
			detail.Available = product.StockQuantity
		}
		result.Shortfalls = append(result.Shortfalls, id)
		result.Details = append(result.Details, detail)
	}
	result.Available = len(result.Shortfalls) == 0
	return result, nil
}
