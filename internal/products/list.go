package products

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SortOrder selects the catalog ordering.
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortTitle     SortOrder = "title"
)

// ParseSortOrder maps raw input to a SortOrder; empty means newest.
func ParseSortOrder(value string) (SortOrder, error) {
	switch SortOrder(strings.TrimSpace(value)) {
	case "", SortNewest:
		return SortNewest, nil
	case SortPriceAsc:
		return SortPriceAsc, nil
	case SortPriceDesc:
		return SortPriceDesc, nil
	case SortTitle:
		return SortTitle, nil
	}
	return "", fmt.Errorf("invalid sort %q", value)
}

// categorySeparator splits a broad category from its sub-category, as in
// "Fiction - Classics".
const categorySeparator = " - "

// ListFilters describe the supported filter knobs for the browse endpoint.
// A category containing the separator matches exactly; a broad category
// matches every sub-category under it.
type ListFilters struct {
	Categories []string
	Author     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Search     string
	InStock    bool
}

// ListInput is a page request against the catalog.
type ListInput struct {
	Filters ListFilters
	Sort    SortOrder
	Page    int
	Limit   int
}

func isSpecificCategory(category string) bool {
	return strings.Contains(category, categorySeparator)
}
