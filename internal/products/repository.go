package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/literaryhaven-backend/pkg/db/models"
	"github.com/angelmondragon/literaryhaven-backend/pkg/pagination"
)

// Repository reads the book catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a single product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads every listed product in one query. Unknown ids are simply
// absent from the result.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns one page of products plus whether another page follows.
func (r *Repository) List(ctx context.Context, input ListInput) ([]models.Product, bool, error) {
	limit := pagination.NormalizeLimit(input.Limit)
	page := input.Page
	if page < 1 {
		page = 1
	}

	qb := r.db.WithContext(ctx).Model(&models.Product{})
	qb = applyFilters(qb, input.Filters)

	switch input.Sort {
	case SortPriceAsc:
		qb = qb.Order("price ASC").Order("id ASC")
	case SortPriceDesc:
		qb = qb.Order("price DESC").Order("id ASC")
	case SortTitle:
		qb = qb.Order("title ASC").Order("id ASC")
	default:
		qb = qb.Order("created_at DESC").Order("id DESC")
	}

	var rows []models.Product
	if err := qb.Offset((page - 1) * limit).Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, false, err
	}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	return rows, hasMore, nil
}

// Featured returns the newest in-stock titles.
func (r *Repository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("stock_quantity > 0").
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Categories counts titles per category, sorted by name.
func (r *Repository) Categories(ctx context.Context) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func applyFilters(qb *gorm.DB, filter ListFilters) *gorm.DB {
	if len(filter.Categories) > 0 {
		clauses := make([]string, 0, len(filter.Categories))
		args := make([]any, 0, len(filter.Categories))
		for _, category := range filter.Categories {
			category = strings.TrimSpace(category)
			if category == "" {
				continue
			}
			if isSpecificCategory(category) {
				clauses = append(clauses, "category = ?")
				args = append(args, category)
				continue
			}
			clauses = append(clauses, "LOWER(category) LIKE ?")
			args = append(args, strings.ToLower(category)+"%")
		}
		if len(clauses) > 0 {
			qb = qb.Where("("+strings.Join(clauses, " OR ")+")", args...)
		}
	}
	if author := strings.TrimSpace(filter.Author); author != "" {
		qb = qb.Where("LOWER(author) LIKE ?", "%"+strings.ToLower(author)+"%")
	}
	if filter.MinPrice != nil {
		qb = qb.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		qb = qb.Where("price <= ?", *filter.MaxPrice)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)", pattern, pattern, pattern)
	}
	if filter.InStock {
		qb = qb.Where("stock_quantity > 0")
	}
	return qb
}
