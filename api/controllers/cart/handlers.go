// Package cart exposes the session cart over HTTP.
package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/literaryhaven-backend/api/middleware"
	"github.com/angelmondragon/literaryhaven-backend/api/responses"
	"github.com/angelmondragon/literaryhaven-backend/api/validators"
	cartsvc "github.com/angelmondragon/literaryhaven-backend/internal/cart"
	productsvc "github.com/angelmondragon/literaryhaven-backend/internal/products"
	pkgerrors "github.com/angelmondragon/literaryhaven-backend/pkg/errors"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
)

// Stores hands out the cart store for a session.
type Stores interface {
	Open(ctx context.Context, sessionID string) (*cartsvc.Store, error)
}

// Catalog resolves the product being added so the line carries current price and stock.
type Catalog interface {
	Get(ctx context.Context, id uuid.UUID) (*productsvc.ProductDTO, error)
}

// CartFetch returns the session cart with derived totals.
func CartFetch(stores Stores, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := openStore(r, stores)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.Snapshot()))
	}
}

// CartAddItem adds a product, capping the line at the product's current stock.
func CartAddItem(stores Stores, catalog Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		store, err := openStore(r, stores)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := catalog.Get(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if product.StockQuantity < 1 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "this book is out of stock").WithDetails(map[string]any{
				"product_id": product.ID,
			}))
			return
		}

		snapshot := store.AddItem(r.Context(), toCartProduct(product), payload.quantity())
		responses.WriteSuccess(w, newCartResponse(snapshot))
	}
}

// CartUpdateItem sets a line's quantity. Zero removes the line.
func CartUpdateItem(stores Stores, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := openStore(r, stores)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot := store.UpdateQuantity(r.Context(), productID, *payload.Quantity)
		responses.WriteSuccess(w, newCartResponse(snapshot))
	}
}

func CartRemoveItem(stores Stores, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := openStore(r, stores)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.RemoveItem(r.Context(), productID)))
	}
}

func CartClear(stores Stores, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := openStore(r, stores)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.Clear(r.Context())))
	}
}

func openStore(r *http.Request, stores Stores) (*cartsvc.Store, error) {
	if stores == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
	}
	sessionID := middleware.CartSessionFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session required")
	}
	store, err := stores.Open(r.Context(), sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open cart")
	}
	return store, nil
}

func productIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "productId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	return id, nil
}
