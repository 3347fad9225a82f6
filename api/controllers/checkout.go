package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/literaryhaven-backend/api/middleware"
	"github.com/angelmondragon/literaryhaven-backend/api/responses"
	"github.com/angelmondragon/literaryhaven-backend/api/validators"
	cartsvc "github.com/angelmondragon/literaryhaven-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/literaryhaven-backend/internal/checkout"
	"github.com/angelmondragon/literaryhaven-backend/internal/orders"
	"github.com/angelmondragon/literaryhaven-backend/internal/pricing"
	"github.com/angelmondragon/literaryhaven-backend/pkg/checkout"
	pkgerrors "github.com/angelmondragon/literaryhaven-backend/pkg/errors"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
)

const defaultInFlightTTL = 30 * time.Second

// CartStores hands out the cart store for a session.
type CartStores interface {
	Open(ctx context.Context, sessionID string) (*cartsvc.Store, error)
}

// InFlightGuard marks a cart session as mid-checkout so a double submit is
// refused instead of placing two orders.
type InFlightGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
	CheckoutInFlightKey(sessionID string) string
}

// CheckoutPrefill returns the contact fields known from the identity token.
func CheckoutPrefill(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())
		responses.WriteSuccess(w, checkoutPrefillResponse{
			Authenticated: identity.Authenticated(),
			FullName:      identity.FullName,
			Email:         identity.Email,
		})
	}
}

// Checkout places a cash-on-delivery order from the session cart.
func Checkout(svc checkoutsvc.Service, stores CartStores, guard InFlightGuard, inFlightTTL time.Duration, logg *logger.Logger) http.HandlerFunc {
	if inFlightTTL <= 0 {
		inFlightTTL = defaultInFlightTTL
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || stores == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID := middleware.CartSessionFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session required"))
			return
		}

		var contact checkout.Contact
		if err := validators.DecodeJSON(r, &contact); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		var userID *uuid.UUID
		if identity.Authenticated() {
			parsed, err := uuid.Parse(identity.UserID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
				return
			}
			userID = &parsed
		}

		store, err := stores.Open(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open cart"))
			return
		}

		if guard != nil {
			key := guard.CheckoutInFlightKey(sessionID)
			token := uuid.NewString()
			acquired, err := guard.SetNX(r.Context(), key, token, inFlightTTL)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout guard"))
				return
			}
			if !acquired {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress"))
				return
			}
			defer func() {
				// A guard that outlived its TTL may belong to a newer attempt.
				released, err := guard.DelIfValue(context.WithoutCancel(r.Context()), key, token)
				if err != nil {
					logg.Error(r.Context(), "release checkout guard", err)
				} else if !released {
					logg.Warn(r.Context(), "checkout guard expired before release")
				}
			}()
		}

		result, err := svc.PlaceOrder(r.Context(), checkoutsvc.Request{
			Contact: contact,
			UserID:  userID,
			Items:   store.Snapshot().Items,
		}, store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Order:  orders.FromModel(result.Order),
			Totals: result.Totals,
		})
	}
}

type checkoutPrefillResponse struct {
	Authenticated bool   `json:"authenticated"`
	FullName      string `json:"full_name,omitempty"`
	Email         string `json:"email,omitempty"`
}

type checkoutResponse struct {
	Order  *orders.OrderDTO `json:"order"`
	Totals pricing.Totals   `json:"totals"`
}
