// Package orders serves order tracking, history and customer cancellation.
package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/literaryhaven-backend/api/middleware"
	"github.com/angelmondragon/literaryhaven-backend/api/responses"
	"github.com/angelmondragon/literaryhaven-backend/api/validators"
	internalorders "github.com/angelmondragon/literaryhaven-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/literaryhaven-backend/pkg/errors"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
	"github.com/angelmondragon/literaryhaven-backend/pkg/pagination"
)

const maxEmailLength = 254

// Track looks an order up by its human-readable number.
func Track(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		number := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "orderNumber")))
		if number == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order number is required"))
			return
		}

		order, err := svc.Track(r.Context(), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// History lists the caller's orders newest first. Signed-in shoppers see the
// orders tagged with their user id; guests pass the email used at checkout.
func History(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		owner, err := ownerFromRequest(r, r.URL.Query().Get("email"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.History(r.Context(), owner, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Cancel moves a pending order to cancelled on behalf of its owner.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "orderId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		email := ""
		if !middleware.IdentityFromContext(r.Context()).Authenticated() {
			var payload cancelRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			email = payload.Email
		}

		owner, err := ownerFromRequest(r, email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orderID, owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type cancelRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func ownerFromRequest(r *http.Request, guestEmail string) (internalorders.Owner, error) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity.Authenticated() {
		id, err := uuid.Parse(identity.UserID)
		if err != nil {
			return internalorders.Owner{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
		}
		return internalorders.Owner{UserID: &id, Email: identity.Email}, nil
	}
	return internalorders.Owner{Email: validators.SanitizeString(guestEmail, maxEmailLength)}, nil
}
