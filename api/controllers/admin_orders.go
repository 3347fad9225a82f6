package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/literaryhaven-backend/api/middleware"
	"github.com/angelmondragon/literaryhaven-backend/api/responses"
	"github.com/angelmondragon/literaryhaven-backend/api/validators"
	"github.com/angelmondragon/literaryhaven-backend/internal/orders"
	"github.com/angelmondragon/literaryhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/literaryhaven-backend/pkg/errors"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
	"github.com/angelmondragon/literaryhaven-backend/pkg/pagination"
)

const maxEmailLength = 254

// AdminOrderStatus moves an order along its fulfillment lifecycle.
func AdminOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adminStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, invalidStatus(err))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		input := orders.StatusUpdateInput{
			OrderID:   orderID,
			Status:    status,
			ActorRole: identity.Role,
		}
		if id, err := uuid.Parse(identity.UserID); err == nil {
			input.ActorUserID = &id
		}

		order, err := svc.AdminUpdateStatus(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminOrderList pages through every order, optionally by status or email.
func AdminOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		includeVoided, err := validators.ParseQueryBool(r, "include_voided")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		filters := orders.AdminFilters{
			Email:         validators.SanitizeString(q.Get("email"), maxEmailLength),
			IncludeVoided: includeVoided,
		}
		if raw := strings.TrimSpace(q.Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, invalidStatus(err))
				return
			}
			filters.Status = &status
		}

		list, err := svc.AdminList(r.Context(), filters, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(q.Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type adminStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func invalidStatus(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{
		"field":   "status",
		"allowed": enums.OrderStatusValues(),
	})
}
