package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID trusts an inbound X-Request-Id only when it is a short token of
// safe characters; anything else is replaced so it cannot pollute the logs.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := sanitizeToken(r.Header.Get(requestIDHeader))
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := logg.WithRequestID(r.Context(), reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
