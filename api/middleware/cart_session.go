package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
)

const (
	CartSessionHeader        = "X-Cart-Session"
	defaultCartSessionCookie = "lh_cart_session"
	maxTokenLength           = 64
)

// CartSessionOptions controls how the cart session identifier travels.
type CartSessionOptions struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// CartSession resolves the shopper's cart session from the cookie or the
// X-Cart-Session header, minting a new one when neither is usable. The
// identifier is echoed back on both so API and browser clients stay in sync.
func CartSession(opts CartSessionOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	name := strings.TrimSpace(opts.CookieName)
	if name == "" {
		name = defaultCartSessionCookie
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if c, err := r.Cookie(name); err == nil {
				sessionID = sanitizeToken(c.Value)
			}
			if sessionID == "" {
				sessionID = sanitizeToken(r.Header.Get(CartSessionHeader))
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			cookie := &http.Cookie{
				Name:     name,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if opts.MaxAge > 0 {
				cookie.MaxAge = int(opts.MaxAge.Seconds())
			}
			http.SetCookie(w, cookie)
			w.Header().Set(CartSessionHeader, sessionID)

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sanitizeToken accepts [A-Za-z0-9_-] up to 64 chars and returns "" otherwise.
func sanitizeToken(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" || len(value) > maxTokenLength {
		return ""
	}
	for _, ch := range value {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
		default:
			return ""
		}
	}
	return value
}
