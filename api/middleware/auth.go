package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/literaryhaven-backend/api/responses"
	pkgAuth "github.com/angelmondragon/literaryhaven-backend/pkg/auth"
	"github.com/angelmondragon/literaryhaven-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/literaryhaven-backend/pkg/errors"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
)

// OptionalAuth attaches the shopper identity when a bearer token is present.
// Requests without an Authorization header continue as guests. A header that
// fails verification is a 401, never a silent guest checkout.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	verifier := pkgAuth.NewVerifier(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(bearerToken(header))
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, pkgAuth.ErrExpiredToken) {
					msg = "session expired, please sign in again"
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}

			ctx := WithIdentity(r.Context(), Identity{
				UserID:   claims.UserID.String(),
				Role:     string(claims.Role),
				Email:    claims.Email,
				FullName: claims.FullName,
			})
			ctx = logg.WithUserID(ctx, claims.UserID.String())
			ctx = logg.WithActorRole(ctx, string(claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(header, " ")
	if found && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	return header
}
