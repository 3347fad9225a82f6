package middleware

import "context"

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxRole        contextKey = "actor_role"
	ctxEmail       contextKey = "email"
	ctxFullName    contextKey = "full_name"
	ctxCartSession contextKey = "cart_session"
)

// Identity is the optional shopper identity resolved from a bearer token.
type Identity struct {
	UserID   string
	Role     string
	Email    string
	FullName string
}

// Authenticated reports whether a signed-in shopper made the request.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

func UserIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxUserID)
}

func RoleFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxRole)
}

func CartSessionFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxCartSession)
}

// IdentityFromContext returns whatever identity OptionalAuth attached. Guests
// get the zero value.
func IdentityFromContext(ctx context.Context) Identity {
	return Identity{
		UserID:   stringValue(ctx, ctxUserID),
		Role:     stringValue(ctx, ctxRole),
		Email:    stringValue(ctx, ctxEmail),
		FullName: stringValue(ctx, ctxFullName),
	}
}

// WithIdentity injects the shopper identity into the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, id.UserID)
	ctx = context.WithValue(ctx, ctxRole, id.Role)
	ctx = context.WithValue(ctx, ctxEmail, id.Email)
	return context.WithValue(ctx, ctxFullName, id.FullName)
}

// WithCartSession injects the cart session identifier for downstream handlers.
func WithCartSession(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartSession, sessionID)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
