package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/literaryhaven-backend/pkg/enums"
)

// AccessTokenPayload is the shopper identity placed into a token.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Email    string
	FullName string
	Role     enums.UserRole
	JTI      string
}

// AccessTokenClaims is the typed JWT issued by the account service. The API
// only reads it to tag orders and prefill checkout.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"user_id"`
	Email    string         `json:"email"`
	FullName string         `json:"full_name,omitempty"`
	Role     enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token grants the admin role.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.Role == enums.UserRoleAdmin
}
