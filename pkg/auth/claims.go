package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/northwind-labs/storefront/pkg/enums"
)

// AccessTokenPayload is what the auth service knows about the user at mint time.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	Role   enums.UserRole
	// JTI reuses an existing session id on refresh; empty mints a new one.
	JTI string
}

// AccessTokenClaims is the JWT body. sub mirrors user_id; jti names the
// refresh session in redis.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Email  string         `json:"email"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
