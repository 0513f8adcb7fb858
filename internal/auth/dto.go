package auth

import "github.com/northwind-labs/storefront/internal/users"

// RegisterRequest is the public sign-up body.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a (possibly expired) access token and its refresh token for a new pair.
type RefreshRequest struct {
	Token        string `json:"token" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthResponse contains the tokens and user produced by register, login and refresh.
type AuthResponse struct {
	User         *users.UserDTO `json:"user"`
	Token        string         `json:"token"`
	RefreshToken string         `json:"refreshToken"`
}
