package controllers

import (
	"net/http"
	"time"

	"github.com/northwind-labs/storefront/api/middleware"
	"github.com/northwind-labs/storefront/internal/auth"
	"github.com/northwind-labs/storefront/pkg/config"
)

// SessionCookies mirrors issued tokens into httpOnly cookies for browser clients.
type SessionCookies struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewSessionCookies derives cookie settings from the app and JWT config.
func NewSessionCookies(cfg *config.Config) SessionCookies {
	if cfg == nil {
		return SessionCookies{}
	}
	return SessionCookies{
		Secure:     cfg.App.IsProd(),
		AccessTTL:  cfg.JWT.AccessTokenTTL(),
		RefreshTTL: cfg.JWT.RefreshTokenTTL(),
	}
}

func (c SessionCookies) set(w http.ResponseWriter, resp *auth.AuthResponse) {
	if resp == nil {
		return
	}
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, resp.Token, c.AccessTTL))
	http.SetCookie(w, c.cookie(middleware.RefreshTokenCookie, resp.RefreshToken, c.RefreshTTL))
}

func (c SessionCookies) clear(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		expired := c.cookie(name, "", 0)
		expired.MaxAge = -1
		expired.Expires = time.Unix(0, 0)
		http.SetCookie(w, expired)
	}
}

func (c SessionCookies) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// refreshFromCookies builds a refresh request from cookies when the body is empty.
func refreshFromCookies(r *http.Request) (auth.RefreshRequest, bool) {
	if r.ContentLength > 0 {
		return auth.RefreshRequest{}, false
	}
	access, err := r.Cookie(middleware.AccessTokenCookie)
	if err != nil || access.Value == "" {
		return auth.RefreshRequest{}, false
	}
	refresh, err := r.Cookie(middleware.RefreshTokenCookie)
	if err != nil || refresh.Value == "" {
		return auth.RefreshRequest{}, false
	}
	return auth.RefreshRequest{Token: access.Value, RefreshToken: refresh.Value}, true
}
