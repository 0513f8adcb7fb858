package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/northwind-labs/storefront/api/responses"
	pkgAuth "github.com/northwind-labs/storefront/pkg/auth"
	"github.com/northwind-labs/storefront/pkg/auth/session"
	"github.com/northwind-labs/storefront/pkg/config"
	pkgerrors "github.com/northwind-labs/storefront/pkg/errors"
	"github.com/northwind-labs/storefront/pkg/logger"
)

// Cookie names set by the auth controllers for browser clients.
const (
	AccessTokenCookie  = "token"
	RefreshTokenCookie = "refreshToken"
)

const notAuthorized = "Not authorized to access this route"

// Auth accepts an access token from the Authorization bearer header or, for
// browsers, the token cookie. The token's jti must still have a live session.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			fail := func(err error) { responses.WriteError(ctx, logg, w, err) }

			raw := accessToken(r)
			if raw == "" {
				fail(pkgerrors.New(pkgerrors.CodeUnauthorized, notAuthorized))
				return
			}
			claims, err := pkgAuth.ParseAccessToken(cfg, raw)
			switch {
			case errors.Is(err, pkgAuth.ErrTokenExpired):
				fail(pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Token expired"))
				return
			case err != nil:
				fail(pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, notAuthorized))
				return
			case claims.ID == "":
				fail(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if sessions != nil {
				live, err := sessions.HasSession(ctx, claims.ID)
				if err != nil {
					fail(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !live {
					fail(pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked"))
					return
				}
			}

			userID, role := claims.UserID.String(), string(claims.Role)
			ctx = WithIdentity(ctx, userID, role, claims.Email, claims.ID)
			if logg != nil {
				ctx = logg.WithActor(ctx, userID, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
		if !found {
			return header
		}
		return ""
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
