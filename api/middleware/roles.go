package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/northwind-labs/storefront/api/responses"
	"github.com/northwind-labs/storefront/pkg/enums"
	pkgerrors "github.com/northwind-labs/storefront/pkg/errors"
	"github.com/northwind-labs/storefront/pkg/logger"
)

// RequireRole runs after Auth and admits only the listed roles.
func RequireRole(logg *logger.Logger, roles ...enums.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := enums.UserRole(RoleFromContext(ctx))
			switch {
			case role == "":
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, notAuthorized))
			case !slices.Contains(roles, role):
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden,
					fmt.Sprintf("User role %s is not authorized to access this route", role)))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
