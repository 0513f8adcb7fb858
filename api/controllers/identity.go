package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/northwind-labs/storefront/api/middleware"
	"github.com/northwind-labs/storefront/internal/orders"
	"github.com/northwind-labs/storefront/pkg/enums"
	pkgerrors "github.com/northwind-labs/storefront/pkg/errors"
)

// actorFromRequest builds the explicit actor passed to services from the auth context.
func actorFromRequest(r *http.Request) (*orders.Actor, error) {
	ctx := r.Context()
	userID, err := uuid.Parse(middleware.UserIDFromContext(ctx))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized to access this route")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Not authorized to access this route")
	}
	return &orders.Actor{
		UserID: userID,
		Role:   role,
		Email:  middleware.EmailFromContext(ctx),
	}, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
