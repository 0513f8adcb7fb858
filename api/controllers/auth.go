package controllers

import (
	"net/http"

	"github.com/northwind-labs/storefront/api/middleware"
	"github.com/northwind-labs/storefront/api/responses"
	"github.com/northwind-labs/storefront/api/validators"
	"github.com/northwind-labs/storefront/internal/auth"
	"github.com/northwind-labs/storefront/pkg/logger"
)

// AuthRegister creates a customer account and returns its first token pair.
func AuthRegister(svc auth.Service, cookies SessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-Storefront-Token", result.Token)
		cookies.set(w, result)
		responses.WriteSuccessMessage(w, http.StatusCreated, result, "User registered successfully")
	}
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, cookies SessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-Storefront-Token", result.Token)
		cookies.set(w, result)
		responses.WriteSuccessMessage(w, http.StatusOK, result, "Login successful")
	}
}

func AuthLogout(svc auth.Service, cookies SessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cookies.clear(w)
		responses.WriteSuccessMessage(w, http.StatusOK, nil, "Logged out successfully")
	}
}

func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Me(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"user": user})
	}
}

// AuthRefresh rotates the refresh token bound to the presented access token.
// Browser clients may send an empty body and rely on the session cookies.
func AuthRefresh(svc auth.Service, cookies SessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		body, ok := refreshFromCookies(r)
		if !ok {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.Refresh(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-Storefront-Token", result.Token)
		cookies.set(w, result)
		responses.WriteSuccessMessage(w, http.StatusOK, result, "Token refreshed successfully")
	}
}
