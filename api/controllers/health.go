package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/northwind-labs/storefront/api/responses"
	"github.com/northwind-labs/storefront/pkg/config"
	pkgerrors "github.com/northwind-labs/storefront/pkg/errors"
	"github.com/northwind-labs/storefront/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by the postgres and redis clients.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccessMessage(w, http.StatusOK, map[string]string{"status": "live"}, "Server is running")
	}
}

// HealthReady pings every dependency and reports 503 with the failing names when any is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		failed := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				failed[name] = "not configured"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(failed))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
