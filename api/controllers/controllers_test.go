package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northwind-labs/storefront/api/middleware"
	"github.com/northwind-labs/storefront/pkg/config"
	"github.com/northwind-labs/storefront/pkg/enums"
	pkgerrors "github.com/northwind-labs/storefront/pkg/errors"
	"github.com/northwind-labs/storefront/pkg/types"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthReadyReportsFailingDependencies(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"postgres": stubPinger{}, "redis": stubPinger{}}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "test", resp.Header().Get("X-Storefront-Env"))

	resp = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"postgres": stubPinger{}, "redis": stubPinger{err: errors.New("connection refused")}}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)

	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	details, ok := body.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "connection refused", details["redis"])
	assert.NotContains(t, details, "postgres")
}

func TestActorFromRequest(t *testing.T) {
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), userID.String(), "admin", "a@example.com", "jti"))

	actor, err := actorFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, userID, actor.UserID)
	assert.Equal(t, enums.UserRoleAdmin, actor.Role)
	assert.True(t, actor.IsAdmin())

	_, err = actorFromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestHandlersReportMissingService(t *testing.T) {
	resp := httptest.NewRecorder()
	ProductList(nil, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
