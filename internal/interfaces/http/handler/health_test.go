package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuswap/backend/internal/interfaces/http/dto"
)

func TestHealthHandler_Health(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name     string
		checks   map[string]HealthCheck
		status   int
		overall  string
		services map[string]string
	}{
		{
			name:     "no checks",
			checks:   nil,
			status:   http.StatusOK,
			overall:  HealthStatusHealthy,
			services: map[string]string{},
		},
		{
			name:     "all up",
			checks:   map[string]HealthCheck{"database": up, "redis": up},
			status:   http.StatusOK,
			overall:  HealthStatusHealthy,
			services: map[string]string{"database": ServiceStatusUp, "redis": ServiceStatusUp},
		},
		{
			name:     "redis down",
			checks:   map[string]HealthCheck{"database": up, "redis": down},
			status:   http.StatusServiceUnavailable,
			overall:  HealthStatusUnhealthy,
			services: map[string]string{"database": ServiceStatusUp, "redis": ServiceStatusDown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("skuswap", "test", tt.checks)
			c, w := newTestContext(http.MethodGet, "/health")

			h.Health(c)

			assert.Equal(t, tt.status, w.Code)
			var resp dto.HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.overall, resp.Status)
			assert.Equal(t, tt.services, resp.Services)
		})
	}
}

func TestHealthHandler_CheckHasDeadline(t *testing.T) {
	var hasDeadline bool
	h := NewHealthHandler("skuswap", "test", map[string]HealthCheck{
		"database": func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		},
	})
	c, _ := newTestContext(http.MethodGet, "/health")

	h.Health(c)

	assert.True(t, hasDeadline)
}

func TestHealthHandler_Info(t *testing.T) {
	h := NewHealthHandler("skuswap", "1.2.3", nil)
	c, w := newTestContext(http.MethodGet, "/api/system/info")

	h.Info(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "skuswap", data["name"])
	assert.Equal(t, "1.2.3", data["version"])
	assert.NotEmpty(t, data["go_version"])
}
