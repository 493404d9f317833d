package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_NoChecks(t *testing.T) {
	h := NewHealthChecker("v1.0.0")

	status := h.Check(context.Background())

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "v1.0.0", status.Version)
	assert.Nil(t, status.Checks)
}

func TestHealthChecker_FailingDependency(t *testing.T) {
	h := NewHealthChecker("dev")
	h.Register("redis", func(context.Context) error { return nil })
	h.Register("postgres", func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "up", status.Checks["redis"])
	assert.Equal(t, "down", status.Checks["postgres"])
	assert.Equal(t, []string{"postgres: connection refused"}, status.Errors)
}
