package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
	assert.Equal(t, "0 documents indexed", env.Data.Components["search"].Message)
	assert.Equal(t, "uninitialized", env.Data.Components["sync"].Message)
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	ts := setupTestServer(t, Options{})
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "unhealthy", decode[HealthResponse](t, resp).Data.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.api.Get("/health")

	resp := ts.api.Get("/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `route="/health"`)
}
