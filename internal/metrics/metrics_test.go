package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(SyncItems.WithLabelValues("upsert", "success"))
	SyncItems.WithLabelValues("upsert", "success").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SyncItems.WithLabelValues("upsert", "success")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	SyncCycles.WithLabelValues("poll", "success").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "inkwell_index_sync_cycles_total")
}
