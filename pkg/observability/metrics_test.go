package observability

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	t.Run("with explicit registry", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		metrics := NewMetrics(registry)
		require.NotNil(t, metrics)

		metrics.StoreOperationsTotal.WithLabelValues("objectives", "create", "success").Inc()
		families, err := registry.Gather()
		require.NoError(t, err)
		assert.NotEmpty(t, families)
	})

	t.Run("nil registry gets a fresh one", func(t *testing.T) {
		metrics := NewMetrics(nil)
		require.NotNil(t, metrics)
		metrics.AuditDroppedTotal.Inc()
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.AuditDroppedTotal))
	})
}

func TestMetrics_ObserveRequest(t *testing.T) {
	metrics := NewMetrics(nil)

	metrics.ObserveRequest("GET", "/api/v1/objectives", 200, 50*time.Millisecond)
	metrics.ObserveRequest("GET", "/api/v1/objectives", 200, 30*time.Millisecond)
	metrics.ObserveRequest("POST", "/api/v1/objectives", 409, 10*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/objectives", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/objectives", "409")))
}

func TestMetrics_UpdateDBStats(t *testing.T) {
	metrics := NewMetrics(nil)

	metrics.UpdateDBStats(sql.DBStats{InUse: 3, Idle: 7, WaitCount: 2})

	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.DBConnectionsActive))
	assert.Equal(t, float64(7), testutil.ToFloat64(metrics.DBConnectionsIdle))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.DBConnectionsWaitCount))
}

func TestMetrics_Handler(t *testing.T) {
	metrics := NewMetrics(nil)
	metrics.AuditDroppedTotal.Inc()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "govdesk_audit_dropped_total 1")
}
