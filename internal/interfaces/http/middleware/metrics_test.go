package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupTestMeter sets up a test meter provider and reader.
func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})

	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func newMetricsRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	mp, reader := setupTestMeter(t)

	mw, err := HTTPMetrics(mp.Meter("http.server"))
	require.NoError(t, err)

	router := gin.New()
	router.Use(mw)
	router.GET("/mappings/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.POST("/webhooks/orders/create", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"received": true})
	})
	router.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	return router, reader
}

func TestHTTPMetrics_NilMeter(t *testing.T) {
	mw, err := HTTPMetrics(nil)
	require.NoError(t, err)

	router := gin.New()
	router.Use(mw)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetrics_RequestCounter(t *testing.T) {
	router, reader := newMetricsRouter(t)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/mappings/"+string(rune('a'+i)), nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1, "route pattern keeps a single series")
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	route, ok := sum.DataPoints[0].Attributes.Value(attribute.Key("http.route"))
	require.True(t, ok)
	assert.Equal(t, "/mappings/:id", route.AsString())
}

func TestHTTPMetrics_StatusCodes(t *testing.T) {
	router, reader := newMetricsRouter(t)

	for _, path := range []string{"/mappings/1", "/missing", "/nowhere"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
	}

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, m)
	sum := m.Data.(metricdata.Sum[int64])

	byStatus := map[int64]string{}
	for _, dp := range sum.DataPoints {
		status, _ := dp.Attributes.Value(attribute.Key("http.status_code"))
		route, _ := dp.Attributes.Value(attribute.Key("http.route"))
		byStatus[status.AsInt64()] = route.AsString()
	}
	assert.Equal(t, "/mappings/:id", byStatus[200])
	assert.Contains(t, []string{"/missing", "unknown"}, byStatus[404])
}

func TestHTTPMetrics_DurationAndSize(t *testing.T) {
	router, reader := newMetricsRouter(t)

	body := strings.Repeat("x", 2048)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/webhooks/orders/create", bytes.NewBufferString(body))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	rm := collectMetrics(t, reader)

	duration := findMetricByName(rm, "http_server_request_duration_seconds")
	require.NotNil(t, duration)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	size := findMetricByName(rm, "http_server_request_size_bytes")
	require.NotNil(t, size)
	sizeHist := size.Data.(metricdata.Histogram[float64])
	require.Len(t, sizeHist.DataPoints, 1)
	assert.Equal(t, float64(2048), sizeHist.DataPoints[0].Sum)
}

func TestHTTPMetrics_ActiveRequestsSettle(t *testing.T) {
	router, reader := newMetricsRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/mappings/1", nil)
	router.ServeHTTP(w, req)

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_active_requests")
	require.NotNil(t, m)
	sum := m.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}
