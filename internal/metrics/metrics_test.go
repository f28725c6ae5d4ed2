package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(m.requests.WithLabelValues("/api/ping", "GET", "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "contapos_http_requests_total")
}

func TestBusinessCounters(t *testing.T) {
	m := New()
	m.SaleCompleted("POS", "cash", 11900)
	m.SaleCompleted("POS", "cash", 100)
	m.SaleCancelled("POS")
	m.LowStock()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.salesTotal.WithLabelValues("POS", "completed")))
	assert.Equal(t, float64(12000), testutil.ToFloat64(m.salesAmount.WithLabelValues("cash")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.lowStockAlerts))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.LowStock() })
}
