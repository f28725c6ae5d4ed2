package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process registry and the collectors the API records into.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	salesTotal      *prometheus.CounterVec
	salesAmount     *prometheus.CounterVec
	lowStockAlerts  prometheus.Counter
	lowStockItems   prometheus.Gauge
	einvoices       *prometheus.CounterVec
	journalPosted   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contapos",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contapos",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		salesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contapos",
			Name:      "sales_total",
			Help:      "Completed and cancelled sales by type.",
		}, []string{"type", "status"}),
		salesAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contapos",
			Name:      "sales_amount_total",
			Help:      "Sum of completed sale totals by payment method.",
		}, []string{"payment_method"}),
		lowStockAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "contapos",
			Name:      "low_stock_alerts_total",
			Help:      "Low stock alerts raised.",
		}),
		lowStockItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "contapos",
			Name:      "low_stock_items",
			Help:      "Inventory rows at or below their minimum stock, as of the last dashboard refresh.",
		}),
		einvoices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contapos",
			Name:      "einvoices_total",
			Help:      "Electronic invoice submissions by result.",
		}, []string{"status"}),
		journalPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "contapos",
			Name:      "journal_entries_posted_total",
			Help:      "Journal entries posted to the ledger.",
		}),
	}

	reg.MustRegister(m.requests, m.requestDuration, m.salesTotal, m.salesAmount,
		m.lowStockAlerts, m.lowStockItems, m.einvoices, m.journalPosted)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware records request count and latency keyed by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SaleCompleted(saleType, paymentMethod string, total float64) {
	if m == nil {
		return
	}
	m.salesTotal.WithLabelValues(saleType, "completed").Inc()
	m.salesAmount.WithLabelValues(paymentMethod).Add(total)
}

func (m *Metrics) SaleCancelled(saleType string) {
	if m == nil {
		return
	}
	m.salesTotal.WithLabelValues(saleType, "cancelled").Inc()
}

func (m *Metrics) LowStock() {
	if m == nil {
		return
	}
	m.lowStockAlerts.Inc()
}

func (m *Metrics) SetLowStock(count int64) {
	if m == nil {
		return
	}
	m.lowStockItems.Set(float64(count))
}

func (m *Metrics) EInvoice(status string) {
	if m == nil {
		return
	}
	m.einvoices.WithLabelValues(status).Inc()
}

func (m *Metrics) JournalPosted() {
	if m == nil {
		return
	}
	m.journalPosted.Inc()
}
