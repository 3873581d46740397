// Package observability exposes placement counters over Prometheus.
package observability

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	placements           *prometheus.CounterVec
	compensationFailures prometheus.Counter
	cartClearFailures    prometheus.Counter
}

// NewMetrics registers the placement metrics on reg. Pass
// prometheus.DefaultRegisterer in main.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderflow_placements_total",
			Help: "Order placements by terminal outcome.",
		}, []string{"outcome"}),
		compensationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderflow_compensation_failures_total",
			Help: "Stock releases that failed after an abort decision; each one needs manual reconciliation.",
		}),
		cartClearFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderflow_cart_clear_failures_total",
			Help: "Best-effort cart clears that failed after a committed order.",
		}),
	}
	reg.MustRegister(m.placements, m.compensationFailures, m.cartClearFailures)
	return m
}

func (m *Metrics) Placement(outcome string) {
	if m == nil {
		return
	}
	m.placements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CompensationFailure(n int) {
	if m == nil {
		return
	}
	m.compensationFailures.Add(float64(n))
}

func (m *Metrics) CartClearFailure() {
	if m == nil {
		return
	}
	m.cartClearFailures.Inc()
}

// Handler serves the Prometheus scrape endpoint through gin.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) { h.ServeHTTP(c.Writer, c.Request) }
}
