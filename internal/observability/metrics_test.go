package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Placement("committed")
	m.Placement("committed")
	m.Placement("denied")
	m.CompensationFailure(2)
	m.CartClearFailure()

	if got := testutil.ToFloat64(m.placements.WithLabelValues("committed")); got != 2 {
		t.Fatalf("committed=%v, want 2", got)
	}
	if got := testutil.ToFloat64(m.placements.WithLabelValues("denied")); got != 1 {
		t.Fatalf("denied=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.compensationFailures); got != 2 {
		t.Fatalf("compensation failures=%v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cartClearFailures); got != 1 {
		t.Fatalf("cart clear failures=%v, want 1", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.Placement("committed")
	m.CompensationFailure(1)
	m.CartClearFailure()
}
