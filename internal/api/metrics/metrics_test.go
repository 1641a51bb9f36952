package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestRegister_SeparateRegistries(t *testing.T) {
	if err := Register(prometheus.NewRegistry()); err != nil {
		t.Fatalf("registry a: %v", err)
	}
	if err := Register(prometheus.NewRegistry()); err != nil {
		t.Fatalf("registry b: %v", err)
	}
}

func TestDecisionsTotal_Labels(t *testing.T) {
	before := testutil.ToFloat64(DecisionsTotal.WithLabelValues("approved"))
	DecisionsTotal.WithLabelValues("approved").Inc()
	if got := testutil.ToFloat64(DecisionsTotal.WithLabelValues("approved")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}
