// Package metrics defines the custom Prometheus metrics of the reimbursement
// API. It is the single source of truth for metric names, labels, and help
// strings.
//
// Call Register once per registry before the HTTP server starts.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reimbursement"

// ── Reimbursement metrics ─────────────────────────────────────────────────────

// ReimbursementsCreatedTotal counts newly submitted requests.
var ReimbursementsCreatedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_created_total",
		Help:      "Total number of reimbursement requests submitted.",
	},
)

// DecisionsTotal counts approve/reject decisions that were persisted.
// Label:
//   - status: "approved" or "rejected"
var DecisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decisions_total",
		Help:      "Total number of reimbursement decisions, by resulting status.",
	},
	[]string{"status"},
)

// DecisionErrorsTotal counts decisions refused by the state machine.
// Label:
//   - reason: "invalid_transition", "comments_required", "forbidden", "not_found"
var DecisionErrorsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decision_errors_total",
		Help:      "Total number of refused reimbursement decisions.",
	},
	[]string{"reason"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ReimbursementsCreatedTotal,
		DecisionsTotal,
		DecisionErrorsTotal,
		LoginsTotal,
	}
}

// Register adds every custom metric to reg. Registering into a registry that
// already holds them is not an error.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
