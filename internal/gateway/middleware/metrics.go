package middleware

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision result labels.
const (
	resultAllowed         = "allowed"
	resultDenied          = "denied"
	resultUnauthenticated = "unauthenticated"
	resultUnavailable     = "unavailable"
	resultFailOpen        = "fail_open"
)

// DecisionMetrics holds Prometheus metrics for authorization decisions.
type DecisionMetrics struct {
	decisionsTotal *prometheus.CounterVec
}

var (
	decisionMetricsInstance *DecisionMetrics
	decisionMetricsOnce     sync.Once
)

// GetDecisionMetrics returns the singleton decision metrics instance.
func GetDecisionMetrics() *DecisionMetrics {
	decisionMetricsOnce.Do(func() {
		decisionMetricsInstance = &DecisionMetrics{
			decisionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "subauthgw_decisions_total",
					Help: "Total number of authorization decisions by result.",
				},
				[]string{"result"},
			),
		}
	})
	return decisionMetricsInstance
}

// MustRegister registers the decision metric collectors with the given
// registry.
func (m *DecisionMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.decisionsTotal)
}
