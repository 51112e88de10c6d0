package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lifecycle counters. Registered on the default registry and served by the
// /metrics endpoint.
var (
	ProvisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supachat_provisions_total",
		Help: "Integration provision attempts by outcome.",
	}, []string{"outcome"})

	DeprovisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supachat_deprovisions_total",
		Help: "Integration deprovision attempts by outcome.",
	}, []string{"outcome"})

	ReconcilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supachat_orphan_reconciles_total",
		Help: "Orphan reconciliation sweeps executed.",
	})

	TokenRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supachat_token_refreshes_total",
		Help: "Bearer token refreshes triggered by a 401 response.",
	})
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)
