package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "weave", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "weave", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	RepositoryOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "weave", Name: "repository_operations_total", Help: "Repository operations by domain, operation and result."},
		[]string{"repository", "operation", "result"},
	)
)

// ObserveRepoOp records one repository call outcome.
func ObserveRepoOp(repository, operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	RepositoryOps.WithLabelValues(repository, operation, result).Inc()
}

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(RepositoryOps)
}
