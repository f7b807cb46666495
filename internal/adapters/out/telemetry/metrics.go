// Package telemetry exposes application metrics through Prometheus.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
)

const namespace = "bizadmin"

var _ out.AuthMetrics = (*Metrics)(nil)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	// Auth
	AuthOperations *prometheus.CounterVec

	// Background cleanup
	CleanupRuns    *prometheus.CounterVec
	CleanupDeleted *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		AuthOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "operations_total",
			Help:      "Auth operations by operation and result.",
		}, []string{"operation", "result"}),
		CleanupRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleanup",
			Name:      "runs_total",
			Help:      "Expired row cleanup runs by result.",
		}, []string{"result"}),
		CleanupDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleanup",
			Name:      "deleted_rows_total",
			Help:      "Rows removed by the expired row cleaner, by table.",
		}, []string{"table"}),
	}

	for _, c := range []prometheus.Collector{m.AuthOperations, m.CleanupRuns, m.CleanupDeleted} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe counts one result of an auth operation.
func (m *Metrics) Observe(operation, result string) {
	m.AuthOperations.WithLabelValues(operation, result).Inc()
}

// ObserveCleanup records one cleaner run.
func (m *Metrics) ObserveCleanup(sessions, verifications int64, err error) {
	if err != nil {
		m.CleanupRuns.WithLabelValues("error").Inc()
		return
	}
	m.CleanupRuns.WithLabelValues("ok").Inc()
	m.CleanupDeleted.WithLabelValues("session").Add(float64(sessions))
	m.CleanupDeleted.WithLabelValues("verification").Add(float64(verifications))
}
