package services

import "github.com/prometheus/client_golang/prometheus"

var (
	challengeEnrollments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_enrollments_total",
			Help: "Total number of challenge enrollments by path taken",
		},
		[]string{"path"},
	)
	progressUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_updates_total",
			Help: "Total number of single-day progress updates by result",
		},
		[]string{"result"},
	)
)

// InitMetrics registers the domain counters. Call this from main.go.
func InitMetrics(reg prometheus.Registerer) {
	reg.MustRegister(challengeEnrollments, progressUpdates)
}
