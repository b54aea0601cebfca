package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ohmyq_worker_steps_total",
			Help: "Total number of agent steps taken by a worker",
		},
		[]string{"identity"},
	)

	episodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ohmyq_worker_episodes_total",
			Help: "Total number of episode boundaries seen by a worker",
		},
		[]string{"identity", "kind"}, // kind: life, game
	)

	violationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ohmyq_worker_failures_total",
			Help: "Total number of fatal worker failures",
		},
		[]string{"identity", "cause"}, // cause: protocol, environment, transport
	)

	stepDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ohmyq_worker_step_duration_seconds",
			Help:    "Time to step the frame pipeline for one action",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"identity"},
	)
)
