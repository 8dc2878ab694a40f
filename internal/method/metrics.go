package method

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runs counts method runs. Labels: program, outcome (ok, not_found, computation, error).
	runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sensemaker",
		Subsystem: "method",
		Name:      "runs_total",
		Help:      "Method runs by program and outcome",
	}, []string{"program", "outcome"})

	// runDuration measures a run from method lookup to persisted assessment.
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sensemaker",
		Subsystem: "method",
		Name:      "run_duration_seconds",
		Help:      "Method run latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"program"})

	// inputValues tracks how many assessments a run reduced.
	inputValues = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sensemaker",
		Subsystem: "method",
		Name:      "input_values",
		Help:      "Assessments gathered per method run",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)
