package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// registrations counts register calls by outcome: created, existing, failed.
	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sensemaker",
		Subsystem: "registry",
		Name:      "registrations_total",
		Help:      "Applet registrations by outcome",
	}, []string{"outcome"})

	// entitiesCreated counts sub-entities written by registrations.
	entitiesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sensemaker",
		Subsystem: "registry",
		Name:      "entities_created_total",
		Help:      "Entities created while registering applets",
	}, []string{"type"})
)
