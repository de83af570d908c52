// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LinkOutcomes counts callback terminal outcomes by code.
	LinkOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registrar_link_outcomes_total",
		Help: "Terminal outcomes of the OAuth link callback, by code.",
	}, []string{"outcome"})

	// LinkStarts counts initiated handshakes.
	LinkStarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registrar_link_starts_total",
		Help: "Initiated OAuth link handshakes.",
	})

	// SessionsSwept counts expired handshake sessions removed by sweeps.
	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registrar_sessions_swept_total",
		Help: "Expired handshake sessions deleted by sweeps.",
	})

	// ActiveSwitches counts successful active-account switches.
	ActiveSwitches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registrar_active_switches_total",
		Help: "Successful active-account switches.",
	})
)
