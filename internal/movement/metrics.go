// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package movement

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MovementEvents counts region crossings delivered to definitions.
var MovementEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claimflags_movement_events_total",
		Help: "Total number of movement events delivered to flag definitions",
	},
	[]string{"kind"},
)

// HookFailures counts movement hooks that returned an error.
var HookFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claimflags_movement_hook_failures_total",
		Help: "Total number of failed movement hooks",
	},
	[]string{"flag"},
)

// RegisterMetrics registers movement metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(MovementEvents)
	reg.MustRegister(HookFailures)
}
