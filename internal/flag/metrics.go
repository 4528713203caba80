// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package flag

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Operation and status labels for flag write metrics.
const (
	OperationSet    = "set"
	OperationUnset  = "unset"
	OperationRemove = "remove"

	StatusSuccess  = "success"
	StatusRejected = "rejected"
)

// FlagWrites is the counter for flag write requests.
// Use RegisterMetrics to register this with a Prometheus registry.
var FlagWrites = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claimflags_flag_writes_total",
		Help: "Total number of flag write requests",
	},
	[]string{"flag", "operation", "status"},
)

var activeInstances = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "claimflags_flag_active_instances",
		Help: "Number of scopes where a flag is currently active",
	},
	[]string{"flag"},
)

// RegisterMetrics registers flag package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(FlagWrites)
	reg.MustRegister(activeInstances)
}

func recordWrite(flag, operation, status string) {
	FlagWrites.WithLabelValues(flag, operation, status).Inc()
}
