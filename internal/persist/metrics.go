// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package persist

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Save status labels.
const (
	SaveStatusSuccess = "success"
	SaveStatusError   = "error"
)

// DatastoreSaves is the counter for datastore save attempts.
var DatastoreSaves = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "claimflags_datastore_saves_total",
		Help: "Total number of flags file saves by status",
	},
	[]string{"status"},
)

// DatastoreLoadErrors counts entries rejected while loading the flags file.
var DatastoreLoadErrors = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "claimflags_datastore_load_errors_total",
		Help: "Total number of flags file entries rejected during load",
	},
)

// RegisterMetrics registers persist package metrics with the given Prometheus registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(DatastoreSaves)
	reg.MustRegister(DatastoreLoadErrors)
}
