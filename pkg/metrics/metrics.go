// popbucket
// Copyright 2026 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

// Package metrics holds the Prometheus collectors exported by popbucket.
package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Session metrics
var (
	SessionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "popbucket_sessions_total",
			Help: "Total number of POP3 sessions accepted",
		},
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popbucket_commands_total",
			Help: "Total number of POP3 commands handled",
		},
		[]string{"verb", "result"},
	)
)

// Mailbox metrics, describing the snapshot of the current session.
var (
	MailboxMessages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "popbucket_mailbox_messages",
			Help: "Number of messages in the most recent mailbox snapshot",
		},
	)

	MailboxBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "popbucket_mailbox_bytes",
			Help: "Total size of the most recent mailbox snapshot in bytes",
		},
	)
)

// Storage metrics
var (
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popbucket_storage_operations_total",
			Help: "Total number of object storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "popbucket_storage_operation_duration_seconds",
			Help:    "Duration of object storage operations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"operation"},
	)
)

// Result labels for CommandsTotal.
const (
	ResultOK  = "ok"
	ResultErr = "err"
)

// NewHandler returns the HTTP handler that serves the default registry at
// /metrics.
func NewHandler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}
