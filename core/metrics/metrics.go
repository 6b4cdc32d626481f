// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package metrics declares the Prometheus collectors exported on /metrics.

Collectors register with the default registry on package initialisation.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StoreAttempts counts data-access attempts by the class of their outcome.
	// Successful attempts are recorded with class "ok".
	StoreAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xeo_store_attempts_total",
			Help: "Total number of data-access attempts",
		},
		[]string{"class"},
	)

	// StoreRetriesExhausted counts operations that failed after their last retry.
	StoreRetriesExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xeo_store_retries_exhausted_total",
			Help: "Total number of data-access operations that ran out of retries",
		},
	)

	// StoreProbes counts connection health probes by result.
	StoreProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xeo_store_probes_total",
			Help: "Total number of database connection probes",
		},
		[]string{"result"},
	)

	// StoreReconnects counts reconnection attempts after a failed probe.
	StoreReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xeo_store_reconnects_total",
			Help: "Total number of database reconnection attempts",
		},
	)

	// LocaleDecisions counts locale routing decisions.
	LocaleDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xeo_locale_decisions_total",
			Help: "Total number of locale routing decisions",
		},
		[]string{"action", "locale"},
	)

	// HTTPRequests counts completed HTTP requests by status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xeo_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"status"},
	)

	// ThreadCacheLookups counts thread cache lookups by result ("hit" or "miss").
	ThreadCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xeo_thread_cache_lookups_total",
			Help: "Total number of thread cache lookups",
		},
		[]string{"result"},
	)

	// NotificationsPublished counts notifications handed to the broadcaster.
	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xeo_notifications_published_total",
			Help: "Total number of notifications published",
		},
		[]string{"kind"},
	)

	// LimiterRejections counts API writes refused by the rate limiter, by reason
	// ("rate" or "blocked").
	LimiterRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xeo_limiter_rejections_total",
			Help: "Total number of API requests refused by the rate limiter",
		},
		[]string{"reason"},
	)

	// TranslationTasks counts translation worker submissions by result.
	TranslationTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xeo_translation_tasks_total",
			Help: "Total number of translation tasks submitted to the worker",
		},
		[]string{"result"},
	)
)

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
