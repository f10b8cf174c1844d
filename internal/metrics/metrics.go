// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package metrics provides Prometheus instrumentation for Catalogus:
// activity appends, feed query latency, dispatcher outcomes and the
// HTTP surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActivityAppends counts persisted activities by kind.
	ActivityAppends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogus_activity_appends_total",
			Help: "Total number of activities appended to the event store",
		},
		[]string{"kind"},
	)

	// ActivityPurged counts rows removed by administrative purges.
	ActivityPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalogus_activity_purged_total",
			Help: "Total number of activities removed by purge operations",
		},
	)

	// QueryDuration observes feed query latency by query name
	// (by_dataset, by_group, by_user, dashboard).
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogus_query_duration_seconds",
			Help:    "Duration of feed queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// DispatchOutcomes counts subscription-dispatcher results:
	// appended, reclassified, suppressed, invalid, failed.
	DispatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogus_dispatch_outcomes_total",
			Help: "Total number of domain events dispatched, by outcome",
		},
		[]string{"outcome"},
	)

	// DashboardUnreadQueries counts unread-count derivations.
	DashboardUnreadQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalogus_dashboard_unread_queries_total",
			Help: "Total number of dashboard unread-count computations",
		},
	)

	// APIRequestsTotal counts HTTP requests by method, route and status.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogus_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	// APIRequestDuration observes HTTP request latency by route.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogus_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveRequest records one HTTP request.
func ObserveRequest(method, route string, status int, took time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}
