// Package metrics registers the Prometheus collectors for the allocation
// services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BidderNumbersAssigned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bidder_numbers_assigned_total",
			Help: "Bidder numbers handed out by gap-filling assignment",
		},
	)

	BidderNumberSwaps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bidder_number_swaps_total",
			Help: "Reassignments that evicted an existing holder",
		},
	)

	BidderNumbersReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bidder_numbers_released_total",
			Help: "Bidder numbers released by cancellation",
		},
	)

	TableAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "table_assignments_total",
			Help: "Single-guest table assignments by result",
		},
		[]string{"result"},
	)

	AutoAssignGuests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auto_assign_guests_total",
			Help: "Guests processed by auto-assign, by outcome",
		},
		[]string{"outcome"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "allocation_operation_duration_seconds",
			Help:    "Duration of allocation operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// ObserveSince records the time elapsed since start for operation.
// Use as: defer metrics.ObserveSince("assign_bidder", time.Now())
func ObserveSince(operation string, start time.Time) {
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
