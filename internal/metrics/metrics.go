package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	feedLines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harvestd",
			Subsystem: "feed",
			Name:      "lines_total",
			Help:      "Feed lines inspected, by outcome (event, rejected, unresolved, ambiguous).",
		}, []string{"outcome"},
	)
	eventsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harvestd",
			Subsystem: "lifecycle",
			Name:      "events_total",
			Help:      "Lifecycle transitions applied, by type.",
		}, []string{"type"},
	)
	failsafeRecoveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "harvestd",
			Subsystem: "lifecycle",
			Name:      "failsafe_recoveries_total",
			Help:      "Times the failsafe timer self-corrected a missed finish event.",
		},
	)
	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harvestd",
			Subsystem: "notify",
			Name:      "sent_total",
			Help:      "Notifications sent, by kind.",
		}, []string{"kind"},
	)
	notifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "harvestd",
			Subsystem: "notify",
			Name:      "failures_total",
			Help:      "Notification deliveries that failed and were dropped.",
		},
	)
	timersArmed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "harvestd",
			Subsystem: "sched",
			Name:      "timers_armed",
			Help:      "Currently pending timers across all farms.",
		},
	)
	trackedFarms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "harvestd",
			Subsystem: "registry",
			Name:      "farms",
			Help:      "Number of tracked farms.",
		},
	)
	snapshotSaves = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "harvestd",
			Subsystem: "store",
			Name:      "snapshot_saves_total",
			Help:      "Snapshot writes to the durable store.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{feedLines, eventsApplied, failsafeRecoveries, notifications, notifyFailures, timersArmed, trackedFarms, snapshotSaves}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncFeedLine(outcome string) {
	if regOK.Load() {
		feedLines.WithLabelValues(outcome).Inc()
	}
}

func IncEvent(typ string) {
	if regOK.Load() {
		eventsApplied.WithLabelValues(typ).Inc()
	}
}

func IncFailsafeRecovery() {
	if regOK.Load() {
		failsafeRecoveries.Inc()
	}
}

func IncNotification(kind string) {
	if regOK.Load() {
		notifications.WithLabelValues(kind).Inc()
	}
}

func IncNotifyFailure() {
	if regOK.Load() {
		notifyFailures.Inc()
	}
}

func SetTimersArmed(n int) {
	if regOK.Load() {
		timersArmed.Set(float64(n))
	}
}

func SetTrackedFarms(n int) {
	if regOK.Load() {
		trackedFarms.Set(float64(n))
	}
}

func IncSnapshotSave() {
	if regOK.Load() {
		snapshotSaves.Inc()
	}
}
