// Package metrics provides Prometheus metrics for the camera session.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// States exported by the state gauge. Kept in sync with session.State.
var States = []string{"idle", "connecting", "bound", "previewing", "terminated"}

var (
	sessionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "camsession",
		Subsystem: "session",
		Name:      "state",
		Help:      "1 for the current controller state, 0 otherwise",
	}, []string{"state"})

	sessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camsession",
		Subsystem: "session",
		Name:      "transitions_total",
		Help:      "Controller state transitions",
	}, []string{"from", "to"})

	connectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camsession",
		Subsystem: "session",
		Name:      "connect_failures_total",
		Help:      "Connect attempts abandoned, by reason",
	}, []string{"reason"})

	camerasOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camsession",
		Subsystem: "camera",
		Name:      "opened_total",
		Help:      "Camera resources opened",
	})

	camerasDestroyed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camsession",
		Subsystem: "camera",
		Name:      "destroyed_total",
		Help:      "Camera resources destroyed",
	})

	camerasOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "camsession",
		Subsystem: "camera",
		Name:      "open",
		Help:      "Camera resources currently open",
	})

	closesAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camsession",
		Subsystem: "camera",
		Name:      "closes_abandoned_total",
		Help:      "Native closes that outlived the destroy timeout",
	})

	closesPending = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "camsession",
		Subsystem: "camera",
		Name:      "closes_pending",
		Help:      "Abandoned native closes still running",
	})

	streamsEnded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "camsession",
		Subsystem: "camera",
		Name:      "streams_ended_total",
		Help:      "Streams that stopped without a stop request",
	})

	deviceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camsession",
		Subsystem: "devices",
		Name:      "events_total",
		Help:      "Device source notifications, by action",
	}, []string{"action"})
)

// SetState marks state as the current controller state.
func SetState(state string) {
	for _, s := range States {
		v := 0.0
		if s == state {
			v = 1
		}
		sessionState.WithLabelValues(s).Set(v)
	}
}

// ObserveTransition counts a transition and updates the state gauge.
func ObserveTransition(from, to string) {
	sessionTransitions.WithLabelValues(from, to).Inc()
	SetState(to)
}

// ObserveConnectFailure counts an abandoned connect attempt.
func ObserveConnectFailure(reason string) {
	connectFailures.WithLabelValues(reason).Inc()
}

// ObserveCameraOpened counts a camera resource that reached the driver.
func ObserveCameraOpened() {
	camerasOpened.Inc()
	camerasOpen.Inc()
}

// ObserveCameraDestroyed counts a destroyed camera resource.
func ObserveCameraDestroyed() {
	camerasDestroyed.Inc()
	camerasOpen.Dec()
}

// ObserveCloseAbandoned counts a native close that timed out and keeps
// running in the background.
func ObserveCloseAbandoned() {
	closesAbandoned.Inc()
	closesPending.Inc()
}

// ObserveAbandonedCloseFinished marks a background close as finished.
func ObserveAbandonedCloseFinished() {
	closesPending.Dec()
}

// ObserveStreamEnded counts a stream the device ended on its own.
func ObserveStreamEnded() {
	streamsEnded.Inc()
}

// ObserveDeviceEvent counts a device source notification.
func ObserveDeviceEvent(action string) {
	deviceEvents.WithLabelValues(action).Inc()
}

// HTTPHandler returns the Prometheus metrics HTTP handler.
func HTTPHandler() http.Handler {
	return promhttp.Handler()
}
