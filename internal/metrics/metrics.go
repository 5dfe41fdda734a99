// Package metrics holds the Prometheus collectors for the scoreboard.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "courtboard"

// Result label values.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
)

// Propagation channel label values.
const (
	ChannelLocal   = "local"
	ChannelStorage = "storage"
	ChannelTopic   = "topic"
	ChannelSocket  = "websocket"
)

type Metrics struct {
	registry           *prometheus.Registry
	controlOps         *prometheus.CounterVec
	stateWrites        *prometheus.CounterVec
	remoteFailures     prometheus.Counter
	propagationDropped *prometheus.CounterVec
	pollFetches        *prometheus.CounterVec
	websocketClients   prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		controlOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_operations_total",
			Help:      "Control operations applied to a court, by operation and result.",
		}, []string{"op", "result"}),
		stateWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_writes_total",
			Help:      "Writes to the durable match store, by result.",
		}, []string{"result"}),
		remoteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_forward_failures_total",
			Help:      "Failed forwards of a written match to the remote endpoint.",
		}),
		propagationDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagation_dropped_total",
			Help:      "Change notifications dropped, by channel.",
		}, []string{"channel"}),
		pollFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_fetches_total",
			Help:      "Remote endpoint polls by display surfaces, by result.",
		}, []string{"result"}),
		websocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected browser surfaces.",
		}),
	}
	reg.MustRegister(
		m.controlOps,
		m.stateWrites,
		m.remoteFailures,
		m.propagationDropped,
		m.pollFetches,
		m.websocketClients,
	)
	return m
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// ControlOperation counts one control operation.
func (m *Metrics) ControlOperation(op string, err error) {
	if m == nil {
		return
	}
	m.controlOps.WithLabelValues(op, resultOf(err)).Inc()
}

// StateWrite counts one durable write.
func (m *Metrics) StateWrite(err error) {
	if m == nil {
		return
	}
	m.stateWrites.WithLabelValues(resultOf(err)).Inc()
}

func (m *Metrics) RemoteForwardFailed() {
	if m == nil {
		return
	}
	m.remoteFailures.Inc()
}

func (m *Metrics) PropagationDropped(channel string) {
	if m == nil {
		return
	}
	m.propagationDropped.WithLabelValues(channel).Inc()
}

// PollFetch counts one poll with a Result* label value.
func (m *Metrics) PollFetch(result string) {
	if m == nil {
		return
	}
	m.pollFetches.WithLabelValues(result).Inc()
}

func (m *Metrics) SetWebsocketClients(n int) {
	if m == nil {
		return
	}
	m.websocketClients.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
