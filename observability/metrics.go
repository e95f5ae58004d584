// Package observability exposes the Prometheus collectors of a node.
package observability

import (
	"cube-race/domain"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cube_race"

// Command outcomes used as the status label.
const (
	StatusOK       = "ok"
	StatusRejected = "rejected"
	StatusPanic    = "panic"
)

type Metrics struct {
	Registry *prometheus.Registry

	CommandsTotal     *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec
	ActiveProcessors  prometheus.Gauge
	QueuePopTimeouts  prometheus.Counter
	QueuedCommands    prometheus.Gauge
	BroadcastFailures prometheus.Counter
	GatewayRequests   *prometheus.CounterVec
	ProcessRSSBytes   prometheus.Gauge
	ProcessCPUPercent prometheus.Gauge
}

// NewMetrics registers every collector on a fresh registry, so that tests
// and several nodes in one process never collide.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Room commands processed, by command and outcome.",
		}, []string{"command", "status"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent handling one room command.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"command"}),
		ActiveProcessors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_processors",
			Help:      "Room processors currently holding their room lease on this node.",
		}),
		QueuePopTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_pop_timeouts_total",
			Help:      "Queue pops that returned empty after the pop timeout.",
		}),
		QueuedCommands: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queued_commands",
			Help:      "Commands waiting in the queues of the rooms owned by this node.",
		}),
		BroadcastFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_failures_total",
			Help:      "Room events that could not be published.",
		}),
		GatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Client commands received by the gateway, by outcome.",
		}, []string{"status"}),
		ProcessRSSBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_rss_bytes",
			Help:      "Resident memory of the node, sampled by the heartbeat.",
		}),
		ProcessCPUPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_cpu_percent",
			Help:      "CPU usage of the node, sampled by the heartbeat.",
		}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		m.CommandsTotal,
		m.CommandDuration,
		m.ActiveProcessors,
		m.QueuePopTimeouts,
		m.QueuedCommands,
		m.BroadcastFailures,
		m.GatewayRequests,
		m.ProcessRSSBytes,
		m.ProcessCPUPercent,
	)
	return m
}

func (m *Metrics) ObserveCommand(command domain.CommandName, status string, elapsed time.Duration) {
	m.CommandsTotal.WithLabelValues(string(command), status).Inc()
	m.CommandDuration.WithLabelValues(string(command)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
