// Package metrics exposes relay counters in the Prometheus text format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons recorded on roomsync_events_dropped_total.
const (
	ReasonInvalid      = "invalid"
	ReasonSpoofed      = "spoofed_sender"
	ReasonUnauthorized = "unauthorized"
	ReasonRateLimited  = "rate_limited"
	ReasonTooLarge     = "too_large"
	ReasonSlowConsumer = "slow_consumer"
	ReasonHubFull      = "hub_full"
)

// Metrics owns a private registry so several relays can live in one process.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	connections   *prometheus.GaugeVec
	routed        *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	backplaneMsgs *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "roomsync",
			Name:      "connections",
			Help:      "Open websocket connections by role.",
		}, []string{"role"}),
		routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roomsync",
			Name:      "events_routed_total",
			Help:      "Frames accepted and fanned out, by event kind.",
		}, []string{"kind"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roomsync",
			Name:      "events_dropped_total",
			Help:      "Frames rejected or not delivered, by reason.",
		}, []string{"reason"}),
		backplaneMsgs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roomsync",
			Name:      "backplane_messages_total",
			Help:      "Frames exchanged with other relay instances.",
		}, []string{"direction"}),
	}
	m.registry.MustRegister(
		m.connections, m.routed, m.dropped, m.backplaneMsgs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ConnectionOpened(role string) {
	if m != nil {
		m.connections.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) ConnectionClosed(role string) {
	if m != nil {
		m.connections.WithLabelValues(role).Dec()
	}
}

func (m *Metrics) Routed(kind string) {
	if m != nil {
		m.routed.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Dropped(reason string) {
	if m != nil {
		m.dropped.WithLabelValues(reason).Inc()
	}
}

// Backplane counts frames published ("out") or received ("in").
func (m *Metrics) Backplane(direction string) {
	if m != nil {
		m.backplaneMsgs.WithLabelValues(direction).Inc()
	}
}

// DroppedCounter returns the dropped counter for reason.
func (m *Metrics) DroppedCounter(reason string) prometheus.Counter {
	return m.dropped.WithLabelValues(reason)
}

// RoutedCounter returns the routed counter for kind.
func (m *Metrics) RoutedCounter(kind string) prometheus.Counter {
	return m.routed.WithLabelValues(kind)
}
