// If you are AI: This file builds the process-wide prometheus registry and the gauges/counters the pipeline records against.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles the process-wide prometheus collectors. Constructed once
// at start-up (cmd/videobot, cmd/videobot-recorder) and passed down to every component that
// records a metric, process-wide with an init-only lifecycle, using
// promauto.NewCounterVec/NewGaugeVec's curried-label pattern.
type Registry struct {
	reg *prometheus.Registry

	// MessagesSent counts bot output messages published, labeled by kind
	// (analysis/debug/control) and bot id. This is the "sent" metric by
	// kind from the bot instance's message drain.
	MessagesSent *prometheus.CounterVec

	// FramesDecoded counts frames successfully produced by the decoder
	// stage, labeled by pixel format.
	FramesDecoded *prometheus.CounterVec

	// FramesDropped counts frames dropped by the decoder (decode failure)
	// or the bus source (chunk gap), labeled by reason.
	FramesDropped *prometheus.CounterVec

	// BusReconnects counts resilient-client restarts, labeled by the
	// channel the restart was triggered from.
	BusReconnects *prometheus.CounterVec

	// SubscriptionsActive reports the live subscription count tracked by
	// the resilient bus client.
	SubscriptionsActive prometheus.Gauge
}

// New constructs a fresh Registry with all collectors registered against a
// private prometheus.Registry (never the global DefaultRegisterer), so
// tests can construct independent instances without collector collisions.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "videobot",
			Name:      "messages_sent_total",
			Help:      "Bot output messages published, by kind.",
		}, []string{"kind", "bot_id"}),
		FramesDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "videobot",
			Name:      "frames_decoded_total",
			Help:      "Frames successfully decoded, by pixel format.",
		}, []string{"pixel_format"}),
		FramesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "videobot",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped before reaching the bot instance, by reason.",
		}, []string{"reason"}),
		BusReconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "videobot",
			Name:      "bus_reconnects_total",
			Help:      "Resilient bus client restarts, by triggering channel.",
		}, []string{"channel"}),
		SubscriptionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "videobot",
			Name:      "bus_subscriptions_active",
			Help:      "Subscriptions currently recorded by the resilient bus client.",
		}),
	}
}

// Gatherer exposes the underlying prometheus.Gatherer for an HTTP exposition
// handler (wired in internal/svc/health alongside the /healthz route).
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
