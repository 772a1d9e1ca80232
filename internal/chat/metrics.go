package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the hub's counters and gauges. Register once per process
// (or per test registry) via NewMetrics.
type Metrics struct {
	// EventsTotal counts inbound events by kind.
	EventsTotal *prometheus.CounterVec

	// DeliveredTotal counts frames pushed onto a client send path.
	DeliveredTotal prometheus.Counter

	// DroppedTotal counts frames dropped because a send path was full.
	DroppedTotal prometheus.Counter

	// MalformedTotal counts inbound frames that failed to decode.
	MalformedTotal prometheus.Counter

	// UndeliverableTotal counts private messages whose channel id did not
	// resolve to exactly two participants. The history append still happens;
	// this counter is the only trace of the lost delivery.
	UndeliverableTotal prometheus.Counter

	// ConnectedClients gauges open websocket connections, joined or not.
	ConnectedClients prometheus.Gauge

	// PresentUsers gauges identities in the presence registry.
	PresentUsers prometheus.Gauge

	// RelayPublished and RelayReceived count cross-instance relay traffic.
	RelayPublished prometheus.Counter
	RelayReceived  prometheus.Counter
}

// NewMetrics creates and registers all hub metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchroom_events_total",
				Help: "Inbound events processed by kind",
			},
			[]string{"kind"},
		),
		DeliveredTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "watchroom_deliveries_total",
			Help: "Frames delivered to client send buffers",
		}),
		DroppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "watchroom_dropped_sends_total",
			Help: "Frames dropped because a client send buffer was full",
		}),
		MalformedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "watchroom_malformed_frames_total",
			Help: "Inbound frames that could not be decoded",
		}),
		UndeliverableTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "watchroom_undeliverable_total",
			Help: "Private messages stored but delivered to no one",
		}),
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "watchroom_connected_clients",
			Help: "Open websocket connections",
		}),
		PresentUsers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "watchroom_present_users",
			Help: "Identities currently in the presence registry",
		}),
		RelayPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "watchroom_relay_published_total",
			Help: "Frames mirrored to the redis relay channel",
		}),
		RelayReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "watchroom_relay_received_total",
			Help: "Foreign frames received from the redis relay channel",
		}),
	}
}
