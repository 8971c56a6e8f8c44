package realtime

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type hubMetrics struct {
	connections metric.Int64UpDownCounter
	events      metric.Int64Counter
	failures    metric.Int64Counter
	presence    metric.Int64Counter
	dropped     metric.Int64Counter
}

// newHubMetrics registers the hub instruments on the global meter provider.
// Without an SDK installed they are no-ops.
func newHubMetrics() *hubMetrics {
	meter := otel.Meter("household-rpg/realtime")
	connections, _ := meter.Int64UpDownCounter("realtime_connections",
		metric.WithDescription("Open websocket connections"))
	events, _ := meter.Int64Counter("realtime_events_total",
		metric.WithDescription("Inbound events handled"))
	failures, _ := meter.Int64Counter("realtime_event_errors_total",
		metric.WithDescription("Inbound events answered with an error event"))
	presence, _ := meter.Int64Counter("presence_transitions_total",
		metric.WithDescription("Online/offline transitions broadcast"))
	dropped, _ := meter.Int64Counter("realtime_dropped_events_total",
		metric.WithDescription("Outbound events dropped on a full send queue"))

	return &hubMetrics{
		connections: connections,
		events:      events,
		failures:    failures,
		presence:    presence,
		dropped:     dropped,
	}
}

func (m *hubMetrics) connected(delta int64) {
	m.connections.Add(context.Background(), delta)
}

func (m *hubMetrics) handled(event string) {
	m.events.Add(context.Background(), 1, metric.WithAttributes(attribute.String("event", event)))
}

func (m *hubMetrics) failed(event, code string) {
	m.failures.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("code", code),
	))
}

func (m *hubMetrics) transition(status string) {
	m.presence.Add(context.Background(), 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *hubMetrics) drop(event string) {
	m.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("event", event)))
}
