package session

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"gemini-terminal/internal/logging"
	"gemini-terminal/internal/telemetry"
)

type sessionMetrics struct {
	sent      metric.Int64Counter
	replies   metric.Int64Counter
	failures  metric.Int64Counter
	discarded metric.Int64Counter
	latency   metric.Float64Histogram
}

func newSessionMetrics() *sessionMetrics {
	meter := telemetry.Meter()
	return &sessionMetrics{
		sent:      counter(meter, "chat.turns.sent", "User messages dispatched"),
		replies:   counter(meter, "chat.turns.replied", "Assistant replies appended"),
		failures:  counter(meter, "chat.turns.failed", "Turns that ended in a transport error"),
		discarded: counter(meter, "chat.turns.discarded", "Replies dropped after clear or cancel"),
		latency:   histogram(meter, "chat.turn.duration", "Round trip of one turn"),
	}
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		logging.Debug("Failed to create counter %s: %v", name, err)
		return noop.Int64Counter{}
	}
	return c
}

func histogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		logging.Debug("Failed to create histogram %s: %v", name, err)
		return noop.Float64Histogram{}
	}
	return h
}
