package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "travelsync"

// Metrics holds all travelsync metric instruments. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	FramesReceived  metric.Int64Counter
	FramesDropped   metric.Int64Counter
	Reconnects      metric.Int64Counter
	Commands        metric.Int64Counter
	CommandsFailed  metric.Int64Counter
	CommandDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.GetMeterProvider())
}

// NewMetricsFrom creates all metric instruments on mp.
func NewMetricsFrom(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.FramesReceived, err = meter.Int64Counter("travelsync.frames.received",
		metric.WithDescription("Push frames decoded and reconciled"))
	if err != nil {
		return nil, err
	}

	m.FramesDropped, err = meter.Int64Counter("travelsync.frames.dropped",
		metric.WithDescription("Push frames dropped because they failed to decode"))
	if err != nil {
		return nil, err
	}

	m.Reconnects, err = meter.Int64Counter("travelsync.reconnects",
		metric.WithDescription("Reconnect attempts scheduled after the push channel closed"))
	if err != nil {
		return nil, err
	}

	m.Commands, err = meter.Int64Counter("travelsync.commands",
		metric.WithDescription("Commands issued against the remote journey engine"))
	if err != nil {
		return nil, err
	}

	m.CommandsFailed, err = meter.Int64Counter("travelsync.commands.failed",
		metric.WithDescription("Commands that failed, locally or remotely"))
	if err != nil {
		return nil, err
	}

	m.CommandDuration, err = meter.Float64Histogram("travelsync.command.duration_seconds",
		metric.WithDescription("Command round trip duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// FrameReceived records a reconciled push frame of the given type.
func (m *Metrics) FrameReceived(ctx context.Context, frameType string) {
	if m == nil {
		return
	}
	m.FramesReceived.Add(ctx, 1, metric.WithAttributes(attribute.String("frame.type", frameType)))
}

// FrameDropped records an undecodable push frame.
func (m *Metrics) FrameDropped(ctx context.Context) {
	if m == nil {
		return
	}
	m.FramesDropped.Add(ctx, 1)
}

// Reconnect records a scheduled reconnect attempt.
func (m *Metrics) Reconnect(ctx context.Context) {
	if m == nil {
		return
	}
	m.Reconnects.Add(ctx, 1)
}

// CommandDone records one finished command.
func (m *Metrics) CommandDone(ctx context.Context, command string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("command", command))
	m.Commands.Add(ctx, 1, attrs)
	if err != nil {
		m.CommandsFailed.Add(ctx, 1, attrs)
	}
	m.CommandDuration.Record(ctx, elapsed.Seconds(), attrs)
}
