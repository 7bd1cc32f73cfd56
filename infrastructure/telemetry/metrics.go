// Package telemetry provides OpenTelemetry metrics for the negotiation
// runtime.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	rounds     metric.Int64Counter
	offers     metric.Int64Counter
	agreements metric.Int64Counter
	breaks     metric.Int64Counter
	timeouts   metric.Int64Counter
	faults     metric.Int64Counter

	// Histograms
	roundDuration   metric.Float64Histogram
	sessionDuration metric.Float64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	activeSessions metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/negotiate-go").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Attributes are default attributes to attach to all metrics.
	Attributes []attribute.KeyValue
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/negotiate-go",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	provider := otel.GetMeterProvider()
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	// Counters
	mp.rounds, err = mp.meter.Int64Counter(
		"negotiation.rounds",
		metric.WithDescription("Number of completed negotiation rounds"),
		metric.WithUnit("{round}"),
	)
	if err != nil {
		return err
	}

	mp.offers, err = mp.meter.Int64Counter(
		"negotiation.offers",
		metric.WithDescription("Number of offers proposed"),
		metric.WithUnit("{offer}"),
	)
	if err != nil {
		return err
	}

	mp.agreements, err = mp.meter.Int64Counter(
		"negotiation.agreements",
		metric.WithDescription("Number of sessions ending in agreement"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	mp.breaks, err = mp.meter.Int64Counter(
		"negotiation.breaks",
		metric.WithDescription("Number of sessions ending without agreement"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	mp.timeouts, err = mp.meter.Int64Counter(
		"negotiation.timeouts",
		metric.WithDescription("Number of sessions ending on budget exhaustion"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	mp.faults, err = mp.meter.Int64Counter(
		"negotiation.faults",
		metric.WithDescription("Number of absorbed negotiator faults"),
		metric.WithUnit("{fault}"),
	)
	if err != nil {
		return err
	}

	// Histograms
	mp.roundDuration, err = mp.meter.Float64Histogram(
		"negotiation.round.duration",
		metric.WithDescription("Duration of negotiation rounds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.sessionDuration, err = mp.meter.Float64Histogram(
		"negotiation.session.duration",
		metric.WithDescription("Duration of negotiation sessions"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	// Gauges (UpDownCounters)
	mp.activeSessions, err = mp.meter.Int64UpDownCounter(
		"negotiation.sessions.active",
		metric.WithDescription("Number of running negotiation sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordRound records a completed round.
func (mp *MetricsProvider) RecordRound(ctx context.Context, sessionID, protocol string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("session.id", sessionID),
		attribute.String("protocol", protocol),
	}

	mp.rounds.Add(ctx, 1, metric.WithAttributes(attrs...))
	mp.roundDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordOffer records a proposed offer.
func (mp *MetricsProvider) RecordOffer(ctx context.Context, sessionID, negotiator string) {
	attrs := []attribute.KeyValue{
		attribute.String("session.id", sessionID),
		attribute.String("negotiator", negotiator),
	}

	mp.offers.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordOutcome records a terminal session phase with the session duration.
func (mp *MetricsProvider) RecordOutcome(ctx context.Context, sessionID, phase string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("session.id", sessionID),
		attribute.String("phase", phase),
	}

	switch phase {
	case "agreed":
		mp.agreements.Add(ctx, 1, metric.WithAttributes(attrs...))
	case "broken", "errored":
		mp.breaks.Add(ctx, 1, metric.WithAttributes(attrs...))
	case "timedout":
		mp.timeouts.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	mp.sessionDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordFault records an absorbed negotiator fault.
func (mp *MetricsProvider) RecordFault(ctx context.Context, sessionID, negotiator string) {
	attrs := []attribute.KeyValue{
		attribute.String("session.id", sessionID),
		attribute.String("negotiator", negotiator),
	}

	mp.faults.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// IncrementActiveSessions increments the active sessions gauge.
func (mp *MetricsProvider) IncrementActiveSessions(ctx context.Context) {
	mp.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions decrements the active sessions gauge.
func (mp *MetricsProvider) DecrementActiveSessions(ctx context.Context) {
	mp.activeSessions.Add(ctx, -1)
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordRound is a no-op.
func (n *NoopMetricsProvider) RecordRound(ctx context.Context, sessionID, protocol string, duration time.Duration) {
}

// RecordOffer is a no-op.
func (n *NoopMetricsProvider) RecordOffer(ctx context.Context, sessionID, negotiator string) {}

// RecordOutcome is a no-op.
func (n *NoopMetricsProvider) RecordOutcome(ctx context.Context, sessionID, phase string, duration time.Duration) {
}

// RecordFault is a no-op.
func (n *NoopMetricsProvider) RecordFault(ctx context.Context, sessionID, negotiator string) {}

// IncrementActiveSessions is a no-op.
func (n *NoopMetricsProvider) IncrementActiveSessions(ctx context.Context) {}

// DecrementActiveSessions is a no-op.
func (n *NoopMetricsProvider) DecrementActiveSessions(ctx context.Context) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordRound(ctx context.Context, sessionID, protocol string, duration time.Duration)
	RecordOffer(ctx context.Context, sessionID, negotiator string)
	RecordOutcome(ctx context.Context, sessionID, phase string, duration time.Duration)
	RecordFault(ctx context.Context, sessionID, negotiator string)
	IncrementActiveSessions(ctx context.Context)
	DecrementActiveSessions(ctx context.Context)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
