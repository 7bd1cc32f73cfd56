package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
)

// setupTestMetrics sets up a test meter provider and returns it along with a reader.
func setupTestMetrics(t *testing.T) (*metric.ManualReader, *MetricsProvider) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithResource(resource.NewSchemaless()),
	)
	otel.SetMeterProvider(provider)

	mp := NewMetricsProvider(DefaultMetricsConfig())
	if mp.Error() != nil {
		t.Fatalf("failed to create metrics provider: %v", mp.Error())
	}

	return reader, mp
}

// collectMetric sums the int64 data points for a named metric.
func collectMetric(t *testing.T, reader *metric.ManualReader, name string) (int64, bool) {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s: expected Sum[int64], got %T", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total, true
		}
	}
	return 0, false
}

func TestNewMetricsProvider(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	defer reader.Shutdown(context.Background())

	if mp == nil {
		t.Fatal("NewMetricsProvider returned nil")
	}
	if mp.Error() != nil {
		t.Errorf("unexpected error: %v", mp.Error())
	}
}

func TestMetricsProvider_RecordRound(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	defer reader.Shutdown(context.Background())

	ctx := context.Background()

	mp.RecordRound(ctx, "session-1", "saop", 10*time.Millisecond)
	mp.RecordRound(ctx, "session-1", "saop", 12*time.Millisecond)

	total, found := collectMetric(t, reader, "negotiation.rounds")
	if !found {
		t.Fatal("negotiation.rounds metric not found")
	}
	if total != 2 {
		t.Errorf("expected 2 rounds, got %d", total)
	}
}

func TestMetricsProvider_RecordOffer(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	defer reader.Shutdown(context.Background())

	ctx := context.Background()

	mp.RecordOffer(ctx, "session-1", "buyer")
	mp.RecordOffer(ctx, "session-1", "seller")
	mp.RecordOffer(ctx, "session-1", "buyer")

	total, found := collectMetric(t, reader, "negotiation.offers")
	if !found {
		t.Fatal("negotiation.offers metric not found")
	}
	if total != 3 {
		t.Errorf("expected 3 offers, got %d", total)
	}
}

func TestMetricsProvider_RecordOutcome(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	defer reader.Shutdown(context.Background())

	ctx := context.Background()

	mp.RecordOutcome(ctx, "session-1", "agreed", time.Second)
	mp.RecordOutcome(ctx, "session-2", "broken", time.Second)
	mp.RecordOutcome(ctx, "session-3", "errored", time.Second)
	mp.RecordOutcome(ctx, "session-4", "timedout", time.Second)

	agreements, found := collectMetric(t, reader, "negotiation.agreements")
	if !found {
		t.Fatal("negotiation.agreements metric not found")
	}
	if agreements != 1 {
		t.Errorf("expected 1 agreement, got %d", agreements)
	}

	breaks, found := collectMetric(t, reader, "negotiation.breaks")
	if !found {
		t.Fatal("negotiation.breaks metric not found")
	}
	if breaks != 2 {
		t.Errorf("expected 2 breaks, got %d", breaks)
	}

	timeouts, found := collectMetric(t, reader, "negotiation.timeouts")
	if !found {
		t.Fatal("negotiation.timeouts metric not found")
	}
	if timeouts != 1 {
		t.Errorf("expected 1 timeout, got %d", timeouts)
	}
}

func TestMetricsProvider_RecordFault(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	defer reader.Shutdown(context.Background())

	ctx := context.Background()

	mp.RecordFault(ctx, "session-1", "buyer")

	total, found := collectMetric(t, reader, "negotiation.faults")
	if !found {
		t.Fatal("negotiation.faults metric not found")
	}
	if total != 1 {
		t.Errorf("expected 1 fault, got %d", total)
	}
}

func TestMetricsProvider_ActiveSessions(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	defer reader.Shutdown(context.Background())

	ctx := context.Background()

	mp.IncrementActiveSessions(ctx)
	mp.IncrementActiveSessions(ctx)
	mp.DecrementActiveSessions(ctx)

	total, found := collectMetric(t, reader, "negotiation.sessions.active")
	if !found {
		t.Fatal("negotiation.sessions.active metric not found")
	}
	if total != 1 {
		t.Errorf("expected 1 active session, got %d", total)
	}
}

func TestNoopMetricsProvider(t *testing.T) {
	t.Parallel()

	mp := &NoopMetricsProvider{}
	ctx := context.Background()

	// All methods should be safe to call.
	mp.RecordRound(ctx, "s", "saop", time.Millisecond)
	mp.RecordOffer(ctx, "s", "buyer")
	mp.RecordOutcome(ctx, "s", "agreed", time.Second)
	mp.RecordFault(ctx, "s", "buyer")
	mp.IncrementActiveSessions(ctx)
	mp.DecrementActiveSessions(ctx)
}
