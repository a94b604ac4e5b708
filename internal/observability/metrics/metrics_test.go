package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("customer_class", "regular"),
		attribute.String("license_plate", "XYZ-123"),
		attribute.String("reason", "entry-rate"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "license_plate" {
			t.Fatalf("license_plate must never be a metric label")
		}
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.RecordSessionEntered(context.Background(), "regular")
	m.RecordCheckout(context.Background(), "regular", "daily", 10)
	m.RecordReceiptText(context.Background(), "fallback")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "parkpro"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.RecordSessionEntered(context.Background(), "monthly")
	m.RecordCheckout(context.Background(), "regular", "daily", 180)
}
