package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "")
	t.Setenv("PRICING_SURCHARGE_MODE", "")
	t.Setenv("PARKING_TX_MAX_ATTEMPTS", "")
	t.Setenv("NODE_ID", "")
	t.Setenv("APP_SERVICE", "")
	t.Setenv("RATE_LIMIT_ENABLED", "")

	cfg := Load()
	assert.Equal(t, "parkpro", cfg.AppName)
	assert.Equal(t, int64(1), cfg.NodeID)
	assert.False(t, cfg.Telemetry.Export, "no endpoint means no export")
	assert.Equal(t, "grpc", cfg.Telemetry.OTLPProtocol)
	assert.Equal(t, SurchargeModeExcess, cfg.Parking.SurchargeMode)
	assert.Equal(t, 5, cfg.Parking.TxMaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.Parking.ReceiptTextTimeout)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "HTTP")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "")
	t.Setenv("PRICING_SURCHARGE_MODE", " Full ")
	t.Setenv("PARKING_TX_RETRY_INITIAL", "not-a-duration")
	t.Setenv("NODE_ID", "7")
	t.Setenv("RATE_LIMIT_ENTRY_RATE", "2.5")

	cfg := Load()
	assert.True(t, cfg.Telemetry.Export)
	assert.Equal(t, "http", cfg.Telemetry.OTLPProtocol)
	assert.Equal(t, SurchargeModeFull, cfg.Parking.SurchargeMode)
	assert.Equal(t, 10*time.Millisecond, cfg.Parking.TxRetryInitial, "bad durations fall back")
	assert.Equal(t, int64(7), cfg.NodeID)
	assert.InDelta(t, 2.5, cfg.RateLimit.EntryRate, 1e-9)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.UTC, Config{}.Location())
	assert.Equal(t, time.UTC, Config{Timezone: "Mars/Olympus"}.Location())
	assert.Equal(t, "Asia/Kolkata", Config{Timezone: "Asia/Kolkata"}.Location().String())
}

func TestIsDevelopment(t *testing.T) {
	assert.True(t, Config{Environment: "Local"}.IsDevelopment())
	assert.False(t, Config{Environment: "production"}.IsDevelopment())
	assert.True(t, Config{Environment: "production"}.IsProduction())
}
