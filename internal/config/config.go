package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewPricingDefaultsHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	Timezone    string
	HTTPAddr    string
	NodeID      int64

	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBMetricsEnabled  bool

	Parking     ParkingConfig
	ReceiptText ReceiptTextConfig
	RateLimit   RateLimitConfig
}

// TelemetryConfig drives logging and OpenTelemetry export. Export stays off
// unless an OTLP endpoint is configured or OTEL_ENABLED forces it.
type TelemetryConfig struct {
	LogLevel      string
	LogFormat     string
	OTLPEndpoint  string
	OTLPProtocol  string
	SamplingRatio float64
	Export        bool
}

// ParkingConfig tunes the session lifecycle engine.
type ParkingConfig struct {
	TxMaxAttempts      int
	TxRetryInitial     time.Duration
	TxRetryMax         time.Duration
	ReceiptTextTimeout time.Duration
	SurchargeMode      string
}

// ReceiptTextConfig configures the OpenAI-compatible receipt text generator.
// An empty APIKey disables the generator and every receipt uses the template.
type ReceiptTextConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	EntryRate  float64
	EntryBurst int
}

const (
	SurchargeModeExcess = "excess"
	SurchargeModeFull   = "full"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	otlpEndpoint := strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""))
	otlpProtocol := getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "parkpro"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		Timezone:          getenv("APP_TIMEZONE", "UTC"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		NodeID:            int64(getenvInt("NODE_ID", 1)),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "parkpro"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "parkpro.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBMetricsEnabled:  getenvBool("DATABASE_METRICS_ENABLED", true),
		Telemetry: TelemetryConfig{
			LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			OTLPEndpoint:  otlpEndpoint,
			OTLPProtocol:  strings.ToLower(strings.TrimSpace(otlpProtocol)),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
			Export:        getenvBool("OTEL_ENABLED", otlpEndpoint != ""),
		},
		Parking: ParkingConfig{
			TxMaxAttempts:      getenvInt("PARKING_TX_MAX_ATTEMPTS", 5),
			TxRetryInitial:     getenvDuration("PARKING_TX_RETRY_INITIAL", 10*time.Millisecond),
			TxRetryMax:         getenvDuration("PARKING_TX_RETRY_MAX", 250*time.Millisecond),
			ReceiptTextTimeout: getenvDuration("PARKING_RECEIPT_TEXT_TIMEOUT", 3*time.Second),
			SurchargeMode:      normalizeSurchargeMode(getenv("PRICING_SURCHARGE_MODE", SurchargeModeExcess)),
		},
		ReceiptText: ReceiptTextConfig{
			APIKey:  strings.TrimSpace(getenv("RECEIPT_TEXT_API_KEY", "")),
			BaseURL: strings.TrimSpace(getenv("RECEIPT_TEXT_BASE_URL", "")),
			Model:   strings.TrimSpace(getenv("RECEIPT_TEXT_MODEL", "gpt-4o-mini")),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			EntryRate:     getenvFloat("RATE_LIMIT_ENTRY_RATE", 5),
			EntryBurst:    getenvInt("RATE_LIMIT_ENTRY_BURST", 10),
		},
	}

	return cfg
}

// Location resolves the configured business timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// IsDevelopment covers the environment names used on laptops and in CI.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func normalizeSurchargeMode(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case SurchargeModeFull:
		return SurchargeModeFull
	default:
		return SurchargeModeExcess
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
