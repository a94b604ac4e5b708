package observability

import (
	"strings"

	"github.com/smallbiznis/parkpro/internal/config"
)

const defaultServiceName = "parkpro"

// Config is the slice of application configuration the logger, tracer and
// meter providers need.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64

	development bool
}

func LoadConfig(cfg config.Config) Config {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = defaultServiceName
	}
	tel := cfg.Telemetry
	protocol := tel.OTLPProtocol
	if protocol == "" {
		protocol = "grpc"
	}
	ratio := tel.SamplingRatio
	if ratio < 0 || ratio > 1 {
		ratio = 1
	}

	return Config{
		ServiceName:          name,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             tel.LogLevel,
		LogFormat:            tel.LogFormat,
		OtelEnabled:          tel.Export && tel.OTLPEndpoint != "",
		OtelExporterEndpoint: tel.OTLPEndpoint,
		OtelExporterProtocol: protocol,
		OtelSamplingRatio:    ratio,
		development:          cfg.IsDevelopment(),
	}
}

// Debug turns on verbose request logging and stack traces.
func (c Config) Debug() bool {
	return c.development || strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug")
}
