package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	CORSAllowedOrigins []string

	// Issuer defaults fill header fields the invoicing form omits.
	IssuerRUC           string
	IssuerEstablishment string
	IssuerEmissionPoint string
	SRIEnvironment      string

	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	MetricsEnabled   bool
	TracingEnabled   bool
	TracingEndpoint  string
	TracingExporter  string
	TracingSampling  float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		IssuerRUC:           strings.TrimSpace(k.String("EMISOR_RUC")),
		IssuerEstablishment: valueOrDefault(k.String("EMISOR_ESTABLECIMIENTO"), "001"),
		IssuerEmissionPoint: valueOrDefault(k.String("EMISOR_PUNTO_EMISION"), "001"),
		SRIEnvironment:      valueOrDefault(k.String("SRI_AMBIENTE"), "test"),

		LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "facturacion"),
		MetricsEnabled:   parseBool(valueOrDefault(k.String("OBS_ENABLE_PROMETHEUS"), "true")),
		TracingEnabled:   parseBool(valueOrDefault(k.String("OBS_ENABLE_TRACING"), "false")),
		TracingEndpoint:  strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
		TracingSampling:  k.Float64("OBS_TRACING_SAMPLING_RATIO"),
	}

	switch cfg.SRIEnvironment {
	case "test", "production":
	default:
		return nil, fmt.Errorf("SRI_AMBIENTE must be test or production, got %q", cfg.SRIEnvironment)
	}
	if cfg.IssuerRUC != "" && len(cfg.IssuerRUC) != 13 {
		return nil, errors.New("EMISOR_RUC must be 13 digits")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := os.Setenv(key, env[key]); err != nil {
			return nil, err
		}
	}
	defer func() {
		for key, value := range original {
			_ = os.Setenv(key, value)
		}
	}()
	return Load()
}
