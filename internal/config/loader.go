package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "travelplanner.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if p := os.Getenv("TRAVEL_CONFIG"); p != "" {
		path = p
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "TRAVEL_PORT")
	setString(&cfg.Server.CORSOrigin, "TRAVEL_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "TRAVEL_REQUEST_TIMEOUT")

	setString(&cfg.Logging.Level, "TRAVEL_LOG_LEVEL")
	setString(&cfg.Logging.Service, "TRAVEL_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "TRAVEL_LOG_ASYNC")

	// LLM
	setString(&cfg.LLM.Provider, "TRAVEL_LLM_PROVIDER")
	setString(&cfg.LLM.APIKey, "TRAVEL_LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "TRAVEL_LLM_BASE_URL")
	setString(&cfg.LLM.DefaultModel, "TRAVEL_LLM_MODEL")
	setFloat64(&cfg.LLM.Temperature, "TRAVEL_LLM_TEMPERATURE")
	setInt64(&cfg.LLM.MaxTokens, "TRAVEL_LLM_MAX_TOKENS")
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "anthropic":
			setString(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
		default:
			setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
		}
	}

	setInt(&cfg.Breaker.MaxFailures, "TRAVEL_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "TRAVEL_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "TRAVEL_RATE_RPS")
	setInt(&cfg.Rate.Burst, "TRAVEL_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "TRAVEL_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "TRAVEL_RATE_MAX_IDLE_TIME")

	// Orchestrator
	setInt(&cfg.Orchestrator.MaxTurns, "TRAVEL_ORCH_MAX_TURNS")
	setDuration(&cfg.Orchestrator.StageTimeout, "TRAVEL_ORCH_STAGE_TIMEOUT")
	setDuration(&cfg.Orchestrator.RunTimeout, "TRAVEL_ORCH_RUN_TIMEOUT")
	setInt64(&cfg.Orchestrator.MaxConcurrentRuns, "TRAVEL_ORCH_MAX_CONCURRENT_RUNS")
	setInt(&cfg.Orchestrator.PreviewMessages, "TRAVEL_ORCH_PREVIEW_MESSAGES")
	setInt(&cfg.Orchestrator.PreviewChars, "TRAVEL_ORCH_PREVIEW_CHARS")

	setDuration(&cfg.Entitlement.CacheTTL, "TRAVEL_ENTITLEMENT_CACHE_TTL")
	setInt64(&cfg.Entitlement.CacheMaxBytes, "TRAVEL_ENTITLEMENT_CACHE_MAX_BYTES")
	setList(&cfg.Entitlement.PremiumEmails, "TRAVEL_ENTITLEMENT_PREMIUM_EMAILS")

	// Postgres
	setBool(&cfg.Postgres.Enabled, "TRAVEL_PG_ENABLED")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "TRAVEL_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "TRAVEL_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "TRAVEL_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "TRAVEL_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "TRAVEL_PG_HEALTH_CHECK")

	setBool(&cfg.NATS.Enabled, "TRAVEL_NATS_ENABLED")
	setString(&cfg.NATS.URL, "NATS_URL")

	setBool(&cfg.OTEL.Enabled, "TRAVEL_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "TRAVEL_OTEL_INSECURE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider %q is not supported", cfg.LLM.Provider)
	}
	if cfg.LLM.DefaultModel == "" {
		return errors.New("llm.default_model is required")
	}
	if cfg.Orchestrator.MaxTurns < 1 {
		return errors.New("orchestrator.max_turns must be >= 1")
	}
	if cfg.Orchestrator.MaxConcurrentRuns < 1 {
		return errors.New("orchestrator.max_concurrent_runs must be >= 1")
	}
	if cfg.Orchestrator.PreviewMessages < 1 {
		return errors.New("orchestrator.preview_messages must be >= 1")
	}
	if cfg.Orchestrator.PreviewChars < 1 {
		return errors.New("orchestrator.preview_chars must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.RequestsPerSecond <= 0 {
		return errors.New("rate.requests_per_second must be > 0")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Postgres.Enabled {
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required when postgres is enabled")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	}
	if cfg.NATS.Enabled && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when nats is enabled")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
