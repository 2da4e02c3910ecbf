package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/lifeops/lifecycle"
	"github.com/jonwraymond/lifeops/observe"
	"github.com/jonwraymond/lifeops/secret"
)

// EnvPrefix prefixes every environment override, e.g.
// LIFEOPS_LIFECYCLE_STARTUP_TIMEOUT_MS.
const EnvPrefix = "LIFEOPS"

// Config is the host configuration.
type Config struct {
	ServiceName string          `mapstructure:"service_name" validate:"required"`
	Lifecycle   LifecycleConfig `mapstructure:"lifecycle"`
	Health      HealthConfig    `mapstructure:"health"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	HTTP        HTTPConfig      `mapstructure:"http"`
	Postgres    PostgresConfig  `mapstructure:"postgres"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Secrets     SecretsConfig   `mapstructure:"secrets"`
}

// LifecycleConfig bounds each startup and shutdown phase.
type LifecycleConfig struct {
	StartupTimeoutMs  int `mapstructure:"startup_timeout_ms" validate:"gte=0"`
	ShutdownTimeoutMs int `mapstructure:"shutdown_timeout_ms" validate:"gte=0"`
}

// HealthConfig configures the healthcheck aggregator and its endpoint.
type HealthConfig struct {
	TimeoutMs       int     `mapstructure:"timeout_ms" validate:"gte=0"`
	CacheTTLMs      int     `mapstructure:"cache_ttl_ms" validate:"gte=0"`
	MemoryThreshold float64 `mapstructure:"memory_threshold" validate:"gte=0,lte=1"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Exporter  string  `mapstructure:"exporter" validate:"oneof=otlp jaeger stdout none"`
	SamplePct float64 `mapstructure:"sample_pct" validate:"gte=0,lte=1"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter" validate:"oneof=otlp prometheus stdout none"`
}

// HTTPConfig configures the HTTP entrypoint. An empty JWTSecret leaves the
// detailed health endpoint unauthenticated.
type HTTPConfig struct {
	Addr                string `mapstructure:"addr" validate:"required"`
	HealthPath          string `mapstructure:"health_path" validate:"required,startswith=/"`
	ReadHeaderTimeoutMs int    `mapstructure:"read_header_timeout_ms" validate:"gte=0"`
	JWTSecret           string `mapstructure:"jwt_secret"`
	JWTIssuer           string `mapstructure:"jwt_issuer"`
	JWTAudience         string `mapstructure:"jwt_audience"`
	RequiredRole        string `mapstructure:"required_role"`
}

// PostgresConfig configures the PostgreSQL pool unit. An empty DSN disables
// the unit.
type PostgresConfig struct {
	DSN            string `mapstructure:"dsn"`
	MaxConns       int32  `mapstructure:"max_conns" validate:"gte=1"`
	ConnectRetries int    `mapstructure:"connect_retries" validate:"gte=0"`
}

// RedisConfig configures the Redis client unit. An empty Addr disables the
// unit.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// SecretsConfig selects the secret providers used to resolve secretref
// values. Keys name providers in secret.DefaultRegistry. The env provider is
// always available.
type SecretsConfig struct {
	Strict    bool                      `mapstructure:"strict"`
	Providers map[string]map[string]any `mapstructure:"providers"`
}

// Load reads configuration from path (optional), LIFEOPS_* environment
// variables and defaults, validates it, and resolves secret references in
// credential fields.
func Load(ctx context.Context, path string) (*Config, error) {
	v := viper.New()
	setupViper(v, path)
	setDefaults(v)

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	if err := ResolveSecrets(ctx, &cfg, secret.DefaultRegistry); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no
// environment overrides.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setupViper(v *viper.Viper, path string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "lifeopsd")

	v.SetDefault("lifecycle.startup_timeout_ms", lifecycle.DefaultStartupTimeout.Milliseconds())
	v.SetDefault("lifecycle.shutdown_timeout_ms", lifecycle.DefaultShutdownTimeout.Milliseconds())

	v.SetDefault("health.timeout_ms", 5000)
	v.SetDefault("health.cache_ttl_ms", 0)
	v.SetDefault("health.memory_threshold", 0.95)

	v.SetDefault("logging.level", "info")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.sample_pct", 1.0)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.exporter", "prometheus")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.health_path", "/health")
	v.SetDefault("http.read_header_timeout_ms", 5000)
	v.SetDefault("http.jwt_secret", "")
	v.SetDefault("http.jwt_issuer", "")
	v.SetDefault("http.jwt_audience", "")
	v.SetDefault("http.required_role", "")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 4)
	v.SetDefault("postgres.connect_retries", 3)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("secrets.strict", true)
}

// readConfigFile reads the file named by path. No path means environment
// and defaults only.
func readConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// LifecycleConfig converts the millisecond settings for lifecycle.NewManager.
func (c *Config) LifecycleConfig() lifecycle.Config {
	return lifecycle.Config{
		StartupTimeout:  millis(c.Lifecycle.StartupTimeoutMs),
		ShutdownTimeout: millis(c.Lifecycle.ShutdownTimeoutMs),
	}
}

// ObserveConfig converts the telemetry settings for observe.NewObserver.
func (c *Config) ObserveConfig(version string) observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Tracing.Enabled,
			Exporter:  c.Tracing.Exporter,
			SamplePct: c.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Metrics.Enabled,
			Exporter: c.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Logging.Level,
		},
	}
}

// HealthTimeout is the aggregator's per-run deadline.
func (c *Config) HealthTimeout() time.Duration {
	return millis(c.Health.TimeoutMs)
}

// HealthCacheTTL is how long a rendered health report is reused.
func (c *Config) HealthCacheTTL() time.Duration {
	return millis(c.Health.CacheTTLMs)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
