package observe

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func lifeopsConfig() Config {
	return Config{
		ServiceName: "lifeopsd",
		Version:     "1.0.0",
		Tracing:     TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1.0},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "stdout"},
		Logging:     LoggingConfig{Enabled: true, Level: "info"},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, ErrMissingServiceName},
		{"unknown tracing exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, ErrInvalidTracingExporter},
		{"unknown metrics exporter", func(c *Config) { c.Metrics.Exporter = "statsd" }, ErrInvalidMetricsExporter},
		{"sample pct above one", func(c *Config) { c.Tracing.SamplePct = 1.5 }, ErrInvalidSamplePct},
		{"sample pct negative", func(c *Config) { c.Tracing.SamplePct = -0.1 }, ErrInvalidSamplePct},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
		{"disabled tracing skips exporter", func(c *Config) {
			c.Tracing = TracingConfig{Exporter: "zipkin", SamplePct: 7}
		}, nil},
		{"disabled logging skips level", func(c *Config) {
			c.Logging = LoggingConfig{Level: "verbose"}
		}, nil},
		{"empty names allowed", func(c *Config) {
			c.Tracing.Exporter, c.Metrics.Exporter, c.Logging.Level = "", "", ""
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := lifeopsConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.want == nil && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewObserver_Disabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "lifeopsd"})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	if obs.Tracer() == nil || obs.Meter() == nil || obs.Logger() == nil {
		t.Fatal("disabled observer must still hand out no-op primitives")
	}

	// No-op primitives accept calls without panicking.
	ctx, span := obs.Tracer().Start(context.Background(), "start")
	span.End()
	obs.Logger().Info(ctx, "ignored")
	if err := obs.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v, want nil", err)
	}
}

func TestNewObserver_Enabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), lifeopsConfig())
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	if obs.Tracer() == nil || obs.Meter() == nil || obs.Logger() == nil {
		t.Error("enabled observer returned a nil primitive")
	}
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v, want nil", err)
	}
}

func TestNewObserver_InvalidConfig(t *testing.T) {
	_, err := NewObserver(context.Background(), Config{})
	if !errors.Is(err, ErrMissingServiceName) {
		t.Errorf("NewObserver() error = %v, want ErrMissingServiceName", err)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.25, "ParentBased{root:TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		got := sampler(tt.pct).Description()
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("sampler(%v).Description() = %q, want prefix %q", tt.pct, got, tt.want)
		}
	}
}

func TestNewObserver_InstanceLogged(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{
		ServiceName: "lifeopsd",
		InstanceID:  "replica-1",
		Logging:     LoggingConfig{Enabled: true, Level: "error"},
	})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	defer func() { _ = obs.Shutdown(context.Background()) }()

	if _, ok := obs.Logger().(*zapLogger); !ok {
		t.Errorf("Logger() = %T, want *zapLogger", obs.Logger())
	}
}
