package commands

import (
	"fmt"

	"github.com/jonwraymond/lifeops/auth"
	"github.com/jonwraymond/lifeops/cache"
	"github.com/jonwraymond/lifeops/config"
	"github.com/jonwraymond/lifeops/health"
	"github.com/jonwraymond/lifeops/lifecycle"
	"github.com/jonwraymond/lifeops/observe"
	"github.com/jonwraymond/lifeops/units/httpserver"
	"github.com/jonwraymond/lifeops/units/postgres"
	"github.com/jonwraymond/lifeops/units/redis"
)

// stack is the assembled host: units registered with a lifecycle manager
// and a healthcheck aggregator over them.
type stack struct {
	manager    *lifecycle.Manager
	aggregator *health.Aggregator
	server     *httpserver.Server
}

// assemble builds the units named by cfg. PostgreSQL and Redis are services
// when configured; the HTTP server is the only entrypoint and is left out
// when withHTTP is false.
func assemble(cfg *config.Config, obs observe.Observer, withHTTP bool) (*stack, error) {
	logger := obs.Logger()
	tracer := observe.NewTracer(obs.Tracer())
	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	hb := health.NewBuilder(
		health.WithTimeout(cfg.HealthTimeout()),
		health.WithLogger(logger),
		health.WithTracer(tracer),
		health.WithMetrics(metrics),
	)
	lb := lifecycle.NewBuilder(
		lifecycle.WithConfig(cfg.LifecycleConfig()),
		lifecycle.WithLogger(logger),
		lifecycle.WithTracer(tracer),
		lifecycle.WithMetrics(metrics),
	).WithHealthchecks(hb)

	if cfg.Postgres.DSN != "" {
		lb.AddService("postgres", postgres.New(postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			ConnectRetries: cfg.Postgres.ConnectRetries,
		}, postgres.WithLogger(logger.With(observe.F("unit", "postgres")))))
	}

	var reportCache cache.Cache = cache.NewMemoryCache(cache.DefaultPolicy())
	if cfg.Redis.Addr != "" {
		rd := redis.New(redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, redis.WithLogger(logger.With(observe.F("unit", "redis"))))
		lb.AddService("redis", rd)
		reportCache = rd.Cache(cfg.ServiceName + ":")
	}

	hb.Add("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{
		CriticalThreshold: cfg.Health.MemoryThreshold,
	}))

	st := &stack{aggregator: hb.Build()}

	if withHTTP {
		st.server = httpserver.New(st.aggregator, httpserver.Config{
			Addr:              cfg.HTTP.Addr,
			HealthPath:        cfg.HTTP.HealthPath,
			ReadHeaderTimeout: millis(cfg.HTTP.ReadHeaderTimeoutMs),
			Health: health.HandlerConfig{
				Cache:    reportCache,
				CacheTTL: cfg.HealthCacheTTL(),
			},
			Authenticator: authenticator(cfg.HTTP),
			RequiredRole:  cfg.HTTP.RequiredRole,
		}, httpserver.WithLogger(logger.With(observe.F("unit", "http"))))
		lb.AddEntrypoint("http", st.server)
	}

	st.manager = lb.Build()
	return st, nil
}

// authenticator returns a JWT authenticator when a signing secret is set.
func authenticator(cfg config.HTTPConfig) auth.Authenticator {
	if cfg.JWTSecret == "" {
		return nil
	}
	return auth.NewJWTAuthenticator(auth.JWTConfig{
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		RolesClaim: "roles",
	}, auth.NewStaticKeyProvider([]byte(cfg.JWTSecret)))
}
