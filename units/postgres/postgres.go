// Package postgres provides a pgx connection pool as a lifecycle service
// unit. The pool is opened on Start, closed on Shutdown and checked with
// SELECT 1 on Healthcheck.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonwraymond/lifeops/health"
	"github.com/jonwraymond/lifeops/observe"
	"github.com/jonwraymond/lifeops/resilience"
)

// ErrNotStarted is reported by Healthcheck before Start succeeds.
var ErrNotStarted = errors.New("postgres: pool not started")

// Config configures the pool.
type Config struct {
	// DSN is a libpq connection string or postgres:// URL.
	DSN string

	// MaxConns caps the pool size.
	// Default: pgx default
	MaxConns int32

	// ConnectRetries is how many extra connection attempts Start makes.
	// Default: 0
	ConnectRetries int

	// RetryDelay is the initial delay between connection attempts.
	// Default: 200ms
	RetryDelay time.Duration
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// Pool is a pgx connection pool managed by the lifecycle engine.
type Pool struct {
	config Config
	logger observe.Logger

	mu   sync.Mutex // serializes adopt and Shutdown
	pool atomic.Pointer[pgxpool.Pool]
}

// New creates an unopened pool.
func New(cfg Config, opts ...Option) *Pool {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	p := &Pool{config: cfg, logger: observe.NopLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start opens the pool and verifies it with a ping, retrying with
// exponential backoff until ConnectRetries is exhausted or ctx ends.
func (p *Pool) Start(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(p.config.DSN)
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}
	if p.config.MaxConns > 0 {
		poolConfig.MaxConns = p.config.MaxConns
	}

	exec := resilience.NewExecutor(resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  p.config.ConnectRetries + 1,
		InitialDelay: p.config.RetryDelay,
		Jitter:       true,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			p.logger.Warn(ctx, "PostgreSQL connection failed, retrying",
				observe.F("attempt", attempt),
				observe.F("delay", delay.String()),
				observe.F("error", err),
			)
		},
	})))

	var pool *pgxpool.Pool
	err = exec.Execute(ctx, func(ctx context.Context) error {
		candidate, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := candidate.Ping(ctx); err != nil {
			candidate.Close()
			return fmt.Errorf("failed to ping PostgreSQL: %w", err)
		}
		pool = candidate
		return nil
	})
	if err != nil {
		return err
	}
	if err := p.adopt(ctx, pool); err != nil {
		return err
	}

	p.logger.Info(ctx, "PostgreSQL connection pool created",
		observe.F("host", poolConfig.ConnConfig.Host),
		observe.F("database", poolConfig.ConnConfig.Database),
		observe.F("max_conns", poolConfig.MaxConns),
	)
	return nil
}

// adopt installs pool unless ctx has already ended. A Start abandoned by
// its phase deadline can finish after the rollback Shutdown; the pool it
// opened is closed here instead of being installed.
func (p *Pool) adopt(ctx context.Context, pool *pgxpool.Pool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := resilience.ContextError(ctx); err != nil {
		pool.Close()
		return err
	}
	if old := p.pool.Swap(pool); old != nil {
		old.Close()
	}
	return nil
}

// Shutdown closes the pool. It waits for acquired connections to be
// released; the lifecycle engine bounds that wait.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	pool := p.pool.Swap(nil)
	p.mu.Unlock()
	if pool == nil {
		return nil
	}
	pool.Close()
	p.logger.Info(ctx, "PostgreSQL connection pool closed")
	return nil
}

// Healthcheck runs SELECT 1 on a pooled connection.
func (p *Pool) Healthcheck(ctx context.Context) health.Result {
	pool := p.pool.Load()
	if pool == nil {
		return health.Unhealthy(ErrNotStarted.Error(), ErrNotStarted)
	}

	result := health.PingCheck(func(ctx context.Context) error {
		var one int
		return pool.QueryRow(ctx, "SELECT 1").Scan(&one)
	}).Healthcheck(ctx)

	stat := pool.Stat()
	return result.WithDetails(map[string]any{
		"total_conns":    stat.TotalConns(),
		"idle_conns":     stat.IdleConns(),
		"acquired_conns": stat.AcquiredConns(),
		"max_conns":      stat.MaxConns(),
	})
}

// Pool returns the underlying pool, or nil before Start.
func (p *Pool) Pool() *pgxpool.Pool {
	return p.pool.Load()
}
