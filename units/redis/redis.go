// Package redis provides a go-redis client as a lifecycle service unit. The
// client connects on Start, closes on Shutdown and answers Healthcheck with
// PING.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/jonwraymond/lifeops/cache"
	"github.com/jonwraymond/lifeops/health"
	"github.com/jonwraymond/lifeops/observe"
	"github.com/jonwraymond/lifeops/resilience"
)

// ErrNotStarted is reported by Healthcheck before Start succeeds.
var ErrNotStarted = errors.New("redis: client not started")

// Config configures the client.
type Config struct {
	Addr     string
	Password string
	DB       int

	// DialTimeout bounds each connection attempt.
	// Default: 5s
	DialTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client is a Redis client managed by the lifecycle engine.
type Client struct {
	config Config
	logger observe.Logger

	mu     sync.Mutex // serializes adopt and Shutdown
	client atomic.Pointer[goredis.Client]
}

// New creates an unconnected client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	c := &Client{config: cfg, logger: observe.NopLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start connects and verifies the connection with PING.
func (c *Client) Start(ctx context.Context) error {
	client := goredis.NewClient(&goredis.Options{
		Addr:        c.config.Addr,
		Password:    c.config.Password,
		DB:          c.config.DB,
		DialTimeout: c.config.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to ping Redis at %s: %w", c.config.Addr, err)
	}
	if err := c.adopt(ctx, client); err != nil {
		return err
	}

	c.logger.Info(ctx, "Redis client connected", observe.F("addr", c.config.Addr), observe.F("db", c.config.DB))
	return nil
}

// adopt installs client unless ctx has already ended, in which case a
// rollback Shutdown may have run and client is closed instead.
func (c *Client) adopt(ctx context.Context, client *goredis.Client) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := resilience.ContextError(ctx); err != nil {
		_ = client.Close()
		return err
	}
	if old := c.client.Swap(client); old != nil {
		_ = old.Close()
	}
	return nil
}

// Shutdown closes the client.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	client := c.client.Swap(nil)
	c.mu.Unlock()
	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}
	c.logger.Info(ctx, "Redis client closed", observe.F("addr", c.config.Addr))
	return nil
}

// Healthcheck sends PING.
func (c *Client) Healthcheck(ctx context.Context) health.Result {
	client := c.client.Load()
	if client == nil {
		return health.Unhealthy(ErrNotStarted.Error(), ErrNotStarted)
	}
	return health.PingCheck(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}).Healthcheck(ctx)
}

// Client returns the underlying client, or nil before Start.
func (c *Client) Client() *goredis.Client {
	return c.client.Load()
}

// Cache returns a cache.Cache backed by this client. Before Start and after
// Shutdown every Get misses and every Set is dropped.
func (c *Client) Cache(prefix string) cache.Cache {
	return &lazyCache{owner: c, prefix: prefix}
}

type lazyCache struct {
	owner  *Client
	prefix string
}

func (l *lazyCache) current() *cache.RedisCache {
	client := l.owner.client.Load()
	if client == nil {
		return nil
	}
	return cache.NewRedisCache(client, l.prefix)
}

func (l *lazyCache) Get(ctx context.Context, key string) ([]byte, bool) {
	rc := l.current()
	if rc == nil {
		return nil, false
	}
	return rc.Get(ctx, key)
}

func (l *lazyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	rc := l.current()
	if rc == nil {
		return nil
	}
	return rc.Set(ctx, key, value, ttl)
}

func (l *lazyCache) Delete(ctx context.Context, key string) error {
	rc := l.current()
	if rc == nil {
		return nil
	}
	return rc.Delete(ctx, key)
}
