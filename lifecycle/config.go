package lifecycle

import (
	"fmt"
	"time"
)

// Default phase timeouts.
const (
	DefaultStartupTimeout  = 5 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Config bounds each startup and shutdown phase. A phase is one group.
type Config struct {
	// StartupTimeout bounds the start of one group.
	// Default: 5 seconds
	StartupTimeout time.Duration

	// ShutdownTimeout bounds the shutdown of one group.
	// Default: 5 seconds
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with both timeouts at their defaults.
func DefaultConfig() Config {
	return Config{
		StartupTimeout:  DefaultStartupTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Validate rejects negative timeouts. Zero means the default.
func (c Config) Validate() error {
	if c.StartupTimeout < 0 {
		return fmt.Errorf("%w: startup timeout %v is negative", ErrInvalidConfig, c.StartupTimeout)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: shutdown timeout %v is negative", ErrInvalidConfig, c.ShutdownTimeout)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.StartupTimeout <= 0 {
		c.StartupTimeout = DefaultStartupTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	return c
}
