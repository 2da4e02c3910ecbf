package health

import (
	"context"
	"fmt"
	"runtime"
)

// DefaultCriticalThreshold is the heap usage ratio above which the memory
// check reports unhealthy.
const DefaultCriticalThreshold = 0.95

// MemoryCheckerConfig configures the memory health checker.
type MemoryCheckerConfig struct {
	// CriticalThreshold is the fraction of MaxAlloc that triggers unhealthy
	// status. Value should be between 0 and 1. Default: 0.95 (95%)
	CriticalThreshold float64

	// MaxAlloc is the maximum expected allocation in bytes.
	// If zero, the memory obtained from the OS (MemStats.Sys) is used.
	MaxAlloc uint64
}

// MemoryChecker reports heap usage against a critical threshold.
type MemoryChecker struct {
	config  MemoryCheckerConfig
	readMem func(*runtime.MemStats)
}

// NewMemoryChecker creates a new memory health checker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = DefaultCriticalThreshold
	}
	return &MemoryChecker{config: config, readMem: runtime.ReadMemStats}
}

// Config returns the effective configuration.
func (m *MemoryChecker) Config() MemoryCheckerConfig {
	return m.config
}

// Healthcheck performs the memory health check.
func (m *MemoryChecker) Healthcheck(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context done", err)
	}

	var stats runtime.MemStats
	m.readMem(&stats)

	maxAlloc := m.config.MaxAlloc
	if maxAlloc == 0 {
		maxAlloc = stats.Sys
	}

	details := map[string]any{
		"alloc_bytes": stats.Alloc,
		"heap_in_use": stats.HeapInuse,
		"sys_bytes":   stats.Sys,
		"num_gc":      stats.NumGC,
		"goroutines":  runtime.NumGoroutine(),
	}

	if maxAlloc == 0 {
		return Healthy().WithDescription("memory stats unavailable").WithDetails(details)
	}

	usage := float64(stats.Alloc) / float64(maxAlloc)
	details["max_alloc"] = maxAlloc
	details["usage_percent"] = usage * 100

	if usage >= m.config.CriticalThreshold {
		return Unhealthy(
			fmt.Sprintf("memory usage critical: %.1f%%", usage*100),
			ErrCheckFailed,
		).WithDetails(details)
	}

	return Healthy().
		WithDescription(fmt.Sprintf("memory usage normal: %.1f%%", usage*100)).
		WithDetails(details)
}

var _ Healthcheckable = (*MemoryChecker)(nil)
