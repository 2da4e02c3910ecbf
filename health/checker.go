package health

import (
	"context"
	"fmt"
	"time"
)

// Status represents the health status of a unit.
type Status int

const (
	// StatusHealthy indicates the unit is functioning normally.
	StatusHealthy Status = iota
	// StatusUnhealthy indicates the unit is not functioning properly.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalText renders the status as its string form.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses "healthy" or "unhealthy".
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "healthy":
		*s = StatusHealthy
	case "unhealthy":
		*s = StatusUnhealthy
	default:
		return fmt.Errorf("health: unknown status %q", text)
	}
	return nil
}

// Result contains the outcome of a health check.
type Result struct {
	// Status is the health status.
	Status Status

	// Description provides additional context about the status.
	Description string

	// Error is the cause when the unit is unhealthy.
	Error error

	// Details contains arbitrary metadata about the check.
	Details map[string]any

	// Duration is how long the check took.
	Duration time.Duration

	// Timestamp is when the check was performed.
	Timestamp time.Time
}

// Healthy creates a healthy result.
func Healthy() Result {
	return Result{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
	}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(description string, err error) Result {
	return Result{
		Status:      StatusUnhealthy,
		Description: description,
		Error:       err,
		Timestamp:   time.Now(),
	}
}

// WithDescription sets the description on a result.
func (r Result) WithDescription(description string) Result {
	r.Description = description
	return r
}

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration sets the duration on a result.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Healthcheckable is implemented by units that can report their own health.
//
// Healthcheck should honor ctx. A check that never returns is reported as
// unhealthy once the aggregator's timeout elapses.
type Healthcheckable interface {
	Healthcheck(ctx context.Context) Result
}

// HealthcheckFunc is an adapter to allow ordinary functions to be used as
// Healthcheckable units.
type HealthcheckFunc func(ctx context.Context) Result

// Healthcheck calls f(ctx).
func (f HealthcheckFunc) Healthcheck(ctx context.Context) Result {
	return f(ctx)
}

// PingCheck adapts a ping style check: a nil error is healthy, anything else
// unhealthy with the error attached.
func PingCheck(ping func(ctx context.Context) error) Healthcheckable {
	return HealthcheckFunc(func(ctx context.Context) Result {
		if err := ping(ctx); err != nil {
			return Unhealthy(err.Error(), err)
		}
		return Healthy()
	})
}
