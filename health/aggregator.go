package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/lifeops/observe"
	"github.com/jonwraymond/lifeops/resilience"
)

// DefaultTimeout bounds one aggregated healthcheck run.
const DefaultTimeout = 5 * time.Second

// Config configures the health aggregator.
type Config struct {
	// Timeout is the maximum time to wait for all checks of one run.
	// Default: 5 seconds
	Timeout time.Duration
}

// Option configures a Builder.
type Option func(*Builder)

// WithConfig sets the aggregator configuration.
func WithConfig(cfg Config) Option {
	return func(b *Builder) {
		b.config = cfg
	}
}

// WithTimeout sets the per-run timeout.
func WithTimeout(d time.Duration) Option {
	return func(b *Builder) {
		b.config.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithTracer sets the tracer used for healthcheck spans.
func WithTracer(t observe.Tracer) Option {
	return func(b *Builder) {
		b.tracer = t
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observe.Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

type entry struct {
	name  string
	check Healthcheckable
}

// Builder accumulates named checks in registration order.
//
// A Builder is not safe for concurrent use. The Aggregator it builds is.
type Builder struct {
	config  Config
	logger  observe.Logger
	tracer  observe.Tracer
	metrics observe.Metrics
	entries []entry
	index   map[string]struct{}
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		config: Config{Timeout: DefaultTimeout},
		logger: observe.NopLogger(),
		index:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.config.Timeout <= 0 {
		b.config.Timeout = DefaultTimeout
	}
	return b
}

// Add registers h under name. The first registration of a name wins; later
// ones are logged and discarded. A nil check is ignored.
func (b *Builder) Add(name string, h Healthcheckable) *Builder {
	if h == nil {
		return b
	}
	if _, dup := b.index[name]; dup {
		b.logger.Warn(context.Background(), fmt.Sprintf("Healthcheck '%s' is already registered, ignoring duplicate", name),
			observe.F("unit", name),
		)
		return b
	}
	b.index[name] = struct{}{}
	b.entries = append(b.entries, entry{name: name, check: h})
	return b
}

// Has reports whether a check is registered under name.
func (b *Builder) Has(name string) bool {
	_, ok := b.index[name]
	return ok
}

// Build returns an immutable Aggregator over the registered checks.
func (b *Builder) Build() *Aggregator {
	entries := make([]entry, len(b.entries))
	copy(entries, b.entries)

	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.name] = i
	}

	tracer := b.tracer
	if tracer == nil {
		tracer = observe.NoopTracer()
	}

	return &Aggregator{
		config:  b.config,
		entries: entries,
		index:   index,
		logger:  b.logger,
		tracer:  tracer,
		mw:      observe.NewMiddleware(tracer, b.metrics, b.logger),
	}
}

// Aggregator runs registered checks concurrently under one shared deadline.
//
// The registry is fixed at Build time, so an Aggregator needs no locking.
type Aggregator struct {
	config  Config
	entries []entry
	index   map[string]int
	logger  observe.Logger
	tracer  observe.Tracer
	mw      *observe.Middleware
}

// Config returns the aggregator configuration.
func (a *Aggregator) Config() Config {
	return a.config
}

// Names returns the registered check names in registration order.
func (a *Aggregator) Names() []string {
	names := make([]string, len(a.entries))
	for i, e := range a.entries {
		names[i] = e.name
	}
	return names
}

func (a *Aggregator) selected(filter Filter) []string {
	names := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		if filter.match(e.name) {
			names = append(names, e.name)
		}
	}
	return names
}

// Healthcheck runs every check selected by filter concurrently and returns
// one Result per selected name. It never fails as a whole: a check that
// errors, panics, times out or is canceled is reported as unhealthy with the
// cause in Result.Error.
//
// All checks share one deadline of Config.Timeout derived from ctx.
func (a *Aggregator) Healthcheck(ctx context.Context, filter Filter) map[string]Result {
	selected := make([]entry, 0, len(a.entries))
	for _, e := range a.entries {
		if filter.match(e.name) {
			selected = append(selected, e)
		}
	}

	results := make(map[string]Result, len(selected))
	if len(selected) == 0 {
		return results
	}

	ctx, span := a.tracer.StartSpan(ctx, observe.UnitMeta{Phase: observe.PhaseHealthcheck})

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	started := time.Now()
	settled := resilience.SettleValues(ctx, len(selected), func(ctx context.Context, i int) (Result, error) {
		return a.run(ctx, selected[i]), nil
	})

	unhealthy := 0
	for i, s := range settled {
		r := s.Value
		// Only an ended ctx lands here; run recovers panics itself, so
		// every aborted check settled when ctx ended.
		if s.Err != nil {
			err := s.Err
			if errors.Is(err, resilience.ErrTimeout) {
				err = fmt.Errorf("%w: %w", ErrCheckTimeout, err)
			}
			r = Result{
				Status:    StatusUnhealthy,
				Error:     err,
				Duration:  time.Since(started),
				Timestamp: started,
			}
		}
		if r.Status != StatusHealthy {
			unhealthy++
		}
		results[selected[i].name] = r
	}

	var spanErr error
	if unhealthy > 0 {
		spanErr = fmt.Errorf("%w: %d/%d healthcheck(s) unhealthy", ErrCheckFailed, unhealthy, len(selected))
	}
	a.tracer.EndSpan(span, spanErr)

	return results
}

// Check runs the single check registered under name.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	if len(a.entries) == 0 {
		return Result{}, ErrNoCheckers
	}
	if _, ok := a.index[name]; !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrCheckerNotFound, name)
	}
	return a.Healthcheck(ctx, Only(name))[name], nil
}

// OverallStatus computes the overall health status from a set of results.
// Returns Unhealthy if any check is unhealthy, Healthy otherwise (including
// for an empty set).
func (a *Aggregator) OverallStatus(results map[string]Result) Status {
	for _, result := range results {
		if result.Status != StatusHealthy {
			return StatusUnhealthy
		}
	}
	return StatusHealthy
}

func (a *Aggregator) run(ctx context.Context, e entry) Result {
	var result Result
	meta := observe.UnitMeta{Phase: observe.PhaseHealthcheck, Name: e.name}

	_ = a.mw.Run(ctx, meta, func(ctx context.Context, _ observe.UnitMeta) (err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				result = Result{
					Status:    StatusUnhealthy,
					Error:     fmt.Errorf("%w: %v", resilience.ErrPanic, r),
					Duration:  time.Since(start),
					Timestamp: start,
				}
				err = result.Error
			}
		}()

		result = e.check.Healthcheck(ctx)
		if result.Duration == 0 {
			result.Duration = time.Since(start)
		}
		if result.Timestamp.IsZero() {
			result.Timestamp = start
		}
		if result.Status != StatusHealthy {
			if result.Error != nil {
				return fmt.Errorf("%w: %w", ErrCheckFailed, result.Error)
			}
			return ErrCheckFailed
		}
		return nil
	})

	return result
}
