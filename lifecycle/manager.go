package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonwraymond/lifeops/observe"
	"github.com/jonwraymond/lifeops/resilience"
)

// Manager starts groups of units in order and stops them in reverse order.
//
// Groups are fixed when the Manager is constructed. Start and Stop must not
// be called concurrently with each other.
type Manager struct {
	config Config
	groups []Group
	logger observe.Logger
	tracer observe.Tracer
	mw     *observe.Middleware
}

// NewManager creates a manager over groups, which are started in slice
// order. Timeouts that are zero or negative fall back to their defaults.
func NewManager(groups []Group, opts ...Option) *Manager {
	o := applyOptions(opts)

	logger := o.logger
	if err := o.config.Validate(); err != nil {
		logger.Warn(context.Background(), "Using default timeouts", observe.F("error", err))
	}

	m := &Manager{
		config: o.config.withDefaults(),
		groups: make([]Group, len(groups)),
		logger: logger,
		tracer: o.tracer,
		mw:     observe.NewMiddleware(o.tracer, o.metrics, logger),
	}
	for i, g := range groups {
		m.groups[i] = g.clone()
	}
	m.warnDuplicates()

	return m
}

func (m *Manager) warnDuplicates() {
	for _, g := range m.groups {
		seen := make(map[string]struct{}, len(g.Units))
		for _, u := range g.Units {
			if _, dup := seen[u.Name]; dup {
				m.logger.Warn(context.Background(), fmt.Sprintf("Duplicate %s name: %s", g.Name, u.Name),
					observe.F("group", g.Name),
					observe.F("unit", u.Name),
				)
			}
			seen[u.Name] = struct{}{}
		}
	}
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.config
}

// Groups returns a copy of the managed groups in start order.
func (m *Manager) Groups() []Group {
	out := make([]Group, len(m.groups))
	for i, g := range m.groups {
		out[i] = g.clone()
	}
	return out
}

// Start starts every group in order. Within a group all Startable units are
// started concurrently under one StartupTimeout, and the next group starts
// only after every one of them has settled.
//
// If any unit of a group fails, times out or is canceled, Start rolls back:
// it shuts down the units of that group that may be active (started, timed
// out, canceled or without a Start), then every earlier group in reverse
// order, and returns false. Later groups are never started. The rollback
// runs even if ctx is already canceled.
func (m *Manager) Start(ctx context.Context) bool {
	runID := uuid.NewString()
	ctx, span := m.tracer.StartSpan(ctx, observe.UnitMeta{Phase: observe.PhaseStart, RunID: runID})

	for i, g := range m.groups {
		if len(g.Units) == 0 {
			continue
		}
		rollback, ok := m.startGroup(ctx, runID, g)
		if ok {
			continue
		}

		m.stopDownwards(context.WithoutCancel(ctx), runID, i, rollback)
		m.tracer.EndSpan(span, ErrStartupFailed)
		return false
	}

	m.tracer.EndSpan(span, nil)
	return true
}

// Stop shuts down every group in reverse order. Within a group all Stoppable
// units are shut down concurrently under one ShutdownTimeout. A failing group
// does not prevent earlier groups from being stopped. Stop returns true only
// if every unit shut down cleanly.
func (m *Manager) Stop(ctx context.Context) bool {
	return m.stopDownwards(ctx, uuid.NewString(), len(m.groups)-1, nil)
}

// startGroup starts the Startable units of g. On failure it returns the
// rollback set of g.
func (m *Manager) startGroup(ctx context.Context, runID string, g Group) ([]Unit, bool) {
	meta := observe.UnitMeta{Phase: observe.PhaseStart, Group: g.Name, RunID: runID}
	ctx, span := m.tracer.StartSpan(ctx, meta)
	logger := m.logger.With(meta.Fields()...)

	units := startables(g.Units)
	logger.Info(ctx, fmt.Sprintf("Starting %d/%d %s(s)", len(units), len(g.Units), g.Name))

	phaseCtx, cancel := context.WithTimeout(ctx, m.config.StartupTimeout)
	errs := resilience.Settle(phaseCtx, len(units), func(ctx context.Context, i int) error {
		return m.call(ctx, meta, units[i], func(ctx context.Context) error {
			return units[i].Value.(Startable).Start(ctx)
		})
	})
	cancel()

	started := 0
	excluded := make(map[int]struct{})
	for i, err := range errs {
		outcome := Classify(err)
		if outcome == OutcomeSucceeded {
			started++
			continue
		}
		logger.Error(ctx, fmt.Sprintf("Failed to start '%s'", units[i].Name),
			observe.F("unit", units[i].Name),
			observe.F("outcome", outcome.String()),
			observe.F("error", err),
		)
		if !outcome.maybeActive() {
			excluded[i] = struct{}{}
		}
	}

	logger.Info(ctx, fmt.Sprintf("Started %d/%d %s(s)", started, len(units), g.Name))

	if started == len(units) {
		m.tracer.EndSpan(span, nil)
		return nil, true
	}

	rollback := make([]Unit, 0, len(g.Units))
	next := 0
	for _, u := range g.Units {
		if _, ok := u.Value.(Startable); !ok {
			rollback = append(rollback, u)
			continue
		}
		if _, failed := excluded[next]; !failed {
			rollback = append(rollback, u)
		}
		next++
	}

	m.tracer.EndSpan(span, fmt.Errorf("%w: %d/%d %s(s) failed", ErrStartupFailed, len(units)-started, len(units), g.Name))
	return rollback, false
}

// stopDownwards stops groups last..0. When only is non-nil it replaces the
// participants of group last.
func (m *Manager) stopDownwards(ctx context.Context, runID string, last int, only []Unit) bool {
	ctx, span := m.tracer.StartSpan(ctx, observe.UnitMeta{Phase: observe.PhaseStop, RunID: runID})

	ok := true
	for i := last; i >= 0; i-- {
		g := m.groups[i]
		participants := g.Units
		if i == last && only != nil {
			participants = only
		}

		if len(participants) == 0 {
			m.logger.Info(ctx, fmt.Sprintf("No %s(s) to stop", g.Name),
				observe.F("group", g.Name),
				observe.F("run_id", runID),
			)
			continue
		}

		if !m.stopGroup(ctx, runID, g, participants) {
			ok = false
		}
	}

	var err error
	if !ok {
		err = ErrShutdownFailed
	}
	m.tracer.EndSpan(span, err)
	return ok
}

func (m *Manager) stopGroup(ctx context.Context, runID string, g Group, participants []Unit) bool {
	meta := observe.UnitMeta{Phase: observe.PhaseStop, Group: g.Name, RunID: runID}
	ctx, span := m.tracer.StartSpan(ctx, meta)
	logger := m.logger.With(meta.Fields()...)

	units := stoppables(participants)
	total := len(stoppables(g.Units))
	logger.Info(ctx, fmt.Sprintf("Stopping %d/%d %s(s)", len(units), total, g.Name))

	phaseCtx, cancel := context.WithTimeout(ctx, m.config.ShutdownTimeout)
	errs := resilience.Settle(phaseCtx, len(units), func(ctx context.Context, i int) error {
		return m.call(ctx, meta, units[i], func(ctx context.Context) error {
			return units[i].Value.(Stoppable).Shutdown(ctx)
		})
	})
	cancel()

	stopped := 0
	for i, err := range errs {
		if err == nil {
			stopped++
			continue
		}
		logger.Error(ctx, fmt.Sprintf("Failed to stop '%s'", units[i].Name),
			observe.F("unit", units[i].Name),
			observe.F("outcome", Classify(err).String()),
			observe.F("error", err),
		)
	}

	logger.Info(ctx, fmt.Sprintf("Stopped %d/%d %s(s)", stopped, len(units), g.Name))

	if stopped == len(units) {
		m.tracer.EndSpan(span, nil)
		return true
	}
	m.tracer.EndSpan(span, fmt.Errorf("%w: %d/%d %s(s) failed", ErrShutdownFailed, len(units)-stopped, len(units), g.Name))
	return false
}

// call runs one capability invocation through the middleware. The
// invocation is bounded by ctx so a unit that ignores cancellation is
// recorded as timed out when the phase deadline passes.
func (m *Manager) call(ctx context.Context, group observe.UnitMeta, u Unit, fn func(context.Context) error) error {
	meta := group
	meta.Name = u.Name
	return m.mw.Run(ctx, meta, func(ctx context.Context, _ observe.UnitMeta) error {
		return resilience.AbortableErr(ctx, fn)
	})
}
