package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/lifeops/health"
)

// checkedUnit is Startable, Stoppable and Healthcheckable.
type checkedUnit struct {
	*fakeUnit
	status health.Status
	checks int
}

func (u *checkedUnit) Healthcheck(context.Context) health.Result {
	u.checks++
	return health.Result{Status: u.status}
}

func TestBuilder_GroupOrder(t *testing.T) {
	m := NewBuilder().
		AddUnit("workers", "queue", struct{}{}).
		AddEntrypoint("http", struct{}{}).
		AddService("db", struct{}{}).
		AddUnit("workers", "cron", struct{}{}).
		Build()

	groups := m.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, GroupService, groups[0].Name)
	assert.Equal(t, GroupEntrypoint, groups[1].Name)
	assert.Equal(t, "workers", groups[2].Name)
	assert.Len(t, groups[2].Units, 2)
}

func TestBuilder_Options(t *testing.T) {
	cfg := Config{StartupTimeout: 7, ShutdownTimeout: 9}
	m := NewBuilder(WithConfig(cfg)).Build()
	assert.Equal(t, cfg, m.Config())
}

func TestBuilder_RegistersHealthchecks(t *testing.T) {
	rec := &recorder{}
	entry := &checkedUnit{fakeUnit: newUnit(t, rec, "entrypoint"), status: health.StatusHealthy}
	starter := newUnit(t, rec, "startup")
	stopper := &checkedUnit{fakeUnit: newUnit(t, rec, "shutdown"), status: health.StatusUnhealthy}

	hb := health.NewBuilder()
	m := NewBuilder(WithConfig(testConfig())).
		AddEntrypoint("entrypoint", entry).
		WithHealthchecks(hb).
		AddService("startup", starter.startOnly()).
		AddService("shutdown", stopper).
		Build()

	agg := hb.Build()
	assert.ElementsMatch(t, []string{"entrypoint", "shutdown"}, agg.Names())

	results := agg.Healthcheck(context.Background(), nil)
	assert.Equal(t, health.StatusHealthy, results["entrypoint"].Status)
	assert.Equal(t, health.StatusUnhealthy, results["shutdown"].Status)
	assert.Equal(t, 1, entry.checks)
	assert.Equal(t, 1, stopper.checks)

	require.True(t, m.Start(context.Background()))
	assert.Equal(t, int32(1), entry.starts.Load())
	assert.Equal(t, int32(1), starter.starts.Load())

	require.True(t, m.Stop(context.Background()))
	assert.Equal(t, int32(1), entry.stops.Load())
	assert.Equal(t, int32(1), stopper.stops.Load())
}

func TestBuilder_WithoutHealthchecks(t *testing.T) {
	rec := &recorder{}
	u := &checkedUnit{fakeUnit: newUnit(t, rec, "db")}

	m := NewBuilder().AddService("db", u).Build()
	assert.Len(t, m.Groups()[0].Units, 1)
}
