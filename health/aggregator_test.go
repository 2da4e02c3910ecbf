package health

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/lifeops/observe"
	"github.com/jonwraymond/lifeops/resilience"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func healthy() Healthcheckable {
	return HealthcheckFunc(func(context.Context) Result { return Healthy() })
}

// blocking returns a check that ignores ctx until the test ends.
func blocking(t *testing.T) Healthcheckable {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	return HealthcheckFunc(func(context.Context) Result {
		<-release
		return Healthy()
	})
}

func TestNewBuilder_Defaults(t *testing.T) {
	agg := NewBuilder().Build()

	if agg.Config().Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", agg.Config().Timeout, DefaultTimeout)
	}
	if len(agg.Names()) != 0 {
		t.Errorf("Names() = %v, want empty", agg.Names())
	}
}

func TestNewBuilder_Options(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want time.Duration
	}{
		{"WithTimeout", []Option{WithTimeout(2 * time.Second)}, 2 * time.Second},
		{"WithConfig", []Option{WithConfig(Config{Timeout: time.Second})}, time.Second},
		{"zero falls back", []Option{WithTimeout(0)}, DefaultTimeout},
		{"negative falls back", []Option{WithTimeout(-time.Second)}, DefaultTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewBuilder(tt.opts...).Build().Config().Timeout; got != tt.want {
				t.Errorf("Timeout = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuilder_AddKeepsOrder(t *testing.T) {
	b := NewBuilder().
		Add("db", healthy()).
		Add("cache", healthy()).
		Add("nil", nil).
		Add("queue", healthy())

	if !b.Has("cache") {
		t.Error("Has(cache) = false, want true")
	}
	if b.Has("nil") {
		t.Error("Has(nil) = true, want false")
	}

	got := strings.Join(b.Build().Names(), ",")
	if got != "db,cache,queue" {
		t.Errorf("Names() = %v, want db,cache,queue", got)
	}
}

func TestBuilder_DuplicateFirstWins(t *testing.T) {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("debug", &buf)

	var secondCalls atomic.Int32
	first := HealthcheckFunc(func(context.Context) Result {
		return Healthy().WithDescription("first")
	})
	second := HealthcheckFunc(func(context.Context) Result {
		secondCalls.Add(1)
		return Unhealthy("second", nil)
	})

	agg := NewBuilder(WithLogger(logger)).
		Add("db", first).
		Add("db", second).
		Build()

	if n := len(agg.Names()); n != 1 {
		t.Fatalf("len(Names()) = %d, want 1", n)
	}

	results := agg.Healthcheck(context.Background(), nil)
	if results["db"].Description != "first" {
		t.Errorf("Description = %q, want %q", results["db"].Description, "first")
	}
	if secondCalls.Load() != 0 {
		t.Errorf("duplicate invoked %d times, want 0", secondCalls.Load())
	}
	if !strings.Contains(buf.String(), "Healthcheck 'db' is already registered") {
		t.Errorf("expected duplicate warning, got %q", buf.String())
	}
}

func TestBuilder_BuildIsSnapshot(t *testing.T) {
	b := NewBuilder().Add("db", healthy())
	agg := b.Build()
	b.Add("cache", healthy())

	if n := len(agg.Names()); n != 1 {
		t.Errorf("len(Names()) = %d, want 1", n)
	}
}

func TestAggregator_Healthcheck_All(t *testing.T) {
	checkErr := errors.New("connection refused")
	agg := NewBuilder().
		Add("db", healthy()).
		Add("cache", HealthcheckFunc(func(context.Context) Result {
			return Unhealthy("cache down", checkErr)
		})).
		Build()

	results := agg.Healthcheck(context.Background(), nil)

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results["db"].Status != StatusHealthy {
		t.Errorf("db Status = %v, want healthy", results["db"].Status)
	}
	cache := results["cache"]
	if cache.Status != StatusUnhealthy {
		t.Errorf("cache Status = %v, want unhealthy", cache.Status)
	}
	if cache.Description != "cache down" {
		t.Errorf("cache Description = %q, want verbatim", cache.Description)
	}
	if !errors.Is(cache.Error, checkErr) {
		t.Errorf("cache Error = %v, want %v", cache.Error, checkErr)
	}
	if agg.OverallStatus(results) != StatusUnhealthy {
		t.Error("OverallStatus should be unhealthy")
	}
}

func TestAggregator_Healthcheck_Filter(t *testing.T) {
	var calls sync.Map
	check := func(name string) Healthcheckable {
		return HealthcheckFunc(func(context.Context) Result {
			calls.Store(name, true)
			return Healthy()
		})
	}

	agg := NewBuilder().
		Add("db", check("db")).
		Add("cache", check("cache")).
		Add("queue", check("queue")).
		Build()

	results := agg.Healthcheck(context.Background(), Only("db", "queue", "missing"))

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if _, ok := results["cache"]; ok {
		t.Error("cache should be filtered out")
	}
	if _, called := calls.Load("cache"); called {
		t.Error("filtered check should not be invoked")
	}
}

func TestAggregator_Healthcheck_EmptySelection(t *testing.T) {
	agg := NewBuilder().Add("db", healthy()).Build()

	results := agg.Healthcheck(context.Background(), Only())
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
	if agg.OverallStatus(results) != StatusHealthy {
		t.Error("OverallStatus of empty set should be healthy")
	}
}

func TestAggregator_Healthcheck_StampsTiming(t *testing.T) {
	agg := NewBuilder().
		Add("slow", HealthcheckFunc(func(context.Context) Result {
			time.Sleep(10 * time.Millisecond)
			return Result{Status: StatusHealthy}
		})).
		Add("own", HealthcheckFunc(func(context.Context) Result {
			return Healthy().WithDuration(time.Hour)
		})).
		Build()

	results := agg.Healthcheck(context.Background(), nil)

	if results["slow"].Duration < 10*time.Millisecond {
		t.Errorf("Duration = %v, want >= 10ms", results["slow"].Duration)
	}
	if results["slow"].Timestamp.IsZero() {
		t.Error("Timestamp should be stamped")
	}
	if results["own"].Duration != time.Hour {
		t.Errorf("Duration = %v, want reported value kept", results["own"].Duration)
	}
}

func TestAggregator_Healthcheck_Timeout(t *testing.T) {
	agg := NewBuilder(WithTimeout(50*time.Millisecond)).
		Add("hung", blocking(t)).
		Add("db", healthy()).
		Build()

	start := time.Now()
	results := agg.Healthcheck(context.Background(), nil)
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Errorf("Healthcheck took %v, want bounded by timeout", elapsed)
	}
	hung := results["hung"]
	if hung.Status != StatusUnhealthy {
		t.Errorf("hung Status = %v, want unhealthy", hung.Status)
	}
	if !errors.Is(hung.Error, ErrCheckTimeout) {
		t.Errorf("hung Error = %v, want ErrCheckTimeout", hung.Error)
	}
	if !errors.Is(hung.Error, resilience.ErrTimeout) {
		t.Errorf("hung Error = %v, want resilience.ErrTimeout", hung.Error)
	}
	if results["db"].Status != StatusHealthy {
		t.Errorf("db Status = %v, want healthy", results["db"].Status)
	}
}

func TestAggregator_Healthcheck_Canceled(t *testing.T) {
	agg := NewBuilder().Add("hung", blocking(t)).Build()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	result := agg.Healthcheck(ctx, nil)["hung"]

	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", result.Status)
	}
	if !errors.Is(result.Error, resilience.ErrCanceled) {
		t.Errorf("Error = %v, want resilience.ErrCanceled", result.Error)
	}
}

func TestAggregator_Healthcheck_Panic(t *testing.T) {
	agg := NewBuilder().
		Add("boom", HealthcheckFunc(func(context.Context) Result {
			panic("boom")
		})).
		Add("db", healthy()).
		Build()

	results := agg.Healthcheck(context.Background(), nil)

	if !errors.Is(results["boom"].Error, resilience.ErrPanic) {
		t.Errorf("Error = %v, want ErrPanic", results["boom"].Error)
	}
	if results["db"].Status != StatusHealthy {
		t.Errorf("db Status = %v, want healthy", results["db"].Status)
	}
}

func TestAggregator_Healthcheck_PanicDurationIsOwn(t *testing.T) {
	agg := NewBuilder().
		Add("boom", HealthcheckFunc(func(context.Context) Result {
			panic("boom")
		})).
		Add("slow", HealthcheckFunc(func(context.Context) Result {
			time.Sleep(100 * time.Millisecond)
			return Healthy()
		})).
		Build()

	results := agg.Healthcheck(context.Background(), nil)

	if d := results["boom"].Duration; d >= 50*time.Millisecond {
		t.Errorf("boom Duration = %v, want the panicking check's own time, not the slow sibling's", d)
	}
	if results["boom"].Timestamp.IsZero() {
		t.Error("boom Timestamp is zero")
	}
	if results["slow"].Duration < 100*time.Millisecond {
		t.Errorf("slow Duration = %v, want >= 100ms", results["slow"].Duration)
	}
}

func TestAggregator_Healthcheck_Concurrent(t *testing.T) {
	// Each check waits for the other to start; run sequentially they
	// would both time out.
	var started sync.WaitGroup
	started.Add(2)
	check := HealthcheckFunc(func(ctx context.Context) Result {
		started.Done()
		done := make(chan struct{})
		go func() {
			started.Wait()
			close(done)
		}()
		select {
		case <-done:
			return Healthy()
		case <-ctx.Done():
			return Unhealthy("not concurrent", ctx.Err())
		}
	})

	agg := NewBuilder(WithTimeout(time.Second)).
		Add("a", check).
		Add("b", check).
		Build()

	for name, r := range agg.Healthcheck(context.Background(), nil) {
		if r.Status != StatusHealthy {
			t.Errorf("%s Status = %v, want healthy", name, r.Status)
		}
	}
}

func TestAggregator_Check(t *testing.T) {
	agg := NewBuilder().Add("db", healthy()).Build()

	result, err := agg.Check(context.Background(), "db")
	if err != nil {
		t.Fatalf("Check(db) error = %v", err)
	}
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", result.Status)
	}

	if _, err := agg.Check(context.Background(), "missing"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check(missing) error = %v, want ErrCheckerNotFound", err)
	}

	empty := NewBuilder().Build()
	if _, err := empty.Check(context.Background(), "db"); !errors.Is(err, ErrNoCheckers) {
		t.Errorf("Check on empty error = %v, want ErrNoCheckers", err)
	}
}

func TestAggregator_Spans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	agg := NewBuilder(WithTracer(observe.NewTracer(tp.Tracer("test")))).
		Add("db", healthy()).
		Add("cache", HealthcheckFunc(func(context.Context) Result {
			return Unhealthy("down", nil)
		})).
		Build()

	agg.Healthcheck(context.Background(), nil)

	names := make(map[string]bool)
	for _, s := range exporter.GetSpans() {
		names[s.Name] = true
	}
	for _, want := range []string{"healthcheck", "healthcheck:db", "healthcheck:cache"} {
		if !names[want] {
			t.Errorf("missing span %q in %v", want, names)
		}
	}
}

func TestAggregator_SpanStatus(t *testing.T) {
	down := HealthcheckFunc(func(context.Context) Result { return Unhealthy("down", nil) })

	tests := []struct {
		name string
		add  Healthcheckable
		want codes.Code
	}{
		{"all healthy", healthy(), codes.Ok},
		{"one unhealthy", down, codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := tracetest.NewInMemoryExporter()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			agg := NewBuilder(WithTracer(observe.NewTracer(tp.Tracer("test")))).
				Add("db", healthy()).
				Add("cache", tt.add).
				Build()

			agg.Healthcheck(context.Background(), nil)

			for _, s := range exporter.GetSpans() {
				if s.Name != "healthcheck" {
					continue
				}
				if s.Status.Code != tt.want {
					t.Errorf("healthcheck span status = %v, want %v", s.Status.Code, tt.want)
				}
				if tt.want == codes.Error && !strings.Contains(s.Status.Description, "1/2") {
					t.Errorf("healthcheck span description = %q, want unhealthy count", s.Status.Description)
				}
				return
			}
			t.Fatal("missing healthcheck span")
		})
	}
}
