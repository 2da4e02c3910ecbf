package lifecycle

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/lifeops/observe"
)

// recorder keeps the global order of capability calls.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *recorder) index(e string) int {
	return slices.Index(r.snapshot(), e)
}

// fakeUnit is Startable and Stoppable.
type fakeUnit struct {
	name     string
	rec      *recorder
	startErr error
	stopErr  error
	hang     chan struct{} // when set, Start ignores ctx until it is closed
	panics   bool

	starts     atomic.Int32
	stops      atomic.Int32
	stopCtxErr atomic.Value // errBox
}

func newUnit(t *testing.T, rec *recorder, name string) *fakeUnit {
	t.Helper()
	return &fakeUnit{name: name, rec: rec}
}

func (u *fakeUnit) hanging(t *testing.T) *fakeUnit {
	t.Helper()
	u.hang = make(chan struct{})
	t.Cleanup(func() { close(u.hang) })
	return u
}

func (u *fakeUnit) Start(ctx context.Context) error {
	u.starts.Add(1)
	u.rec.add("start:" + u.name)
	if u.panics {
		panic("start " + u.name)
	}
	if u.hang != nil {
		<-u.hang
	}
	u.rec.add("started:" + u.name)
	return u.startErr
}

func (u *fakeUnit) Shutdown(ctx context.Context) error {
	u.stops.Add(1)
	u.stopCtxErr.Store(errBox{ctx.Err()})
	u.rec.add("stop:" + u.name)
	return u.stopErr
}

type errBox struct{ err error }

func (u *fakeUnit) shutdownCtxErr() error {
	v, _ := u.stopCtxErr.Load().(errBox)
	return v.err
}

func (u *fakeUnit) startOnly() Startable { return StartFunc(u.Start) }
func (u *fakeUnit) stopOnly() Stoppable  { return ShutdownFunc(u.Shutdown) }

// syncBuffer is a bytes.Buffer safe for concurrent writes and reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger() (observe.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return observe.NewLoggerWithWriter("debug", buf), buf
}

func testConfig() Config {
	return Config{
		StartupTimeout:  200 * time.Millisecond,
		ShutdownTimeout: 200 * time.Millisecond,
	}
}
