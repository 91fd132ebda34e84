package jobmgr

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) report(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, s)
}

func (r *recorder) has(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

func TestGoRunsConcurrentJobsWithSameName(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec.report)

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		err := m.Go("track-end:g", func(ctx context.Context) error {
			started <- struct{}{}
			<-release
			return nil
		})
		if err != nil {
			t.Fatalf("Go: %v", err)
		}
	}
	<-started
	<-started

	if n := m.Running("track-end:g"); n != 2 {
		t.Fatalf("Running = %d, want 2", n)
	}
	if s := m.Status(); s != "Running jobs: track-end:g" {
		t.Fatalf("Status = %q", s)
	}

	close(release)
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if n := m.Running("track-end:g"); n != 0 {
		t.Fatalf("Running after shutdown = %d", n)
	}
	if !rec.has("done:track-end:g") {
		t.Fatalf("missing done report: %v", rec.msgs)
	}
}

func TestGoConfinesErrorsAndPanics(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec.report)

	_ = m.Go("fails", func(ctx context.Context) error { return errors.New("boom") })
	_ = m.Go("panics", func(ctx context.Context) error { panic("bad") })
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if !rec.has("error:fails:boom") {
		t.Fatalf("missing error report: %v", rec.msgs)
	}
	if !rec.has("error:panics:panic: bad") {
		t.Fatalf("missing panic report: %v", rec.msgs)
	}
}

func TestShutdownCancelsAndRejects(t *testing.T) {
	m := NewManager(nil)
	_ = m.Go("wait", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := m.Go("late", func(ctx context.Context) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Fatalf("Go after shutdown = %v, want ErrClosed", err)
	}
}
