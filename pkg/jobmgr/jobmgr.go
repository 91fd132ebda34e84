// Package jobmgr runs fire-and-forget background jobs and keeps track of them
// so a process can wait for in-flight work before exiting.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(func(msg string) {
//	    log.Println("JOB:", msg)
//	})
//
//	jm.Go("track-end:1234", func(ctx context.Context) error {
//	    // do work until ctx is cancelled
//	    return nil
//	})
//
//	// on shutdown
//	_ = jm.Shutdown(ctx)
//
// Jobs with the same name may run concurrently. A job that returns an error
// or panics is reported and does not affect other jobs.
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrClosed is returned by Go after Shutdown was called.
var ErrClosed = errors.New("job manager is shut down")

// StatusReporter receives lifecycle events for jobs.
// Example messages:
//
//	running:track-end:1234
//	error:track-end:1234:open stream: not found
//	done:track-end:1234
type StatusReporter func(string)

// Manager starts and tracks jobs. It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	running  map[string]int
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
	Reporter StatusReporter
}

// NewManager creates a new Manager.
// The reporter callback may be nil.
func NewManager(reporter StatusReporter) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		running:  make(map[string]int),
		ctx:      ctx,
		cancel:   cancel,
		Reporter: reporter,
	}
}

// Go runs runner in a new goroutine and returns immediately. The context
// passed to runner is cancelled by Shutdown.
func (m *Manager) Go(name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.running[name]++
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer m.finish(name)

		m.report("running:" + name)
		if err := m.run(runner); err != nil {
			m.report("error:" + name + ":" + err.Error())
			return
		}
		m.report("done:" + name)
	}()
	return nil
}

func (m *Manager) run(runner func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return runner(m.ctx)
}

func (m *Manager) finish(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running[name]--
	if m.running[name] <= 0 {
		delete(m.running, name)
	}
}

// Running returns how many jobs named name are in flight.
func (m *Manager) Running(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running[name]
}

// List returns the names of active jobs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.running))
	for k := range m.running {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Status returns a human-readable summary of active jobs.
// Example:
//
//	"Running jobs: track-end:1, track-end:2"
//
// If none are running: "No jobs are running."
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(active, ", "))
}

// Shutdown refuses new jobs, cancels the running ones and waits for them to
// return or for ctx to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// report delivers lifecycle messages to the reporter if present.
func (m *Manager) report(s string) {
	if m.Reporter != nil {
		m.Reporter(s)
	}
}
