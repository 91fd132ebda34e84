package cmd

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type stubCommand struct {
	name    string
	aliases []string
	calls   int
}

func (c *stubCommand) Name() string        { return c.name }
func (c *stubCommand) Description() string { return "stub " + c.name }
func (c *stubCommand) Aliases() []string   { return c.aliases }
func (c *stubCommand) Run(ctx context.Context, inv *Invocation) error {
	c.calls++
	return nil
}

func TestRegistryResolvesAliases(t *testing.T) {
	r := NewRegistry()
	play := &stubCommand{name: "play", aliases: []string{"p"}}
	skip := &stubCommand{name: "skip", aliases: []string{"s", "skip"}}
	r.Register(play)
	r.Register(skip)

	tests := []struct {
		lookup string
		want   Command
	}{
		{"play", play},
		{"p", play},
		{"skip", skip},
		{"s", skip},
		{"stop", nil},
	}
	for _, tt := range tests {
		if got := r.Get(tt.lookup); got != tt.want {
			t.Errorf("Get(%q) = %v, want %v", tt.lookup, got, tt.want)
		}
	}

	all := r.GetAll()
	if len(all) != 2 || all[0].Name() != "play" || all[1].Name() != "skip" {
		t.Fatalf("GetAll() = %v, want [play skip]", all)
	}
}

func TestRegistryAliasesSurviveMiddleware(t *testing.T) {
	r := NewRegistry()
	var order []string
	mw := func(tag string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				order = append(order, tag)
				return c.Run(ctx, inv)
			})
		}
	}
	inner := &stubCommand{name: "queue", aliases: []string{"q"}}
	r.Register(Apply(inner, mw("inner"), mw("outer")))

	c := r.Get("q")
	if c == nil {
		t.Fatal("alias q not registered through middleware")
	}
	if err := c.Run(context.Background(), &Invocation{Name: "q"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner ran %d times, want 1", inner.calls)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Fatalf("middleware order = %v, want [outer inner]", order)
	}
	if Root(c) != inner {
		t.Fatal("Root did not unwrap to the registered command")
	}
}

func TestWrapDelegatesToInnerWithoutRunFunc(t *testing.T) {
	inner := &stubCommand{name: "np"}
	w := &Wrapped{Inner: inner}
	if err := w.Run(context.Background(), &Invocation{}); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 || w.Name() != "np" || w.Description() != "stub np" {
		t.Fatalf("wrapped command did not delegate: calls=%d name=%q", inner.calls, w.Name())
	}
}

func TestWrapPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	c := Wrap(&stubCommand{name: "x"}, func(ctx context.Context, inv *Invocation) error { return boom })
	if err := c.Run(context.Background(), &Invocation{}); !errors.Is(err, boom) {
		t.Fatalf("Run() = %v, want %v", err, boom)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register(&stubCommand{name: "volume", aliases: []string{"v"}})
		}()
		go func() {
			defer wg.Done()
			_ = r.Get("v")
			_ = r.GetAll()
		}()
	}
	wg.Wait()
	if r.Get("v") == nil {
		t.Fatal("alias lost under concurrent registration")
	}
}
