package inactivity

import (
	"context"
	"sync"
	"testing"
	"time"
)

const guild = "guild-a"

// fakeVoice is connected and alone until told otherwise. Disconnect leaves
// the channel, after which it is no longer alone.
type fakeVoice struct {
	mu          sync.Mutex
	connected   bool
	members     int
	disconnects int
}

func (v *fakeVoice) Alone(string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected && v.members == 0
}

func (v *fakeVoice) Disconnect(context.Context, string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connected = false
	v.disconnects++
	return nil
}

func (v *fakeVoice) setMembers(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.members = n
}

func (v *fakeVoice) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.disconnects
}

func waitIdle(t *testing.T, m *Monitor) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for m.Pending(guild) > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("%d re-checks still pending", m.Pending(guild))
		}
		time.Sleep(time.Millisecond)
	}
	// Let a re-check that already left the pending set finish.
	time.Sleep(20 * time.Millisecond)
}

func TestDisconnectsWhenStillAlone(t *testing.T) {
	v := &fakeVoice{connected: true}
	m := New(v, v, 10*time.Millisecond)
	defer m.Close()

	m.Notify(guild, true)
	if got := m.Pending(guild); got != 1 {
		t.Fatalf("Pending = %d, want 1", got)
	}
	waitIdle(t, m)

	if got := v.count(); got != 1 {
		t.Errorf("disconnects = %d, want 1", got)
	}
}

func TestStaysWhenMembersReturn(t *testing.T) {
	v := &fakeVoice{connected: true}
	m := New(v, v, 20*time.Millisecond)
	defer m.Close()

	m.Notify(guild, true)
	v.setMembers(2)
	m.Notify(guild, false)
	waitIdle(t, m)

	if got := v.count(); got != 0 {
		t.Errorf("disconnects = %d, want 0", got)
	}
}

func TestFlappingDisconnectsOnce(t *testing.T) {
	v := &fakeVoice{connected: true}
	m := New(v, v, 10*time.Millisecond)
	defer m.Close()

	for i := 0; i < 5; i++ {
		m.Notify(guild, true)
		m.Notify(guild, false)
	}
	if got := m.Pending(guild); got != 5 {
		t.Fatalf("Pending = %d, want 5", got)
	}
	waitIdle(t, m)

	if got := v.count(); got != 1 {
		t.Errorf("disconnects = %d, want 1", got)
	}
}

func TestNotAloneSchedulesNothing(t *testing.T) {
	v := &fakeVoice{connected: true, members: 1}
	m := New(v, v, time.Millisecond)
	defer m.Close()

	m.Notify(guild, false)
	if got := m.Pending(guild); got != 0 {
		t.Errorf("Pending = %d, want 0", got)
	}
}

func TestCloseStopsPendingChecks(t *testing.T) {
	v := &fakeVoice{connected: true}
	m := New(v, v, 30*time.Millisecond)

	m.Notify(guild, true)
	m.Notify("guild-b", true)
	m.Close()

	if got := m.Pending(guild); got != 0 {
		t.Errorf("Pending after Close = %d, want 0", got)
	}
	m.Notify(guild, true)
	if got := m.Pending(guild); got != 0 {
		t.Errorf("Notify after Close scheduled %d checks", got)
	}

	time.Sleep(60 * time.Millisecond)
	if got := v.count(); got != 0 {
		t.Errorf("disconnects = %d, want 0", got)
	}
}

func TestDefaultDelay(t *testing.T) {
	m := New(&fakeVoice{}, &fakeVoice{}, 0)
	if m.delay != DefaultDelay {
		t.Errorf("delay = %v, want %v", m.delay, DefaultDelay)
	}
}
