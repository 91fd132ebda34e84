// Package inactivity disconnects the bot from voice channels it has been left
// alone in.
//
// A membership change reported as "alone" schedules a one-shot re-check. The
// re-check asks Presence again when it fires and only disconnects if the bot
// is still alone, so a timer scheduled during alone/not-alone flapping is
// harmless. Timers are never cancelled when members return.
package inactivity

import (
	"context"
	"sync"
	"time"

	"everybot/internal/logging"

	"github.com/rs/zerolog"
)

const (
	DefaultDelay      = 30 * time.Second
	disconnectTimeout = 10 * time.Second
)

// Presence reports whether the bot is the only member of its voice channel
// in a guild. It must return false when the bot is not connected there.
type Presence interface {
	Alone(guildID string) bool
}

// Disconnector clears a guild's playback and leaves its voice channel.
type Disconnector interface {
	Disconnect(ctx context.Context, guildID string) error
}

type Monitor struct {
	presence Presence
	player   Disconnector
	delay    time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	nextID uint64
	timers map[string]map[uint64]*time.Timer
	locks  map[string]*sync.Mutex
	closed bool
}

// New creates a Monitor. A non-positive delay means DefaultDelay.
func New(presence Presence, player Disconnector, delay time.Duration) *Monitor {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Monitor{
		presence: presence,
		player:   player,
		delay:    delay,
		log:      logging.For("inactivity"),
		timers:   make(map[string]map[uint64]*time.Timer),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Notify handles a membership change in guildID. Only alone signals do
// anything.
func (m *Monitor) Notify(guildID string, alone bool) {
	if !alone {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.nextID++
	id := m.nextID
	if m.timers[guildID] == nil {
		m.timers[guildID] = make(map[uint64]*time.Timer)
	}
	m.timers[guildID][id] = time.AfterFunc(m.delay, func() { m.fire(guildID, id) })

	m.log.Debug().Str("guild", guildID).Dur("delay", m.delay).Msg("Bot is alone, scheduled re-check")
}

// Pending reports how many re-checks are scheduled for guildID.
func (m *Monitor) Pending(guildID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers[guildID])
}

// Close stops every scheduled re-check. Re-checks already running finish.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for guildID, set := range m.timers {
		for _, t := range set {
			t.Stop()
		}
		delete(m.timers, guildID)
	}
}

func (m *Monitor) fire(guildID string, id uint64) {
	m.mu.Lock()
	if _, ok := m.timers[guildID][id]; !ok {
		// Stopped by Close after the timer had already fired.
		m.mu.Unlock()
		return
	}
	delete(m.timers[guildID], id)
	if len(m.timers[guildID]) == 0 {
		delete(m.timers, guildID)
	}
	lock := m.guildLock(guildID)
	m.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	if !m.presence.Alone(guildID) {
		m.log.Debug().Str("guild", guildID).Msg("No longer alone, staying")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := m.player.Disconnect(ctx, guildID); err != nil {
		m.log.Error().Err(err).Str("guild", guildID).Msg("Failed to leave idle voice channel")
		return
	}
	m.log.Info().Str("guild", guildID).Msg("Left voice channel after inactivity")
}

// guildLock must be called with m.mu held.
func (m *Monitor) guildLock(guildID string) *sync.Mutex {
	l, ok := m.locks[guildID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[guildID] = l
	}
	return l
}
