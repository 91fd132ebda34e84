// Package queue holds the per-guild playback state: pending songs, the song
// presumed to be playing, loop mode, volume and the live track handle.
//
// Every guild has its own lock. The map lock is only taken to find or create
// a guild entry, so a slow operation in one guild never blocks another.
package queue

import (
	"slices"
	"sync"
)

// DefaultVolume is the volume of a guild that never changed it.
const DefaultVolume = 0.5

// Handle controls a track that is streaming on the voice transport.
// SetVolume is called with the guild lock held and must not block.
type Handle interface {
	SetVolume(v float64)
	Pause() error
	Resume() error
	Stop()
	Paused() bool
	Playing() bool
}

// GuildQueue is the playback state of one guild.
type GuildQueue struct {
	pending  []Song
	current  *Song
	loopMode LoopMode
	volume   float64
	handle   Handle
}

func defaultGuildQueue() GuildQueue {
	return GuildQueue{volume: DefaultVolume, loopMode: LoopOff}
}

type entry struct {
	mu sync.RWMutex
	q  GuildQueue
}

// Store maps guild IDs to their GuildQueue. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	guilds map[string]*entry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{guilds: make(map[string]*entry)}
}

func (s *Store) lookup(guildID string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guilds[guildID]
}

func (s *Store) materialize(guildID string) *entry {
	if e := s.lookup(guildID); e != nil {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.guilds[guildID]; ok {
		return e
	}
	e := &entry{q: defaultGuildQueue()}
	s.guilds[guildID] = e
	return e
}

// read runs fn under the guild's read lock. A guild that was never written
// is presented as a default queue and is not added to the map.
func (s *Store) read(guildID string, fn func(q *GuildQueue)) {
	e := s.lookup(guildID)
	if e == nil {
		q := defaultGuildQueue()
		fn(&q)
		return
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(&e.q)
}

// write runs fn under the guild's write lock, creating the guild on first use.
func (s *Store) write(guildID string, fn func(q *GuildQueue)) {
	e := s.materialize(guildID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.q)
}

// writeExisting is write for operations that have nothing to do on a guild
// that was never materialized.
func (s *Store) writeExisting(guildID string, fn func(q *GuildQueue)) {
	e := s.lookup(guildID)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.q)
}

// Guilds returns the IDs of every materialized guild.
func (s *Store) Guilds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.guilds))
	for id := range s.guilds {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
