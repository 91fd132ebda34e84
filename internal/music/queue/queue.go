package queue

import (
	"math"
	"slices"

	"github.com/samber/lo"
)

// Snapshot is a consistent copy of a guild's queue.
type Snapshot struct {
	Current  *Song
	Pending  []Song
	LoopMode LoopMode
	Volume   float64
	Active   bool
}

// AddSong appends song to the pending list and returns the new length.
func (s *Store) AddSong(guildID string, song Song) int {
	var n int
	s.write(guildID, func(q *GuildQueue) {
		q.pending = append(q.pending, song)
		n = len(q.pending)
	})
	return n
}

// Enqueue appends song and reports whether the guild was idle (nothing
// playing and nothing pending) before the append. Of several concurrent
// callers on an idle guild exactly one sees wasIdle.
func (s *Store) Enqueue(guildID string, song Song) (position int, wasIdle bool) {
	s.write(guildID, func(q *GuildQueue) {
		wasIdle = q.current == nil && len(q.pending) == 0
		q.pending = append(q.pending, song)
		position = len(q.pending)
	})
	return position, wasIdle
}

// Advance moves the queue to the next song and returns it.
//
// Without a skip, LoopSong keeps the current song. LoopQueue moves the
// finished song to the back before taking the next one. When nothing is left
// the guild becomes idle and ok is false.
func (s *Store) Advance(guildID string, wasSkipped bool) (next Song, ok bool) {
	s.write(guildID, func(q *GuildQueue) {
		if !wasSkipped && q.loopMode == LoopSong && q.current != nil {
			next, ok = *q.current, true
			return
		}

		if q.loopMode == LoopQueue && q.current != nil {
			q.pending = append(q.pending, *q.current)
		}

		q.current = nil
		if len(q.pending) == 0 {
			return
		}
		next, ok = q.pending[0], true
		q.pending[0] = Song{}
		q.pending = q.pending[1:]
		q.current = &next
	})
	return next, ok
}

// RemoveAt removes the song at the 1-based position of the pending list.
// The current song is never touched. Out of range positions change nothing.
func (s *Store) RemoveAt(guildID string, position int) (removed Song, ok bool) {
	s.writeExisting(guildID, func(q *GuildQueue) {
		if position < 1 || position > len(q.pending) {
			return
		}
		removed, ok = q.pending[position-1], true
		q.pending = slices.Delete(q.pending, position-1, position)
	})
	return removed, ok
}

// Shuffle permutes the pending songs and returns how many were shuffled.
func (s *Store) Shuffle(guildID string) int {
	var n int
	s.writeExisting(guildID, func(q *GuildQueue) {
		lo.Shuffle(q.pending)
		n = len(q.pending)
	})
	return n
}

// Clear empties the queue and forgets the current song and handle. The
// dropped handle is returned so the caller can stop it; Clear itself never
// talks to the transport.
func (s *Store) Clear(guildID string) Handle {
	var dropped Handle
	s.writeExisting(guildID, func(q *GuildQueue) {
		dropped = q.handle
		q.pending = nil
		q.current = nil
		q.handle = nil
	})
	return dropped
}

// SetLoopMode sets the guild's loop mode and returns it.
func (s *Store) SetLoopMode(guildID string, mode LoopMode) LoopMode {
	s.write(guildID, func(q *GuildQueue) {
		q.loopMode = mode
	})
	return mode
}

// SetVolume stores the volume, clamped to [0, 1], and retunes the live track.
func (s *Store) SetVolume(guildID string, volume float64) float64 {
	volume = clampVolume(volume)
	s.write(guildID, func(q *GuildQueue) {
		q.volume = volume
		if q.handle != nil {
			q.handle.SetVolume(volume)
		}
	})
	return volume
}

// Current returns the song presumed to be playing.
func (s *Store) Current(guildID string) (song Song, ok bool) {
	s.read(guildID, func(q *GuildQueue) {
		if q.current != nil {
			song, ok = *q.current, true
		}
	})
	return song, ok
}

// Pending returns a copy of the songs waiting to play.
func (s *Store) Pending(guildID string) []Song {
	var out []Song
	s.read(guildID, func(q *GuildQueue) {
		out = slices.Clone(q.pending)
	})
	return out
}

// Snapshot returns a consistent copy of the whole guild state.
func (s *Store) Snapshot(guildID string) Snapshot {
	var snap Snapshot
	s.read(guildID, func(q *GuildQueue) {
		if q.current != nil {
			cur := *q.current
			snap.Current = &cur
		}
		snap.Pending = slices.Clone(q.pending)
		snap.LoopMode = q.loopMode
		snap.Volume = q.volume
		snap.Active = q.handle != nil
	})
	return snap
}

func (s *Store) Volume(guildID string) float64 {
	var v float64
	s.read(guildID, func(q *GuildQueue) { v = q.volume })
	return v
}

func (s *Store) LoopMode(guildID string) LoopMode {
	var m LoopMode
	s.read(guildID, func(q *GuildQueue) { m = q.loopMode })
	return m
}

// IsEmpty reports whether nothing is playing and nothing is pending.
func (s *Store) IsEmpty(guildID string) bool {
	empty := true
	s.read(guildID, func(q *GuildQueue) {
		empty = q.current == nil && len(q.pending) == 0
	})
	return empty
}

// Handle returns the live track handle, if any.
func (s *Store) Handle(guildID string) Handle {
	var h Handle
	s.read(guildID, func(q *GuildQueue) { h = q.handle })
	return h
}

// SwapHandle installs h as the live handle if songID is still the current
// song, applying the stored volume. It returns the handle it replaced. When
// the queue has moved on, nothing is stored and ok is false; the caller owns
// h and should stop it.
func (s *Store) SwapHandle(guildID, songID string, h Handle) (old Handle, ok bool) {
	s.writeExisting(guildID, func(q *GuildQueue) {
		if q.current == nil || q.current.ID != songID {
			return
		}
		old, ok = q.handle, true
		q.handle = h
		h.SetVolume(q.volume)
	})
	return old, ok
}

// TakeHandle removes and returns the live handle.
func (s *Store) TakeHandle(guildID string) Handle {
	var h Handle
	s.writeExisting(guildID, func(q *GuildQueue) {
		h = q.handle
		q.handle = nil
	})
	return h
}

func clampVolume(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// DropCurrent forgets the current song if it is songID and nothing is
// streaming it. It is used after a song could not be started at all, so the
// guild counts as idle again.
func (s *Store) DropCurrent(guildID, songID string) bool {
	var dropped bool
	s.writeExisting(guildID, func(q *GuildQueue) {
		if q.current == nil || q.current.ID != songID || q.handle != nil {
			return
		}
		q.current = nil
		dropped = true
	})
	return dropped
}
