package player

import (
	"context"
	"errors"
	"fmt"
	"io"

	"everybot/internal/logging"
	"everybot/internal/music/queue"
	"everybot/pkg/jobmgr"

	"github.com/rs/zerolog"
)

var (
	ErrNoTrackPlaying = errors.New("no track is currently playing")
	ErrNotConnected   = errors.New("not connected to a voice channel")
)

// Streamer opens a decoded PCM stream for a song. Closing the stream
// releases everything behind it.
type Streamer interface {
	Stream(ctx context.Context, song queue.Song) (io.ReadCloser, error)
}

// Transport plays PCM streams in a guild's voice channel.
//
// On success Play takes ownership of src. onEnd is called once when the stream runs out
// on its own; it is not called for tracks stopped through their handle.
type Transport interface {
	Play(ctx context.Context, guildID string, src io.ReadCloser, volume float64, onEnd func()) (queue.Handle, error)
	Leave(ctx context.Context, guildID string) error
}

// HistoryRecorder is told about every song that started playing.
type HistoryRecorder interface {
	RecordTrack(guildID string, song queue.Song) error
}

type PlayerStatus string

const (
	StatusPlaying PlayerStatus = "Playing"
	StatusPaused  PlayerStatus = "Paused"
	StatusIdle    PlayerStatus = "Idle"
)

func (status PlayerStatus) StringEmoji() string {
	m := map[PlayerStatus]string{
		StatusPlaying: "▶️",
		StatusPaused:  "⏸",
		StatusIdle:    "⏹",
	}
	return m[status]
}

// Player drives the voice transport from the queue store. It keeps no state
// of its own; every decision is taken from the store, so concurrent callers
// (commands, track-end jobs, the inactivity monitor) stay consistent.
type Player struct {
	store     *queue.Store
	streamer  Streamer
	transport Transport
	jobs      *jobmgr.Manager
	history   HistoryRecorder
	log       zerolog.Logger
}

type Option func(*Player)

// WithHistory records every started song.
func WithHistory(h HistoryRecorder) Option {
	return func(p *Player) { p.history = h }
}

// New creates a Player. Track-end work is scheduled on jobs.
func New(store *queue.Store, streamer Streamer, transport Transport, jobs *jobmgr.Manager, opts ...Option) *Player {
	p := &Player{
		store:     store,
		streamer:  streamer,
		transport: transport,
		jobs:      jobs,
		log:       logging.For("player"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Queue returns the store the player works on.
func (p *Player) Queue() *queue.Store {
	return p.store
}

// Enqueue adds song to the guild's queue and starts playback if the guild
// was idle. started reports whether this call started playback.
func (p *Player) Enqueue(ctx context.Context, guildID string, song queue.Song) (position int, started bool, err error) {
	position, wasIdle := p.store.Enqueue(guildID, song)
	p.log.Debug().Str("guild", guildID).Str("title", song.Title).Int("position", position).Msg("Enqueued")
	if !wasIdle {
		return position, false, nil
	}

	_, started, err = p.advance(ctx, guildID, false)
	return position, started, err
}

// PlaySong streams song into the guild's voice channel and installs the new
// track handle. On failure the queue is left as it was; the caller decides
// whether to skip, retry or report.
func (p *Player) PlaySong(ctx context.Context, guildID string, song queue.Song) error {
	src, err := p.streamer.Stream(ctx, song)
	if err != nil {
		return fmt.Errorf("open stream for %q: %w", song.Title, err)
	}

	h, err := p.transport.Play(ctx, guildID, src, p.store.Volume(guildID), p.trackEnded(guildID, song.ID))
	if err != nil {
		src.Close()
		return fmt.Errorf("start playback of %q: %w", song.Title, err)
	}

	old, ok := p.store.SwapHandle(guildID, song.ID, h)
	if !ok {
		// Another advance moved the queue on while this one was starting.
		h.Stop()
		p.log.Debug().Str("guild", guildID).Str("title", song.Title).Msg("Dropped superseded track")
		return nil
	}
	if old != nil && old != h {
		old.Stop()
	}

	p.log.Info().Str("guild", guildID).Str("title", song.Title).Str("requester", song.Requester).Msg("Now playing")
	if p.history != nil {
		if err := p.history.RecordTrack(guildID, song); err != nil {
			p.log.Warn().Err(err).Str("guild", guildID).Msg("Failed to record track history")
		}
	}
	return nil
}

// AdvanceAndPlay moves the queue forward and plays the result. The previous
// track is stopped first. When the queue is exhausted the guild goes idle and
// ok is false with a nil error.
func (p *Player) AdvanceAndPlay(ctx context.Context, guildID string, wasSkipped bool) (next queue.Song, ok bool, err error) {
	next, ok = p.store.Advance(guildID, wasSkipped)

	if prev := p.store.TakeHandle(guildID); prev != nil {
		prev.Stop()
	}

	if !ok {
		p.log.Info().Str("guild", guildID).Msg("Queue is empty")
		return next, false, nil
	}

	if err := p.PlaySong(ctx, guildID, next); err != nil {
		return next, true, err
	}
	return next, true, nil
}

// Skip ends the current song regardless of loop mode and plays the next
// playable one. ok is false when the queue ran out.
func (p *Player) Skip(ctx context.Context, guildID string) (skipped, next queue.Song, ok bool, err error) {
	skipped, playing := p.store.Current(guildID)
	if !playing {
		return skipped, next, false, ErrNoTrackPlaying
	}
	next, ok, err = p.advance(ctx, guildID, true)
	return skipped, next, ok, err
}

// Stop clears the guild's queue and stops the live track. The voice
// connection stays open.
func (p *Player) Stop(guildID string) {
	if h := p.store.Clear(guildID); h != nil {
		h.Stop()
	}
	p.log.Info().Str("guild", guildID).Msg("Playback stopped")
}

// Disconnect stops playback and leaves the voice channel.
func (p *Player) Disconnect(ctx context.Context, guildID string) error {
	p.Stop(guildID)
	if err := p.transport.Leave(ctx, guildID); err != nil {
		return fmt.Errorf("leave voice channel: %w", err)
	}
	p.log.Info().Str("guild", guildID).Msg("Left voice channel")
	return nil
}

func (p *Player) Pause(guildID string) (queue.Song, error) {
	h := p.store.Handle(guildID)
	cur, ok := p.store.Current(guildID)
	if h == nil || !ok {
		return cur, ErrNoTrackPlaying
	}
	return cur, h.Pause()
}

func (p *Player) Resume(guildID string) (queue.Song, error) {
	h := p.store.Handle(guildID)
	cur, ok := p.store.Current(guildID)
	if h == nil || !ok {
		return cur, ErrNoTrackPlaying
	}
	return cur, h.Resume()
}

// SetVolume sets the guild volume and retunes the live track.
func (p *Player) SetVolume(guildID string, volume float64) float64 {
	return p.store.SetVolume(guildID, volume)
}

// Status reports whether the guild is playing, paused or idle.
func (p *Player) Status(guildID string) PlayerStatus {
	h := p.store.Handle(guildID)
	switch {
	case h == nil:
		return StatusIdle
	case h.Paused():
		return StatusPaused
	case h.Playing():
		return StatusPlaying
	}
	return StatusIdle
}
