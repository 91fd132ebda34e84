package player

import (
	"context"
	"errors"
	"fmt"

	"everybot/internal/music/queue"
)

// maxAdvanceAttempts bounds how many unplayable songs one advance skips over.
const maxAdvanceAttempts = 3

// trackEnded returns the callback handed to the transport for one song. It
// only schedules work: the transport calls it from its own goroutine and
// must not wait on the queue or on another stream starting.
//
// The job advances only while songID is still current. An end reported
// after a skip already moved the queue is ignored.
func (p *Player) trackEnded(guildID, songID string) func() {
	return func() {
		err := p.jobs.Go("track-end:"+guildID, func(ctx context.Context) error {
			if cur, ok := p.store.Current(guildID); !ok || cur.ID != songID {
				p.log.Debug().Str("guild", guildID).Msg("Ignoring end of a track that is no longer current")
				return nil
			}
			_, _, err := p.advance(ctx, guildID, false)
			return err
		})
		if err != nil {
			p.log.Warn().Err(err).Str("guild", guildID).Msg("Track ended but advance was not scheduled")
		}
	}
}

// advance is AdvanceAndPlay that moves past songs which fail to start. A
// failed song counts as skipped, so song loop does not retry it forever.
// If every attempt fails the failed song is dropped and the guild is idle.
func (p *Player) advance(ctx context.Context, guildID string, wasSkipped bool) (queue.Song, bool, error) {
	var (
		errs []error
		last queue.Song
	)
	for attempt := 1; attempt <= maxAdvanceAttempts; attempt++ {
		next, ok, err := p.AdvanceAndPlay(ctx, guildID, wasSkipped)
		if err == nil && (ok || len(errs) == 0) {
			return next, ok, nil
		}
		if !ok {
			// Ran out of songs while skipping failed ones.
			return last, false, failedAdvance(errs)
		}
		errs = append(errs, err)
		last = next
		wasSkipped = true
		p.log.Warn().Err(err).Str("guild", guildID).Int("attempt", attempt).Msg("Skipping track that failed to start")

		if ctx.Err() != nil {
			break
		}
	}

	p.store.DropCurrent(guildID, last.ID)
	return last, false, failedAdvance(errs)
}

func failedAdvance(errs []error) error {
	return fmt.Errorf("no playable track after %d attempts: %w", len(errs), errors.Join(errs...))
}
