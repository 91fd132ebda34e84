package queue

import (
	"fmt"
	"strings"
)

// LoopMode controls what Advance does when a song finishes.
type LoopMode int

const (
	LoopOff   LoopMode = iota // play through the queue once
	LoopSong                  // replay the current song until skipped
	LoopQueue                 // re-append finished songs to the back
)

// String returns a human-readable representation of the loop mode.
func (m LoopMode) String() string {
	switch m {
	case LoopSong:
		return "song"
	case LoopQueue:
		return "queue"
	default:
		return "off"
	}
}

func (m LoopMode) Emoji() string {
	switch m {
	case LoopSong:
		return "🔂"
	case LoopQueue:
		return "🔁"
	default:
		return "➡️"
	}
}

// ParseLoopMode converts user input to a LoopMode.
func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LoopOff, nil
	case "song", "track", "one":
		return LoopSong, nil
	case "queue", "all":
		return LoopQueue, nil
	}
	return LoopOff, fmt.Errorf("unknown loop mode %q (expected off, song or queue)", s)
}
