package queue

import "github.com/google/uuid"

// Song is a queued track. It is a small immutable value; copy it freely.
// ID distinguishes two queue entries that point at the same URL.
type Song struct {
	ID        string
	Title     string
	URL       string
	Duration  string
	Requester string
}

// NewSong creates a Song with a fresh identity.
func NewSong(title, url, duration, requester string) Song {
	return Song{
		ID:        uuid.NewString(),
		Title:     title,
		URL:       url,
		Duration:  duration,
		Requester: requester,
	}
}

// WithRequester returns a copy of s attributed to requester.
func (s Song) WithRequester(requester string) Song {
	s.Requester = requester
	return s
}
