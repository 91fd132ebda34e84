package storage

import (
	"time"

	"everybot/internal/music/queue"
	st "everybot/internal/storagetypes"
)

// RecordTrack remembers that song started playing in the guild.
func (s *Storage) RecordTrack(guildID string, song queue.Song) error {
	entry := st.TrackHistory{
		Title:     song.Title,
		URL:       song.URL,
		Duration:  song.Duration,
		Requester: song.Requester,
		PlayedAt:  time.Now().UTC(),
	}
	return s.update(guildID, func(r *st.Record) {
		r.TracksHistory = keepLast(append(r.TracksHistory, entry), tracksHistoryLimit)
	})
}

// GetTracksHistory returns recently played tracks, newest last.
func (s *Storage) GetTracksHistory(guildID string) ([]st.TrackHistory, error) {
	record, err := s.guildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.TracksHistory, nil
}
