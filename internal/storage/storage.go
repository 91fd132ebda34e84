// Package storage keeps per-guild history in the datastore. Queue state is
// never persisted.
package storage

import (
	"fmt"
	"sync"

	"everybot/datastore"
	st "everybot/internal/storagetypes"
)

const (
	commandHistoryLimit int = 20
	tracksHistoryLimit  int = 12
)

type Storage struct {
	ds *datastore.DataStore
	// mu serialises read-modify-write of guild records.
	mu sync.Mutex
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

// NewWithStore wraps an open datastore.
func NewWithStore(ds *datastore.DataStore) *Storage {
	return &Storage{ds: ds}
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

func (s *Storage) guildRecord(guildID string) (*st.Record, error) {
	var record st.Record
	if _, err := s.ds.Get(guildID, &record); err != nil {
		return nil, fmt.Errorf("load record for guild %s: %w", guildID, err)
	}
	return &record, nil
}

// update applies fn to the guild's record and stores the result.
func (s *Storage) update(guildID string, fn func(r *st.Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.guildRecord(guildID)
	if err != nil {
		return err
	}
	fn(record)
	return s.ds.Put(guildID, record)
}

// keepLast trims list to its newest limit entries.
func keepLast[T any](list []T, limit int) []T {
	if len(list) <= limit {
		return list
	}
	return list[len(list)-limit:]
}
