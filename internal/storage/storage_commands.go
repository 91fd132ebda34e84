package storage

import (
	"fmt"

	st "everybot/internal/storagetypes"
)

// AppendCommandToHistory records a command run in the guild.
func (s *Storage) AppendCommandToHistory(guildID string, command st.CommandHistory) error {
	return s.update(guildID, func(r *st.Record) {
		r.CommandsHistory = keepLast(append(r.CommandsHistory, command), commandHistoryLimit)
	})
}

func (s *Storage) GetCommandsHistory(guildID string) ([]st.CommandHistory, error) {
	record, err := s.guildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistory, nil
}

func commandHashesKey(scope string) string {
	return "command-hashes:" + scope
}

// CommandHashes returns the definition hashes last registered with Discord
// for scope (a guild ID, or "global").
func (s *Storage) CommandHashes(scope string) (map[string]string, error) {
	hashes := make(map[string]string)
	if _, err := s.ds.Get(commandHashesKey(scope), &hashes); err != nil {
		return nil, fmt.Errorf("load command hashes for %s: %w", scope, err)
	}
	return hashes, nil
}

func (s *Storage) SetCommandHashes(scope string, hashes map[string]string) error {
	return s.ds.Put(commandHashesKey(scope), hashes)
}
