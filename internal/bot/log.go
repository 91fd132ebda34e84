package bot

import (
	"time"

	"everybot/internal/storage"
	st "everybot/internal/storagetypes"

	"github.com/bwmarrin/discordgo"
)

// LogCommand appends an invocation to the guild's command history. Channel
// and guild names come from the session state when it has them.
func LogCommand(s *discordgo.Session, stor *storage.Storage, guildID, channelID, userID, username, commandName, param string) error {
	if stor == nil || guildID == "" {
		return nil
	}

	entry := st.CommandHistory{
		ChannelID: channelID,
		UserID:    userID,
		Username:  username,
		Command:   commandName,
		Param:     param,
		Datetime:  time.Now(),
	}
	if s != nil && s.State != nil {
		if ch, err := s.State.Channel(channelID); err == nil {
			entry.ChannelName = ch.Name
		}
		if g, err := s.State.Guild(guildID); err == nil {
			entry.GuildName = g.Name
		}
	}
	return stor.AppendCommandToHistory(guildID, entry)
}
