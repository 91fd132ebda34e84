// Package bot holds what commands need from the running Discord bot without
// importing the discord package itself.
package bot

import (
	"context"
	"errors"

	"everybot/internal/music/player"
	"everybot/internal/music/queue"
)

var ErrUserNotInVoice = errors.New("user is not in a voice channel")

// BotVoice is the interface the Discord bot provides for voice/music.
type BotVoice interface {
	Player() *player.Player
	Resolve(ctx context.Context, query string) (queue.Song, error)
	JoinVoice(ctx context.Context, guildID, channelID string) error
	// BotChannelID returns the voice channel the bot is connected to, or "".
	BotChannelID(guildID string) string
	FindUserVoiceState(guildID, userID string) (*VoiceState, error)
}

// VoiceState holds minimal voice channel state for a user.
type VoiceState struct {
	ChannelID string
	UserID    string
}
