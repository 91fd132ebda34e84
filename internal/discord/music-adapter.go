package discord

import (
	"context"
	"fmt"

	"everybot/internal/bot"
	"everybot/internal/music/player"
	"everybot/internal/music/queue"

	"github.com/bwmarrin/discordgo"
)

// Bot implements bot.BotVoice for the music commands.
var _ bot.BotVoice = (*Bot)(nil)

func (b *Bot) Player() *player.Player {
	return b.player
}

func (b *Bot) Resolve(ctx context.Context, query string) (queue.Song, error) {
	return b.resolver.Resolve(ctx, query)
}

func (b *Bot) JoinVoice(ctx context.Context, guildID, channelID string) error {
	return b.voice.Join(ctx, guildID, channelID)
}

func (b *Bot) BotChannelID(guildID string) string {
	return b.voice.ChannelID(guildID)
}

// FindUserVoiceState finds the voice state of a user
func (b *Bot) FindUserVoiceState(guildID, userID string) (*bot.VoiceState, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving guild: %w", err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return &bot.VoiceState{
				ChannelID: vs.ChannelID,
				UserID:    vs.UserID,
			}, nil
		}
	}
	return nil, bot.ErrUserNotInVoice
}

// Alone reports whether the bot sits in a voice channel without any human
// listener. A guild the bot is not connected in is never alone.
func (b *Bot) Alone(guildID string) bool {
	channelID := b.voice.ChannelID(guildID)
	if channelID == "" {
		return false
	}
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		b.log.Debug().Err(err).Str("guild", guildID).Msg("Guild not in state")
		return false
	}

	b.dg.State.RLock()
	defer b.dg.State.RUnlock()
	selfID := ""
	if b.dg.State.User != nil {
		selfID = b.dg.State.User.ID
	}
	return countListeners(guild, channelID, selfID) == 0
}

// countListeners counts the non-bot users connected to channelID.
func countListeners(guild *discordgo.Guild, channelID, selfID string) int {
	bots := make(map[string]bool, len(guild.Members))
	for _, m := range guild.Members {
		if m.User != nil && m.User.Bot {
			bots[m.User.ID] = true
		}
	}

	n := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID || vs.UserID == selfID {
			continue
		}
		if bots[vs.UserID] || (vs.Member != nil && vs.Member.User != nil && vs.Member.User.Bot) {
			continue
		}
		n++
	}
	return n
}
