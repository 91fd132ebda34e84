package music

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"everybot/internal/bot"
	"everybot/internal/music/player"
	"everybot/internal/music/source_resolver"

	"github.com/bwmarrin/discordgo"
)

type PlayCommand struct{ musicCommand }

func (c *PlayCommand) Name() string        { return "play" }
func (c *PlayCommand) Description() string { return "Play a song or add it to the queue" }
func (c *PlayCommand) Aliases() []string   { return []string{"p"} }

func (c *PlayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "Song title or link (YouTube, SoundCloud, anything yt-dlp can open)",
				Required:    true,
			},
		},
	}
}

func (c *PlayCommand) Run(ctx context.Context, data any) error {
	sc, ok := slashContext(data)
	if !ok {
		return nil
	}
	s, e := sc.Session, sc.Event
	logger := guildLog(e)

	query := strings.TrimSpace(stringOption(e, "query"))
	if query == "" {
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed("Give me a song title or a link."))
	}

	user := interactionUser(e)
	voiceState, err := c.Bot.FindUserVoiceState(e.GuildID, user.ID)
	if err != nil {
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed("Join a voice channel first!"))
	}

	if err := bot.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("failed to send deferred response: %w", err)
	}

	song, err := c.Bot.Resolve(ctx, query)
	if err != nil {
		logger.Warn().Err(err).Str("query", query).Msg("Resolve failed")
		msg := notFoundMessage
		if !errors.Is(err, source_resolver.ErrNotFound) {
			msg = fmt.Sprintf("%s: %v", notFoundMessage, err)
		}
		return bot.FollowupEmbed(s, e, bot.ErrorEmbed(msg))
	}
	song = song.WithRequester(displayName(e))

	if err := c.Bot.JoinVoice(ctx, e.GuildID, voiceState.ChannelID); err != nil {
		logger.Error().Err(err).Str("channel", voiceState.ChannelID).Msg("Join failed")
		return bot.FollowupEmbed(s, e, bot.ErrorEmbed("Could not join your voice channel."))
	}

	p := c.Bot.Player()
	position, started, err := p.Enqueue(ctx, e.GuildID, song)
	if err != nil {
		logger.Error().Err(err).Str("title", song.Title).Msg("Playback failed")
		return bot.FollowupEmbed(s, e, bot.ErrorEmbed(notFoundMessage))
	}

	snap := p.Queue().Snapshot(e.GuildID)
	if started {
		return bot.FollowupEmbed(s, e, nowPlayingEmbed(song), controls(false, snap.Pending)...)
	}
	return bot.FollowupEmbed(s, e, addedEmbed(song, position), controls(p.Status(e.GuildID) == player.StatusPaused, snap.Pending)...)
}
