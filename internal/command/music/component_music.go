package music

import (
	"context"
	"errors"
	"fmt"

	"everybot/internal/bot"
	"everybot/internal/command"
	"everybot/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

// ControlsCommand answers the buttons attached to now-playing messages. It
// has no slash definition.
type ControlsCommand struct{ musicCommand }

func (c *ControlsCommand) Name() string        { return controlsPrefix }
func (c *ControlsCommand) Description() string { return "Playback buttons" }

func (c *ControlsCommand) Run(ctx context.Context, data any) error {
	return nil
}

func (c *ControlsCommand) Component(ctx context.Context, cc *command.ComponentInteractionContext) error {
	s, e := cc.Session, cc.Event

	botChannel := c.Bot.BotChannelID(e.GuildID)
	if botChannel == "" {
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed("I'm not in a voice channel."))
	}
	vs, err := c.Bot.FindUserVoiceState(e.GuildID, interactionUser(e).ID)
	if err != nil || vs.ChannelID != botChannel {
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed("You need to be in my voice channel to use these buttons."))
	}

	p := c.Bot.Player()
	switch id := e.MessageComponentData().CustomID; id {
	case buttonPause:
		_, err := p.Pause(e.GuildID)
		return c.refresh(s, e, err)
	case buttonResume:
		_, err := p.Resume(e.GuildID)
		return c.refresh(s, e, err)
	case queueSelectMenuID:
		return c.refresh(s, e, nil)
	case buttonSkip:
		return c.skip(ctx, s, e)
	case buttonStop:
		if err := p.Disconnect(ctx, e.GuildID); err != nil {
			guildLog(e).Warn().Err(err).Msg("Disconnect failed")
		}
		return bot.UpdateMessage(s, e, &discordgo.MessageEmbed{
			Title:       player.StatusIdle.StringEmoji() + " Stopped",
			Description: "Stopped playback and left the channel.",
			Color:       bot.ErrorColor,
		}, disabledControls())
	default:
		guildLog(e).Debug().Str("custom_id", id).Msg("Unknown music control")
		return nil
	}
}

// refresh redraws the message with the guild's current state.
func (c *ControlsCommand) refresh(s *discordgo.Session, e *discordgo.InteractionCreate, err error) error {
	p := c.Bot.Player()
	snap := p.Queue().Snapshot(e.GuildID)
	if snap.Current == nil || errors.Is(err, player.ErrNoTrackPlaying) {
		return bot.UpdateMessage(s, e, bot.ErrorEmbed(nothingPlaying), disabledControls())
	}
	status := p.Status(e.GuildID)
	return bot.UpdateMessage(s, e, statusEmbed(snap, status), controls(status == player.StatusPaused, snap.Pending))
}

func (c *ControlsCommand) skip(ctx context.Context, s *discordgo.Session, e *discordgo.InteractionCreate) error {
	if err := bot.DeferUpdate(s, e); err != nil {
		return fmt.Errorf("failed to defer update: %w", err)
	}

	p := c.Bot.Player()
	_, next, ok, err := p.Skip(ctx, e.GuildID)
	switch {
	case errors.Is(err, player.ErrNoTrackPlaying):
		return bot.EditEmbed(s, e, bot.ErrorEmbed(nothingToSkip), disabledControls())
	case err != nil:
		guildLog(e).Warn().Err(err).Msg("Skip failed")
		return bot.FollowupEmbedEphemeral(s, e, bot.ErrorEmbed(fmt.Sprintf("Skip failed: %v", err)))
	case !ok:
		return bot.EditEmbed(s, e, &discordgo.MessageEmbed{
			Title:       "⏭️ Skipped",
			Description: queueEmptyNotice + ".",
			Color:       bot.EmbedColor,
		}, disabledControls())
	}
	snap := p.Queue().Snapshot(e.GuildID)
	return bot.EditEmbed(s, e, nowPlayingEmbed(next), controls(false, snap.Pending))
}
