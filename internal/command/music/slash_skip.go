package music

import (
	"context"
	"errors"
	"fmt"

	"everybot/internal/bot"
	"everybot/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

type SkipCommand struct{ musicCommand }

func (c *SkipCommand) Name() string        { return "skip" }
func (c *SkipCommand) Description() string { return "Skip the current song" }
func (c *SkipCommand) Aliases() []string   { return []string{"s"} }

func (c *SkipCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *SkipCommand) Run(ctx context.Context, data any) error {
	sc, ok := slashContext(data)
	if !ok {
		return nil
	}
	s, e := sc.Session, sc.Event

	p := c.Bot.Player()
	if _, playing := p.Queue().Current(e.GuildID); !playing {
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed(nothingToSkip))
	}

	// Starting the next song may take a while.
	if err := bot.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	skipped, next, ok, err := p.Skip(ctx, e.GuildID)
	switch {
	case errors.Is(err, player.ErrNoTrackPlaying):
		return bot.FollowupEmbed(s, e, bot.ErrorEmbed(nothingToSkip))
	case err != nil:
		guildLog(e).Warn().Err(err).Msg("Skip failed")
		return bot.FollowupEmbed(s, e, bot.ErrorEmbed(fmt.Sprintf("Skip failed: %v", err)))
	}
	return bot.Followup(s, e, skipMessage(skipped, next, ok))
}
