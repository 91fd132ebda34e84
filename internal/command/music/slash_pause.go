package music

import (
	"context"
	"errors"
	"fmt"

	"everybot/internal/bot"
	"everybot/internal/music/player"
	"everybot/internal/music/queue"

	"github.com/bwmarrin/discordgo"
)

type PauseCommand struct{ musicCommand }

func (c *PauseCommand) Name() string        { return "pause" }
func (c *PauseCommand) Description() string { return "Pause the current song" }
func (c *PauseCommand) Aliases() []string   { return []string{"pa"} }

func (c *PauseCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *PauseCommand) Run(ctx context.Context, data any) error {
	sc, ok := slashContext(data)
	if !ok {
		return nil
	}
	song, err := c.Bot.Player().Pause(sc.Event.GuildID)
	return respondToggle(sc.Session, sc.Event, song, err, "⏸️ Paused **%s**")
}

type ResumeCommand struct{ musicCommand }

func (c *ResumeCommand) Name() string        { return "resume" }
func (c *ResumeCommand) Description() string { return "Resume the paused song" }
func (c *ResumeCommand) Aliases() []string   { return []string{"r"} }

func (c *ResumeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ResumeCommand) Run(ctx context.Context, data any) error {
	sc, ok := slashContext(data)
	if !ok {
		return nil
	}
	song, err := c.Bot.Player().Resume(sc.Event.GuildID)
	return respondToggle(sc.Session, sc.Event, song, err, "▶️ Resumed **%s**")
}

func respondToggle(s *discordgo.Session, e *discordgo.InteractionCreate, song queue.Song, err error, format string) error {
	if errors.Is(err, player.ErrNoTrackPlaying) {
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed(nothingPlaying))
	}
	if err != nil {
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed(fmt.Sprintf("The track already ended: %v", err)))
	}
	return bot.Respond(s, e, fmt.Sprintf(format, song.Title))
}
