package music

import (
	"context"
	"fmt"

	"everybot/internal/bot"

	"github.com/bwmarrin/discordgo"
)

type StopCommand struct{ musicCommand }

func (c *StopCommand) Name() string        { return "stop" }
func (c *StopCommand) Description() string { return "Stop playback, clear the queue and leave" }
func (c *StopCommand) Aliases() []string   { return []string{"st"} }

func (c *StopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *StopCommand) Run(ctx context.Context, data any) error {
	sc, ok := slashContext(data)
	if !ok {
		return nil
	}
	s, e := sc.Session, sc.Event

	if c.Bot.BotChannelID(e.GuildID) == "" {
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed(nothingPlaying))
	}
	if err := c.Bot.Player().Disconnect(ctx, e.GuildID); err != nil {
		guildLog(e).Warn().Err(err).Msg("Disconnect failed")
		return bot.RespondEmbed(s, e, bot.ErrorEmbed(fmt.Sprintf("Stopped, but could not leave the channel: %v", err)))
	}
	return bot.Respond(s, e, "⏹️ Stopped playback and left the channel.")
}
