package music

import (
	"context"

	"everybot/internal/bot"

	"github.com/bwmarrin/discordgo"
)

type HistoryCommand struct{ musicCommand }

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Description() string { return "Show recently played songs" }

func (c *HistoryCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *HistoryCommand) Run(ctx context.Context, data any) error {
	sc, ok := slashContext(data)
	if !ok || sc.Storage == nil {
		return nil
	}
	s, e := sc.Session, sc.Event

	tracks, err := sc.Storage.GetTracksHistory(e.GuildID)
	if err != nil {
		guildLog(e).Error().Err(err).Msg("Failed to read track history")
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed("Could not load the history."))
	}
	return bot.RespondEmbed(s, e, historyEmbed(tracks))
}
