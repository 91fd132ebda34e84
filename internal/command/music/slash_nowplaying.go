package music

import (
	"context"

	"everybot/internal/bot"
	"everybot/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

type NowPlayingCommand struct{ musicCommand }

func (c *NowPlayingCommand) Name() string        { return "nowplaying" }
func (c *NowPlayingCommand) Description() string { return "Show the current song" }
func (c *NowPlayingCommand) Aliases() []string   { return []string{"np"} }

func (c *NowPlayingCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *NowPlayingCommand) Run(ctx context.Context, data any) error {
	sc, ok := slashContext(data)
	if !ok {
		return nil
	}
	s, e := sc.Session, sc.Event

	p := c.Bot.Player()
	snap := p.Queue().Snapshot(e.GuildID)
	if snap.Current == nil {
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed(nothingPlaying))
	}
	status := p.Status(e.GuildID)
	return bot.RespondEmbed(s, e, statusEmbed(snap, status), controls(status == player.StatusPaused, snap.Pending)...)
}
