package music

import (
	"context"
	"fmt"

	"everybot/internal/bot"
	"everybot/internal/music/queue"

	"github.com/bwmarrin/discordgo"
)

type LoopCommand struct{ musicCommand }

func (c *LoopCommand) Name() string        { return "loop" }
func (c *LoopCommand) Description() string { return "Set the loop mode" }
func (c *LoopCommand) Aliases() []string   { return []string{"l"} }

func (c *LoopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mode",
				Description: "What to repeat",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Off", Value: queue.LoopOff.String()},
					{Name: "Song", Value: queue.LoopSong.String()},
					{Name: "Queue", Value: queue.LoopQueue.String()},
				},
			},
		},
	}
}

func (c *LoopCommand) Run(ctx context.Context, data any) error {
	sc, ok := slashContext(data)
	if !ok {
		return nil
	}
	s, e := sc.Session, sc.Event

	mode, err := queue.ParseLoopMode(stringOption(e, "mode"))
	if err != nil {
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed("Pick a loop mode: `off`, `song` or `queue`."))
	}
	mode = c.Bot.Player().Queue().SetLoopMode(e.GuildID, mode)
	return bot.Respond(s, e, fmt.Sprintf("%s Loop mode: **%s**", mode.Emoji(), mode))
}
