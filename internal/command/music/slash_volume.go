package music

import (
	"context"
	"fmt"

	"everybot/internal/bot"

	"github.com/bwmarrin/discordgo"
)

type VolumeCommand struct{ musicCommand }

func (c *VolumeCommand) Name() string        { return "volume" }
func (c *VolumeCommand) Description() string { return "Set the playback volume" }
func (c *VolumeCommand) Aliases() []string   { return []string{"v"} }

func (c *VolumeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "level",
				Description: "Volume from 0 to 100",
				Required:    true,
				MinValue:    floatPtr(0),
				MaxValue:    100,
			},
		},
	}
}

func (c *VolumeCommand) Run(ctx context.Context, data any) error {
	sc, ok := slashContext(data)
	if !ok {
		return nil
	}
	s, e := sc.Session, sc.Event

	volume, err := volumeFromPercent(intOption(e, "level", -1))
	if err != nil {
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed("Volume must be between 0 and 100."))
	}
	volume = c.Bot.Player().SetVolume(e.GuildID, volume)
	return bot.Respond(s, e, fmt.Sprintf("🔊 Volume: **%d%%**", volumePercent(volume)))
}
