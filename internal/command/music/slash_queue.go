package music

import (
	"context"
	"fmt"

	"everybot/internal/bot"

	"github.com/bwmarrin/discordgo"
)

type QueueCommand struct{ musicCommand }

func (c *QueueCommand) Name() string        { return "queue" }
func (c *QueueCommand) Description() string { return "Show the queue" }
func (c *QueueCommand) Aliases() []string   { return []string{"q"} }

func (c *QueueCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "page",
				Description: "Page number",
				MinValue:    floatPtr(1),
			},
		},
	}
}

func (c *QueueCommand) Run(ctx context.Context, data any) error {
	sc, ok := slashContext(data)
	if !ok {
		return nil
	}
	snap := c.Bot.Player().Queue().Snapshot(sc.Event.GuildID)
	page := int(intOption(sc.Event, "page", 1))
	return bot.RespondEmbed(sc.Session, sc.Event, queueEmbed(snap, page))
}

type RemoveCommand struct{ musicCommand }

func (c *RemoveCommand) Name() string        { return "remove" }
func (c *RemoveCommand) Description() string { return "Remove a song from the queue" }
func (c *RemoveCommand) Aliases() []string   { return []string{"rm"} }

func (c *RemoveCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "position",
				Description: "Position in the queue, as shown by /queue",
				Required:    true,
				MinValue:    floatPtr(1),
			},
		},
	}
}

func (c *RemoveCommand) Run(ctx context.Context, data any) error {
	sc, ok := slashContext(data)
	if !ok {
		return nil
	}
	s, e := sc.Session, sc.Event

	position := int(intOption(e, "position", 0))
	removed, ok := c.Bot.Player().Queue().RemoveAt(e.GuildID, position)
	if !ok {
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed(fmt.Sprintf("There is no song at #%d.", position)))
	}
	return bot.Respond(s, e, fmt.Sprintf("🗑️ Removed **%s** (#%d)", removed.Title, position))
}

type ShuffleCommand struct{ musicCommand }

func (c *ShuffleCommand) Name() string        { return "shuffle" }
func (c *ShuffleCommand) Description() string { return "Shuffle the queue" }
func (c *ShuffleCommand) Aliases() []string   { return []string{"sh"} }

func (c *ShuffleCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ShuffleCommand) Run(ctx context.Context, data any) error {
	sc, ok := slashContext(data)
	if !ok {
		return nil
	}
	s, e := sc.Session, sc.Event

	n := c.Bot.Player().Queue().Shuffle(e.GuildID)
	if n == 0 {
		return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed("The queue is empty."))
	}
	return bot.Respond(s, e, fmt.Sprintf("🔀 Shuffled %d song(s).", n))
}
