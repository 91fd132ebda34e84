package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"everybot/internal/bot"
	"everybot/internal/command"
	"everybot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

type HelpCommand struct {
	Registry *cmd.Registry
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Get a list of available commands" }
func (c *HelpCommand) Group() string       { return "core" }
func (c *HelpCommand) Category() string    { return "🕯️ Information" }

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *HelpCommand) Run(ctx context.Context, data any) error {
	sc, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	return bot.RespondEmbedEphemeral(sc.Session, sc.Event, &discordgo.MessageEmbed{
		Title:       "everybot help",
		Description: buildHelpByCategory(c.registry()),
		Color:       bot.EmbedColor,
	})
}

func (c *HelpCommand) registry() *cmd.Registry {
	if c.Registry != nil {
		return c.Registry
	}
	return cmd.DefaultRegistry
}

// buildHelpByCategory lists every slash command under its category, with
// aliases in brackets.
func buildHelpByCategory(r *cmd.Registry) string {
	categoryMap := make(map[string][]cmd.Command)
	for _, c := range r.GetAll() {
		root := cmd.Root(c)
		if sp, ok := root.(command.SlashProvider); !ok || sp.SlashDefinition() == nil {
			continue
		}
		cat := "Other"
		if meta, ok := root.(command.DiscordMeta); ok && meta.Category() != "" {
			cat = meta.Category()
		}
		categoryMap[cat] = append(categoryMap[cat], c)
	}

	cats := make([]string, 0, len(categoryMap))
	for cat := range categoryMap {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	var sb strings.Builder
	for _, cat := range cats {
		sb.WriteString(fmt.Sprintf("**%s**\n", cat))
		for _, c := range categoryMap[cat] {
			sb.WriteString(fmt.Sprintf("`/%s`", c.Name()))
			if ap, ok := cmd.Root(c).(cmd.AliasProvider); ok {
				for _, a := range ap.Aliases() {
					sb.WriteString(fmt.Sprintf(" (`/%s`)", a))
				}
			}
			sb.WriteString(fmt.Sprintf(" - %s\n", c.Description()))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
