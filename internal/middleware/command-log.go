package middleware

import (
	"context"
	"fmt"
	"strings"

	"everybot/internal/bot"
	"everybot/internal/command"
	"everybot/internal/logging"
	"everybot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// WithCommandLogger wraps a command to log its execution and record it in
// the guild's command history.
func WithCommandLogger() cmd.Middleware {
	log := logging.For("commands")
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)

			var (
				s     *discordgo.Session
				e     *discordgo.InteractionCreate
				name  = c.Name()
				param string
				stor  = storageOf(inv.Data)
			)
			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				s, e = v.Session, v.Event
				if v.Invoked != "" {
					name = v.Invoked
				}
				param = optionsParam(e.ApplicationCommandData().Options)
			case *command.ComponentInteractionContext:
				s, e = v.Session, v.Event
				param = e.MessageComponentData().CustomID
			default:
				return err
			}

			user := resolveUser(s, e)
			ev := log.Info()
			if err != nil {
				ev = log.Warn().Err(err)
			}
			ev.Str("guild", e.GuildID).Str("user", user.Username).Str("command", name).Str("param", param).Msg("Command executed")

			if logErr := bot.LogCommand(s, stor, e.GuildID, e.ChannelID, user.ID, user.Username, name, param); logErr != nil {
				log.Warn().Err(logErr).Str("command", name).Msg("Failed to record command")
			}
			return err
		})
	}
}

// optionsParam flattens slash options into "name=value" pairs.
func optionsParam(opts []*discordgo.ApplicationCommandInteractionDataOption) string {
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		parts = append(parts, fmt.Sprintf("%s=%v", o.Name, o.Value))
	}
	return strings.Join(parts, " ")
}

// resolveUser safely retrieves the user object from an InteractionCreate event
func resolveUser(s *discordgo.Session, e *discordgo.InteractionCreate) *discordgo.User {
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User
	}
	if e.User != nil {
		return e.User
	}
	return &discordgo.User{ID: "unknown", Username: "Unknown"}
}
