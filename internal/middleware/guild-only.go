package middleware

import (
	"context"

	"everybot/internal/bot"
	"everybot/internal/command"
	"everybot/internal/storage"
	"everybot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

const guildOnlyMessage = "This command can only be used in a server."

// WithGuildOnly wraps a command to enforce guild-only access
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			var (
				s *discordgo.Session
				e *discordgo.InteractionCreate
			)
			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				s, e = v.Session, v.Event
			case *command.ComponentInteractionContext:
				s, e = v.Session, v.Event
			default:
				return c.Run(ctx, inv)
			}
			if e.GuildID == "" {
				return bot.RespondEmbedEphemeral(s, e, bot.ErrorEmbed(guildOnlyMessage))
			}
			return c.Run(ctx, inv)
		})
	}
}

func storageOf(data any) *storage.Storage {
	switch v := data.(type) {
	case *command.SlashInteractionContext:
		return v.Storage
	case *command.ComponentInteractionContext:
		return v.Storage
	}
	return nil
}
