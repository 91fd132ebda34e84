package command

import (
	"context"

	"everybot/internal/storage"
	"everybot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// Discord-specific contexts (what the runtime passes when executing).

type SlashInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
	// Invoked is the name the user typed, which may be an alias.
	Invoked string
}

type ComponentInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
}

// Providers describe how a command is registered with Discord.

type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// ComponentInteractionHandler handles buttons whose custom ID starts with
// the command name followed by "_" or ":".
type ComponentInteractionHandler interface {
	Component(ctx context.Context, c *ComponentInteractionContext) error
}

// DiscordMeta is exposed by the Discord adapter so middleware and help can
// read Group/Category without depending on the concrete command type.
type DiscordMeta interface {
	Group() string
	Category() string
}

// DiscordCommand is what individual Discord commands implement. data is one
// of the *Context types above.
type DiscordCommand interface {
	Name() string
	Description() string
	Group() string
	Category() string
	Run(ctx context.Context, data any) error
}

// DiscordAdapter adapts a DiscordCommand to cmd.Command so it can live in the
// universal registry. Optional interfaces of the inner command are surfaced
// through delegating methods.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string        { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string { return a.Cmd.Description() }
func (a *DiscordAdapter) Group() string       { return a.Cmd.Group() }
func (a *DiscordAdapter) Category() string    { return a.Cmd.Category() }

// Run routes component interactions to Component, so middleware applied to
// the command also guards its buttons.
func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	if c, ok := inv.Data.(*ComponentInteractionContext); ok {
		return a.Component(ctx, c)
	}
	return a.Cmd.Run(ctx, inv.Data)
}

func (a *DiscordAdapter) Aliases() []string {
	if ap, ok := a.Cmd.(cmd.AliasProvider); ok {
		return ap.Aliases()
	}
	return nil
}

func (a *DiscordAdapter) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := a.Cmd.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

// HandlesComponents reports whether the inner command accepts component
// interactions.
func (a *DiscordAdapter) HandlesComponents() bool {
	_, ok := a.Cmd.(ComponentInteractionHandler)
	return ok
}

func (a *DiscordAdapter) Component(ctx context.Context, c *ComponentInteractionContext) error {
	if ch, ok := a.Cmd.(ComponentInteractionHandler); ok {
		return ch.Component(ctx, c)
	}
	return nil
}

// RegisterCommand registers a Discord command with the universal registry and applies middlewares.
func RegisterCommand(discordCmd DiscordCommand, mws ...cmd.Middleware) {
	RegisterCommandIn(cmd.DefaultRegistry, discordCmd, mws...)
}

// RegisterCommandIn is RegisterCommand for an explicit registry.
func RegisterCommandIn(r *cmd.Registry, discordCmd DiscordCommand, mws ...cmd.Middleware) {
	c := cmd.Apply(&DiscordAdapter{Cmd: discordCmd}, mws...)
	r.Register(c)
}
