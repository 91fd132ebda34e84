package discord

import (
	"context"
	"fmt"
	"strings"

	"everybot/internal/bot"
	"everybot/internal/command"
	"everybot/internal/command/core"
	"everybot/internal/command/music"
	"everybot/internal/config"
	"everybot/internal/logging"
	"everybot/internal/middleware"
	"everybot/internal/music/inactivity"
	"everybot/internal/music/player"
	"everybot/internal/music/queue"
	"everybot/internal/music/source_resolver"
	"everybot/internal/music/stream"
	"everybot/internal/storage"
	"everybot/pkg/cmd"
	"everybot/pkg/jobmgr"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Bot is a Discord bot
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	storage  *storage.Storage
	registry *cmd.Registry
	resolver *source_resolver.SourceResolver
	voice    *stream.Voice
	player   *player.Player
	monitor  *inactivity.Monitor
	log      zerolog.Logger

	// ctx is the Run context handed to commands.
	ctx context.Context
}

// NewBot creates the session and wires the music stack. Nothing connects
// until Run.
func NewBot(cfg *config.Config, stor *storage.Storage, resolver *source_resolver.SourceResolver, jobs *jobmgr.Manager) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	b := &Bot{
		dg:       dg,
		cfg:      cfg,
		storage:  stor,
		registry: cmd.DefaultRegistry,
		resolver: resolver,
		voice:    stream.NewVoice(dg),
		log:      logging.For("discord"),
		ctx:      context.Background(),
	}
	b.player = player.New(queue.NewStore(), resolver, b.voice, jobs, player.WithHistory(stor))
	b.monitor = inactivity.New(b, b.player, cfg.IdleTimeout)

	b.registerCommands()
	return b, nil
}

func (b *Bot) registerCommands() {
	mws := []cmd.Middleware{middleware.WithGuildOnly(), middleware.WithCommandLogger()}
	for _, c := range music.Commands(b) {
		command.RegisterCommandIn(b.registry, c, mws...)
	}
	command.RegisterCommandIn(b.registry, &core.HelpCommand{Registry: b.registry}, middleware.WithCommandLogger())
}

// Run opens the gateway connection and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx

	b.configureIntents()
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onInteractionCreate)
	b.dg.AddHandler(b.onVoiceStateUpdate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("Shutdown signal received. Cleaning up...")
	b.shutdown()
	return nil
}

// shutdown stops pending inactivity checks and leaves every voice channel.
func (b *Bot) shutdown() {
	b.monitor.Close()
	for _, guildID := range b.player.Queue().Guilds() {
		if err := b.player.Disconnect(context.Background(), guildID); err != nil {
			b.log.Warn().Err(err).Str("guild", guildID).Msg("Failed to leave voice channel")
		}
	}
}

// configureIntents configures the Discord intents. Voice states are needed
// for the user-in-channel checks and for inactivity tracking.
func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
}

// onReady is called when the bot is ready
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("Discord bot is running")
	go b.syncCommands(b.ctx)
}

// onGuildCreate is called when the bot joins a guild or it becomes available.
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.Debug().Str("guild", g.ID).Str("name", g.Name).Msg("Guild available")
}

// onInteractionCreate is called when an interaction is created
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		c := b.registry.Get(name)
		if c == nil {
			b.log.Warn().Str("command", name).Msg("Unknown command")
			return
		}
		data := &command.SlashInteractionContext{Session: s, Event: i, Storage: b.storage, Invoked: name}
		if err := c.Run(b.ctx, &cmd.Invocation{Name: name, Data: data}); err != nil {
			b.log.Error().Err(err).Str("command", name).Msg("Error running slash command")
			_ = bot.RespondEmbedEphemeral(s, i, bot.ErrorEmbed(fmt.Sprintf("Error running command: %v", err)))
		}

	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		c := b.componentCommand(customID)
		if c == nil {
			b.log.Warn().Str("custom_id", customID).Msg("No matching component handler")
			return
		}
		data := &command.ComponentInteractionContext{Session: s, Event: i, Storage: b.storage}
		if err := c.Run(b.ctx, &cmd.Invocation{Name: c.Name(), Data: data}); err != nil {
			b.log.Error().Err(err).Str("custom_id", customID).Msg("Error running component")
			_ = bot.RespondEmbedEphemeral(s, i, bot.ErrorEmbed(fmt.Sprintf("Error running component: %v", err)))
		}

	default:
		b.log.Debug().Int("type", int(i.Type)).Msg("Unhandled interaction type")
	}
}

// componentCommand finds the registered command that owns customID.
func (b *Bot) componentCommand(customID string) cmd.Command {
	for _, c := range b.registry.GetAll() {
		h, ok := cmd.Root(c).(interface{ HandlesComponents() bool })
		if ok && h.HandlesComponents() && ownsComponent(c.Name(), customID) {
			return c
		}
	}
	return nil
}

// ownsComponent reports whether customID is addressed to the command name,
// as in "music_skip" or "music:skip".
func ownsComponent(name, customID string) bool {
	return strings.HasPrefix(customID, name+"_") || strings.HasPrefix(customID, name+":")
}

// onVoiceStateUpdate keeps the inactivity monitor informed and notices when
// the bot itself was removed from its channel.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.GuildID == "" {
		return
	}
	if s.State.User != nil && v.UserID == s.State.User.ID && v.ChannelID == "" {
		b.log.Info().Str("guild", v.GuildID).Msg("Disconnected from voice, stopping playback")
		b.player.Stop(v.GuildID)
		return
	}
	if !b.voice.Connected(v.GuildID) {
		return
	}
	b.monitor.Notify(v.GuildID, b.Alone(v.GuildID))
}
