// Package music holds the slash commands and buttons that drive per-guild
// playback.
package music

import (
	"everybot/internal/bot"
	"everybot/internal/command"
	"everybot/internal/logging"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const (
	group    = "music"
	category = "🎵 Music"
)

var log = logging.For("music")

// musicCommand carries what every music command shares.
type musicCommand struct {
	Bot bot.BotVoice
}

func (musicCommand) Group() string    { return group }
func (musicCommand) Category() string { return category }

// Commands returns every music command bound to b.
func Commands(b bot.BotVoice) []command.DiscordCommand {
	base := musicCommand{Bot: b}
	return []command.DiscordCommand{
		&PlayCommand{base},
		&SkipCommand{base},
		&StopCommand{base},
		&PauseCommand{base},
		&ResumeCommand{base},
		&QueueCommand{base},
		&NowPlayingCommand{base},
		&RemoveCommand{base},
		&ShuffleCommand{base},
		&LoopCommand{base},
		&VolumeCommand{base},
		&HistoryCommand{base},
		&ControlsCommand{base},
	}
}

func slashContext(data any) (*command.SlashInteractionContext, bool) {
	sc, ok := data.(*command.SlashInteractionContext)
	return sc, ok && sc.Event != nil
}

func interactionUser(e *discordgo.InteractionCreate) *discordgo.User {
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User
	}
	if e.User != nil {
		return e.User
	}
	return &discordgo.User{ID: "unknown", Username: "Unknown"}
}

// displayName prefers the guild nickname over the global name.
func displayName(e *discordgo.InteractionCreate) string {
	if e.Member != nil && e.Member.Nick != "" {
		return e.Member.Nick
	}
	u := interactionUser(e)
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func option(e *discordgo.InteractionCreate, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, o := range e.ApplicationCommandData().Options {
		if o.Name == name {
			return o
		}
	}
	return nil
}

func stringOption(e *discordgo.InteractionCreate, name string) string {
	if o := option(e, name); o != nil {
		return o.StringValue()
	}
	return ""
}

func intOption(e *discordgo.InteractionCreate, name string, fallback int64) int64 {
	if o := option(e, name); o != nil {
		return o.IntValue()
	}
	return fallback
}

func guildLog(e *discordgo.InteractionCreate) zerolog.Logger {
	return log.With().Str("guild", e.GuildID).Logger()
}

func floatPtr(v float64) *float64 { return &v }
