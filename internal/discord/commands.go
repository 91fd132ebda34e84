package discord

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"everybot/internal/command"
	"everybot/pkg/cmd"
	"everybot/pkg/util"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

const (
	globalScope = "global"
	// registrationWorkers bounds how many guilds are synced at once.
	registrationWorkers = 4
)

// syncCommands registers slash commands globally, or per guild when guild
// IDs are configured.
func (b *Bot) syncCommands(ctx context.Context) {
	guilds := b.cfg.GuildIDs
	if len(guilds) == 0 {
		guilds = []string{""}
	}
	err := util.Parallel(ctx, guilds, registrationWorkers, func(ctx context.Context, guildID string) error {
		if err := b.registerCommandsFor(ctx, guildID); err != nil {
			b.log.Error().Err(err).Str("scope", scopeName(guildID)).Msg("Failed to register slash commands")
		}
		return nil
	})
	if err != nil {
		b.log.Error().Err(err).Msg("Command sync aborted")
	}
}

func scopeName(guildID string) string {
	if guildID == "" {
		return globalScope
	}
	return guildID
}

// registerCommandsFor syncs slash commands for a guild ("" for global) with
// Discord: deletes obsolete ones, creates/updates commands whose definition
// has changed.
func (b *Bot) registerCommandsFor(ctx context.Context, guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}
	scope := scopeName(guildID)

	remote, err := b.dg.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}
	remoteByName := make(map[string]*discordgo.ApplicationCommand, len(remote))
	for _, c := range remote {
		remoteByName[c.Name] = c
	}

	local := buildCommandDefinitions(b.registry)
	hashes, err := b.storage.CommandHashes(scope)
	if err != nil {
		b.log.Warn().Err(err).Str("scope", scope).Msg("Ignoring cached command hashes")
		hashes = make(map[string]string)
	}

	limiter := rate.NewLimiter(rate.Every(25*time.Millisecond), 1)

	localNames := make(map[string]struct{}, len(local))
	for _, d := range local {
		localNames[d.Name] = struct{}{}
	}
	for name, rc := range remoteByName {
		if _, keep := localNames[name]; keep {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		b.log.Info().Str("scope", scope).Str("command", name).Msg("Deleting obsolete command")
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			b.log.Error().Err(err).Str("scope", scope).Str("command", name).Msg("Failed to delete command")
			continue
		}
		delete(hashes, name)
	}

	for _, d := range changedCommands(local, remoteByName, hashes) {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, d); err != nil {
			b.log.Error().Err(err).Str("scope", scope).Str("command", d.Name).Msg("Failed to register command")
			continue
		}
		hashes[d.Name] = hashCommand(d)
		b.log.Info().Str("scope", scope).Str("command", d.Name).Msg("Registered command")
	}

	return b.storage.SetCommandHashes(scope, hashes)
}

// changedCommands returns the definitions that are missing remotely or whose
// hash differs from the cached one.
func changedCommands(local []*discordgo.ApplicationCommand, remote map[string]*discordgo.ApplicationCommand, hashes map[string]string) []*discordgo.ApplicationCommand {
	var changed []*discordgo.ApplicationCommand
	for _, d := range local {
		_, registered := remote[d.Name]
		if !registered || hashes[d.Name] != hashCommand(d) {
			changed = append(changed, d)
		}
	}
	return changed
}

// buildCommandDefinitions returns ApplicationCommand definitions for all
// registered commands. Discord has no aliases, so every alias becomes a copy
// of its command's definition under the alias name.
func buildCommandDefinitions(r *cmd.Registry) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range r.GetAll() {
		def := commandDefinition(c)
		if def == nil {
			continue
		}
		defs = append(defs, def)

		ap, ok := cmd.Root(c).(cmd.AliasProvider)
		if !ok {
			continue
		}
		for _, alias := range ap.Aliases() {
			dup := *def
			dup.Name = alias
			dup.Description = fmt.Sprintf("%s (/%s)", def.Description, def.Name)
			defs = append(defs, &dup)
		}
	}
	return defs
}

// commandDefinition extracts the ApplicationCommand definition from a registered command,
// walking through middleware wrappers via cmd.Root.
func commandDefinition(c cmd.Command) *discordgo.ApplicationCommand {
	slash, ok := cmd.Root(c).(command.SlashProvider)
	if !ok {
		return nil
	}
	def := slash.SlashDefinition()
	if def == nil {
		return nil
	}
	if def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	return def
}

// appID returns the bot's application ID, fetching from Discord if not cached in State.
func (b *Bot) appID() (string, error) {
	if b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return u.ID, nil
}

// --- Command hashing ---

// hashCommand returns a deterministic SHA-1 of a command's stable fields.
// Used to skip re-registration when nothing has changed.
func hashCommand(c *discordgo.ApplicationCommand) string {
	stable := map[string]any{
		"name":        c.Name,
		"description": c.Description,
		"type":        c.Type,
	}
	if len(c.Options) > 0 {
		stable["options"] = normalizeOptions(c.Options)
	}
	data, _ := json.Marshal(stable)
	return fmt.Sprintf("%x", sha1.Sum(data))
}

func normalizeOptions(opts []*discordgo.ApplicationCommandOption) []map[string]any {
	out := make([]map[string]any, len(opts))
	for i, o := range opts {
		entry := map[string]any{
			"name":        o.Name,
			"description": o.Description,
			"type":        o.Type,
			"required":    o.Required,
			"min":         o.MinValue,
			"max":         o.MaxValue,
		}
		if len(o.Choices) > 0 {
			choices := make([]map[string]any, len(o.Choices))
			for j, ch := range o.Choices {
				choices[j] = map[string]any{"name": ch.Name, "value": ch.Value}
			}
			entry["choices"] = choices
		}
		if len(o.Options) > 0 {
			entry["options"] = normalizeOptions(o.Options)
		}
		out[i] = entry
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["name"].(string) < out[j]["name"].(string)
	})
	return out
}
