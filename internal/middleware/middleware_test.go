package middleware

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"everybot/datastore"
	"everybot/internal/command"
	"everybot/internal/storage"
	"everybot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

type recordingCommand struct {
	runs int
	err  error
}

func (c *recordingCommand) Name() string        { return "play" }
func (c *recordingCommand) Description() string { return "play" }
func (c *recordingCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	c.runs++
	return c.err
}

func slashEvent(guildID string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   guildID,
		ChannelID: "c1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "ann"}},
		Data:      discordgo.ApplicationCommandInteractionData{Name: "p", Options: opts},
	}}
}

func newStorage(t *testing.T) *storage.Storage {
	t.Helper()
	cfg := datastore.DefaultConfig(filepath.Join(t.TempDir(), "mw.json"))
	cfg.AutoSaveInterval = 0
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	s := storage.NewWithStore(ds)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGuildOnlyPassesGuildInteractions(t *testing.T) {
	inner := &recordingCommand{}
	c := cmd.Apply(inner, WithGuildOnly())

	data := &command.SlashInteractionContext{Event: slashEvent("g1")}
	if err := c.Run(context.Background(), &cmd.Invocation{Data: data}); err != nil {
		t.Fatal(err)
	}
	if inner.runs != 1 {
		t.Fatalf("inner ran %d times, want 1", inner.runs)
	}
}

func TestGuildOnlyIgnoresOtherTransports(t *testing.T) {
	inner := &recordingCommand{}
	c := cmd.Apply(inner, WithGuildOnly())
	if err := c.Run(context.Background(), &cmd.Invocation{Data: "cli"}); err != nil {
		t.Fatal(err)
	}
	if inner.runs != 1 {
		t.Fatalf("inner ran %d times, want 1", inner.runs)
	}
}

func TestCommandLoggerRecordsInvocation(t *testing.T) {
	stor := newStorage(t)
	boom := errors.New("boom")
	inner := &recordingCommand{err: boom}
	c := cmd.Apply(inner, WithCommandLogger())

	data := &command.SlashInteractionContext{
		Event: slashEvent("g1", &discordgo.ApplicationCommandInteractionDataOption{
			Name: "query", Type: discordgo.ApplicationCommandOptionString, Value: "lofi",
		}),
		Storage: stor,
		Invoked: "p",
	}
	if err := c.Run(context.Background(), &cmd.Invocation{Data: data}); !errors.Is(err, boom) {
		t.Fatalf("Run() = %v, want the inner error", err)
	}

	got, err := stor.GetCommandsHistory("g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("history len = %d, want 1", len(got))
	}
	if got[0].Command != "p" || got[0].Param != "query=lofi" || got[0].Username != "ann" {
		t.Errorf("recorded %+v", got[0])
	}
}

func TestOptionsParam(t *testing.T) {
	tests := []struct {
		name string
		opts []*discordgo.ApplicationCommandInteractionDataOption
		want string
	}{
		{"none", nil, ""},
		{"one", []*discordgo.ApplicationCommandInteractionDataOption{{Name: "level", Value: float64(40)}}, "level=40"},
		{"two", []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "mode", Value: "song"},
			{Name: "page", Value: float64(2)},
		}, "mode=song page=2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := optionsParam(tt.opts); got != tt.want {
				t.Errorf("optionsParam() = %q, want %q", got, tt.want)
			}
		})
	}
}
