package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if _, err := Setup(Options{Level: "chatty"}); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "everybot.log")
	closer, err := Setup(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	l := For("player")
	l.Info().Str("guild", "g1").Msg("now playing")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{`"component":"player"`, `"guild":"g1"`, `"message":"now playing"`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("log file missing %s: %s", want, data)
		}
	}
}
