package storage

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"everybot/datastore"
	"everybot/internal/music/queue"
	st "everybot/internal/storagetypes"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	cfg := datastore.DefaultConfig(filepath.Join(t.TempDir(), "store.json"))
	cfg.AutoSaveInterval = 0
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	s := NewWithStore(ds)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCommandHistoryIsBounded(t *testing.T) {
	s := newTestStorage(t)
	for i := 0; i < commandHistoryLimit+5; i++ {
		if err := s.AppendCommandToHistory("g", st.CommandHistory{Command: fmt.Sprintf("cmd%d", i)}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetCommandsHistory("g")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != commandHistoryLimit {
		t.Fatalf("len = %d, want %d", len(got), commandHistoryLimit)
	}
	if got[0].Command != "cmd5" || got[len(got)-1].Command != fmt.Sprintf("cmd%d", commandHistoryLimit+4) {
		t.Errorf("kept %q..%q, want the newest entries", got[0].Command, got[len(got)-1].Command)
	}
}

func TestRecordTrack(t *testing.T) {
	s := newTestStorage(t)
	for i := 0; i < tracksHistoryLimit+3; i++ {
		song := queue.NewSong(fmt.Sprintf("song%d", i), "https://example.com", "3:00", "alice")
		if err := s.RecordTrack("g", song); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetTracksHistory("g")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != tracksHistoryLimit {
		t.Fatalf("len = %d, want %d", len(got), tracksHistoryLimit)
	}
	last := got[len(got)-1]
	if last.Title != fmt.Sprintf("song%d", tracksHistoryLimit+2) || last.Requester != "alice" || last.PlayedAt.IsZero() {
		t.Errorf("last entry = %+v", last)
	}
}

func TestHistoryIsPerGuild(t *testing.T) {
	s := newTestStorage(t)
	s.RecordTrack("a", queue.NewSong("only-a", "u", "", ""))

	got, err := s.GetTracksHistory("b")
	if err != nil || len(got) != 0 {
		t.Errorf("guild b history = %v, %v", got, err)
	}
}

func TestConcurrentUpdatesAreNotLost(t *testing.T) {
	s := newTestStorage(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.RecordTrack("g", queue.NewSong(fmt.Sprint(i), "u", "", ""))
		}(i)
	}
	wg.Wait()

	got, _ := s.GetTracksHistory("g")
	if len(got) != 10 {
		t.Errorf("len = %d, want 10", len(got))
	}
}

func TestCommandHashesRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	empty, err := s.CommandHashes("global")
	if err != nil || len(empty) != 0 {
		t.Fatalf("fresh hashes = %v, %v", empty, err)
	}

	want := map[string]string{"play": "abc", "p": "abc"}
	if err := s.SetCommandHashes("global", want); err != nil {
		t.Fatal(err)
	}
	got, err := s.CommandHashes("global")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got["play"] != "abc" || got["p"] != "abc" {
		t.Errorf("hashes = %v, want %v", got, want)
	}

	// Hash keys never show up as guild records.
	if h, _ := s.GetCommandsHistory("global"); len(h) != 0 {
		t.Errorf("history for scope = %v", h)
	}
}
