package queue

import (
	"fmt"
	"slices"
	"sync"
	"testing"
)

const guild = "guild-a"

func songs(titles ...string) []Song {
	out := make([]Song, len(titles))
	for i, t := range titles {
		out[i] = NewSong(t, "https://example.com/"+t, "3:00", "tester")
	}
	return out
}

func titles(list []Song) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Title
	}
	return out
}

type fakeHandle struct {
	mu      sync.Mutex
	volumes []float64
	stopped bool
}

func (h *fakeHandle) SetVolume(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.volumes = append(h.volumes, v)
}
func (h *fakeHandle) Pause() error  { return nil }
func (h *fakeHandle) Resume() error { return nil }
func (h *fakeHandle) Stop()         { h.stopped = true }
func (h *fakeHandle) Paused() bool  { return false }
func (h *fakeHandle) Playing() bool { return !h.stopped }

func (h *fakeHandle) lastVolume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.volumes) == 0 {
		return -1
	}
	return h.volumes[len(h.volumes)-1]
}

func TestAdvanceIsFIFO(t *testing.T) {
	s := NewStore()
	list := songs("s1", "s2", "s3", "s4")
	for i, song := range list {
		if n := s.AddSong(guild, song); n != i+1 {
			t.Fatalf("AddSong returned %d, want %d", n, i+1)
		}
	}

	for _, want := range list {
		got, ok := s.Advance(guild, true)
		if !ok || got.ID != want.ID {
			t.Fatalf("Advance = %q/%v, want %q", got.Title, ok, want.Title)
		}
	}
	if got, ok := s.Advance(guild, true); ok {
		t.Fatalf("Advance on drained queue returned %q", got.Title)
	}
	if _, ok := s.Current(guild); ok {
		t.Fatal("current should be cleared after the queue drains")
	}
}

func TestSongLoopReplaysUntilSkipped(t *testing.T) {
	s := NewStore()
	list := songs("x", "y")
	for _, song := range list {
		s.AddSong(guild, song)
	}
	s.Advance(guild, false)
	s.SetLoopMode(guild, LoopSong)

	for i := 0; i < 5; i++ {
		got, ok := s.Advance(guild, false)
		if !ok || got.ID != list[0].ID {
			t.Fatalf("replay %d returned %q/%v, want x", i, got.Title, ok)
		}
		if p := titles(s.Pending(guild)); !slices.Equal(p, []string{"y"}) {
			t.Fatalf("pending changed during replay: %v", p)
		}
	}

	got, ok := s.Advance(guild, true)
	if !ok || got.ID != list[1].ID {
		t.Fatalf("skip returned %q/%v, want y", got.Title, ok)
	}
	if _, ok := s.Advance(guild, true); ok {
		t.Fatal("skip past the last song should go idle")
	}
}

func TestSongLoopWithNothingPlayingTakesNext(t *testing.T) {
	s := NewStore()
	s.SetLoopMode(guild, LoopSong)
	list := songs("first")
	s.AddSong(guild, list[0])

	got, ok := s.Advance(guild, false)
	if !ok || got.ID != list[0].ID {
		t.Fatalf("Advance = %q/%v, want first", got.Title, ok)
	}
}

func TestQueueLoopConservesSongs(t *testing.T) {
	s := NewStore()
	list := songs("A", "B", "C")
	for _, song := range list {
		s.AddSong(guild, song)
	}
	s.Advance(guild, false) // current = A
	s.SetLoopMode(guild, LoopQueue)

	steps := []struct {
		want    string
		pending []string
	}{
		{"B", []string{"C", "A"}},
		{"C", []string{"A", "B"}},
		{"A", []string{"B", "C"}},
		{"B", []string{"C", "A"}},
	}
	for _, step := range steps {
		got, ok := s.Advance(guild, false)
		if !ok || got.Title != step.want {
			t.Fatalf("Advance = %q/%v, want %q", got.Title, ok, step.want)
		}
		if p := titles(s.Pending(guild)); !slices.Equal(p, step.pending) {
			t.Fatalf("after %q pending = %v, want %v", step.want, p, step.pending)
		}
	}
}

func TestQueueLoopSingleSongRepeats(t *testing.T) {
	s := NewStore()
	list := songs("solo")
	s.AddSong(guild, list[0])
	s.SetLoopMode(guild, LoopQueue)
	s.Advance(guild, false)

	for i := 0; i < 3; i++ {
		got, ok := s.Advance(guild, true)
		if !ok || got.ID != list[0].ID {
			t.Fatalf("Advance = %q/%v, want solo", got.Title, ok)
		}
	}
}

func TestRemoveAtOutOfRange(t *testing.T) {
	s := NewStore()
	list := songs("a", "b", "c")
	for _, song := range list {
		s.AddSong(guild, song)
	}
	before := s.Pending(guild)

	for _, pos := range []int{-1, 0, len(list) + 1, 100} {
		t.Run(fmt.Sprint(pos), func(t *testing.T) {
			if got, ok := s.RemoveAt(guild, pos); ok {
				t.Fatalf("RemoveAt(%d) removed %q", pos, got.Title)
			}
			if after := s.Pending(guild); !slices.Equal(after, before) {
				t.Fatalf("pending changed: %v -> %v", titles(before), titles(after))
			}
		})
	}
}

func TestRemoveAtLeavesCurrent(t *testing.T) {
	s := NewStore()
	list := songs("now", "a", "b", "c")
	for _, song := range list {
		s.AddSong(guild, song)
	}
	s.Advance(guild, false)

	got, ok := s.RemoveAt(guild, 2)
	if !ok || got.Title != "b" {
		t.Fatalf("RemoveAt(2) = %q/%v, want b", got.Title, ok)
	}
	if p := titles(s.Pending(guild)); !slices.Equal(p, []string{"a", "c"}) {
		t.Fatalf("pending = %v", p)
	}
	if cur, _ := s.Current(guild); cur.Title != "now" {
		t.Fatalf("current = %q, want now", cur.Title)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	s := NewStore()
	list := songs("now", "a", "b", "c", "d", "e", "f", "g")
	for _, song := range list {
		s.AddSong(guild, song)
	}
	s.Advance(guild, false)
	before := s.Pending(guild)

	if n := s.Shuffle(guild); n != len(before) {
		t.Fatalf("Shuffle = %d, want %d", n, len(before))
	}

	ids := func(list []Song) []string {
		out := make([]string, len(list))
		for i, s := range list {
			out[i] = s.ID
		}
		slices.Sort(out)
		return out
	}
	if !slices.Equal(ids(before), ids(s.Pending(guild))) {
		t.Fatal("shuffle changed the set of pending songs")
	}
	if cur, _ := s.Current(guild); cur.ID != list[0].ID {
		t.Fatal("shuffle touched the current song")
	}
	if n := NewStore().Shuffle(guild); n != 0 {
		t.Fatalf("Shuffle on empty guild = %d", n)
	}
}

func TestIdleTransition(t *testing.T) {
	s := NewStore()
	if !s.IsEmpty(guild) {
		t.Fatal("new guild should be empty")
	}
	if _, ok := s.Advance(guild, false); ok {
		t.Fatal("Advance on empty guild returned a song")
	}
	if _, ok := s.Current(guild); ok {
		t.Fatal("current should stay empty")
	}
	if !s.IsEmpty(guild) {
		t.Fatal("guild should still be empty")
	}
}

func TestReadsDoNotMaterialize(t *testing.T) {
	s := NewStore()
	if v := s.Volume(guild); v != DefaultVolume {
		t.Fatalf("Volume = %v, want %v", v, DefaultVolume)
	}
	if m := s.LoopMode(guild); m != LoopOff {
		t.Fatalf("LoopMode = %v", m)
	}
	s.Snapshot(guild)
	s.Pending(guild)
	s.Clear(guild)
	s.RemoveAt(guild, 1)
	if g := s.Guilds(); len(g) != 0 {
		t.Fatalf("reads created entries: %v", g)
	}
}

func TestClearDropsHandle(t *testing.T) {
	s := NewStore()
	list := songs("a", "b")
	for _, song := range list {
		s.AddSong(guild, song)
	}
	cur, _ := s.Advance(guild, false)
	h := &fakeHandle{}
	if _, ok := s.SwapHandle(guild, cur.ID, h); !ok {
		t.Fatal("SwapHandle rejected the current song")
	}

	if dropped := s.Clear(guild); dropped != h {
		t.Fatal("Clear did not return the live handle")
	}
	if h.stopped {
		t.Fatal("Clear must not stop the handle itself")
	}
	snap := s.Snapshot(guild)
	if snap.Current != nil || len(snap.Pending) != 0 || snap.Active {
		t.Fatalf("guild not cleared: %+v", snap)
	}
	if g := s.Guilds(); len(g) != 1 {
		t.Fatal("Clear should keep the guild entry")
	}
}

func TestSwapHandleRejectsStaleSong(t *testing.T) {
	s := NewStore()
	list := songs("a", "b")
	for _, song := range list {
		s.AddSong(guild, song)
	}
	first, _ := s.Advance(guild, false)
	s.Advance(guild, true)

	if _, ok := s.SwapHandle(guild, first.ID, &fakeHandle{}); ok {
		t.Fatal("handle for a superseded song was stored")
	}
	if s.Handle(guild) != nil {
		t.Fatal("store holds a handle after a rejected swap")
	}
}

func TestSetVolumeRetunesLiveHandle(t *testing.T) {
	s := NewStore()
	list := songs("a")
	s.AddSong(guild, list[0])
	cur, _ := s.Advance(guild, false)
	h := &fakeHandle{}
	s.SwapHandle(guild, cur.ID, h)

	if got := h.lastVolume(); got != DefaultVolume {
		t.Fatalf("swap applied volume %v, want %v", got, DefaultVolume)
	}

	tests := []struct {
		in, want float64
	}{
		{0.8, 0.8},
		{1.7, 1},
		{-0.2, 0},
	}
	for _, tt := range tests {
		if got := s.SetVolume(guild, tt.in); got != tt.want {
			t.Fatalf("SetVolume(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if got := h.lastVolume(); got != tt.want {
			t.Fatalf("handle volume = %v, want %v", got, tt.want)
		}
	}
}

func TestGuildIsolation(t *testing.T) {
	s := NewStore()
	a := songs("a1", "a2", "a3")
	b := songs("b1", "b2")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, song := range a {
			s.AddSong("A", song)
		}
		s.Advance("A", false)
		s.SetLoopMode("A", LoopQueue)
		s.SetVolume("A", 0.9)
	}()
	go func() {
		defer wg.Done()
		for _, song := range b {
			s.AddSong("B", song)
		}
		s.RemoveAt("B", 1)
		s.SetVolume("B", 0.1)
	}()
	wg.Wait()

	sa := s.Snapshot("A")
	if sa.Current == nil || sa.Current.Title != "a1" || !slices.Equal(titles(sa.Pending), []string{"a2", "a3"}) {
		t.Fatalf("guild A state = %+v", sa)
	}
	if sa.LoopMode != LoopQueue || sa.Volume != 0.9 {
		t.Fatalf("guild A settings = %v/%v", sa.LoopMode, sa.Volume)
	}

	sb := s.Snapshot("B")
	if sb.Current != nil || !slices.Equal(titles(sb.Pending), []string{"b2"}) {
		t.Fatalf("guild B state = %+v", sb)
	}
	if sb.LoopMode != LoopOff || sb.Volume != 0.1 {
		t.Fatalf("guild B settings = %v/%v", sb.LoopMode, sb.Volume)
	}
}

func TestEnqueueReportsIdleOnce(t *testing.T) {
	s := NewStore()
	const callers = 32

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		idles int
	)
	for _, song := range songs(make([]string, callers)...) {
		wg.Add(1)
		go func(song Song) {
			defer wg.Done()
			if _, idle := s.Enqueue(guild, song); idle {
				mu.Lock()
				idles++
				mu.Unlock()
			}
		}(song)
	}
	wg.Wait()

	if idles != 1 {
		t.Fatalf("%d callers saw an idle guild, want 1", idles)
	}
	if n := len(s.Pending(guild)); n != callers {
		t.Fatalf("pending = %d, want %d", n, callers)
	}
}

func TestConcurrentAdvanceNeverLosesSongs(t *testing.T) {
	s := NewStore()
	list := songs("s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9")
	for _, song := range list {
		s.AddSong(guild, song)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]int{}
	)
	for i := 0; i < len(list)+5; i++ {
		wg.Add(1)
		go func(skip bool) {
			defer wg.Done()
			if got, ok := s.Advance(guild, skip); ok {
				mu.Lock()
				seen[got.ID]++
				mu.Unlock()
			}
		}(i%2 == 0)
	}
	wg.Wait()

	for _, song := range list {
		if seen[song.ID] != 1 {
			t.Fatalf("song %q returned %d times", song.Title, seen[song.ID])
		}
	}
}

func TestParseLoopMode(t *testing.T) {
	tests := []struct {
		in      string
		want    LoopMode
		wantErr bool
	}{
		{"off", LoopOff, false},
		{"Song", LoopSong, false},
		{" queue ", LoopQueue, false},
		{"track", LoopSong, false},
		{"all", LoopQueue, false},
		{"sometimes", LoopOff, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLoopMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLoopMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseLoopMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
