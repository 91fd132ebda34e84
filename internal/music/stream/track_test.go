package stream

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// pcmFrames returns n frames where every sample is value.
func pcmFrames(n int, value int16) []byte {
	buf := make([]byte, n*frameBytes)
	for i := 0; i < len(buf); i += 2 {
		binary.LittleEndian.PutUint16(buf[i:], uint16(value))
	}
	return buf
}

type closeTracker struct {
	io.Reader
	closed atomic.Bool
}

func (c *closeTracker) Close() error {
	c.closed.Store(true)
	return nil
}

type sink struct {
	mu     sync.Mutex
	frames [][]int16
	block  bool
}

func (s *sink) send(pcm []int16, stop <-chan struct{}) bool {
	if s.block {
		<-stop
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, append([]int16(nil), pcm...))
	return true
}

func waitDone(t *testing.T, tr *Track) {
	t.Helper()
	select {
	case <-tr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("track did not finish")
	}
}

func TestTrackPlaysToEnd(t *testing.T) {
	src := &closeTracker{Reader: bytes.NewReader(pcmFrames(3, 1000))}
	s := &sink{}
	var ended atomic.Int32

	tr := newTrack(1)
	tr.run(src, s.send, func() { ended.Add(1) })

	if len(s.frames) != 3 {
		t.Errorf("sent %d frames, want 3", len(s.frames))
	}
	if got := ended.Load(); got != 1 {
		t.Errorf("onEnd called %d times, want 1", got)
	}
	if !src.closed.Load() {
		t.Error("source not closed")
	}
	if tr.Playing() {
		t.Error("finished track reports playing")
	}
	if err := tr.Pause(); err != ErrTrackFinished {
		t.Errorf("Pause after end = %v, want ErrTrackFinished", err)
	}
}

func TestTrackPadsShortFrame(t *testing.T) {
	data := pcmFrames(2, 500)
	data = data[:frameBytes+100]
	s := &sink{}

	newTrack(1).run(io.NopCloser(bytes.NewReader(data)), s.send, nil)

	if len(s.frames) != 2 {
		t.Fatalf("sent %d frames, want 2", len(s.frames))
	}
	last := s.frames[1]
	if last[0] != 500 || last[len(last)-1] != 0 {
		t.Errorf("short frame not padded with silence: first=%d last=%d", last[0], last[len(last)-1])
	}
}

func TestTrackStopSkipsOnEnd(t *testing.T) {
	src := &closeTracker{Reader: bytes.NewReader(pcmFrames(10, 1))}
	s := &sink{block: true}
	var ended atomic.Int32

	tr := newTrack(1)
	go tr.run(src, s.send, func() { ended.Add(1) })
	tr.Stop()
	tr.Stop()
	waitDone(t, tr)

	if got := ended.Load(); got != 0 {
		t.Errorf("onEnd called %d times after Stop", got)
	}
	if !src.closed.Load() {
		t.Error("source not closed after Stop")
	}
}

func TestTrackPauseResume(t *testing.T) {
	s := &sink{}
	tr := newTrack(1)
	if err := tr.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if !tr.Paused() || tr.Playing() {
		t.Fatal("track not paused")
	}

	done := make(chan struct{})
	go func() {
		tr.run(io.NopCloser(bytes.NewReader(pcmFrames(2, 1))), s.send, nil)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	s.mu.Lock()
	sent := len(s.frames)
	s.mu.Unlock()
	if sent != 0 {
		t.Fatalf("paused track sent %d frames", sent)
	}

	if err := tr.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	<-done
	if len(s.frames) != 2 {
		t.Errorf("sent %d frames after resume, want 2", len(s.frames))
	}
}

func TestTrackStopWhilePaused(t *testing.T) {
	var ended atomic.Int32
	tr := newTrack(1)
	tr.Pause()
	go tr.run(io.NopCloser(bytes.NewReader(pcmFrames(2, 1))), (&sink{}).send, func() { ended.Add(1) })

	tr.Stop()
	waitDone(t, tr)
	if ended.Load() != 0 {
		t.Error("onEnd called for a stopped track")
	}
}

func TestTrackVolumeAppliesToFrames(t *testing.T) {
	s := &sink{}
	tr := newTrack(0.5)
	tr.run(io.NopCloser(bytes.NewReader(pcmFrames(1, 1000))), s.send, nil)

	if got := s.frames[0][0]; got != 500 {
		t.Errorf("sample = %d, want 500", got)
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		name   string
		volume float64
		in     int16
		want   int16
	}{
		{"full", 1, 1000, 1000},
		{"above full", 1.5, 1000, 1000},
		{"half", 0.5, -1000, -500},
		{"mute", 0, 1000, 0},
		{"negative", -1, 1000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := []int16{tt.in}
			scale(samples, tt.volume)
			if samples[0] != tt.want {
				t.Errorf("scale(%d, %v) = %d, want %d", tt.in, tt.volume, samples[0], tt.want)
			}
		})
	}
}

func TestFFmpegArgs(t *testing.T) {
	args := ffmpegArgs("https://cdn.example.com/a.webm")
	if args[0] != "-reconnect" {
		t.Errorf("missing reconnect options: %v", args)
	}
	if args[len(args)-1] != "pipe:1" {
		t.Errorf("output is not stdout: %v", args)
	}
}
