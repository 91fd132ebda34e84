package stream

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
)

var ErrTrackFinished = errors.New("track has finished")

// SendFunc delivers one frame of PCM. It should give up and return false
// once stop is closed.
type SendFunc func(pcm []int16, stop <-chan struct{}) bool

// Track is the handle of one stream being played.
type Track struct {
	volume atomic.Uint64

	mu       sync.Mutex
	paused   bool
	resume   chan struct{}
	finished bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newTrack(volume float64) *Track {
	t := &Track{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	t.SetVolume(volume)
	return t
}

func (t *Track) SetVolume(v float64) {
	t.volume.Store(math.Float64bits(v))
}

func (t *Track) Volume() float64 {
	return math.Float64frombits(t.volume.Load())
}

func (t *Track) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return ErrTrackFinished
	}
	if !t.paused {
		t.paused = true
		t.resume = make(chan struct{})
	}
	return nil
}

func (t *Track) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return ErrTrackFinished
	}
	if t.paused {
		t.paused = false
		close(t.resume)
		t.resume = nil
	}
	return nil
}

// Stop ends the track without reporting a natural end. It does not wait for
// the stream to be released; use Done for that.
func (t *Track) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

func (t *Track) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

func (t *Track) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.finished && !t.paused
}

// Done is closed once the stream has been released.
func (t *Track) Done() <-chan struct{} {
	return t.done
}

func (t *Track) stopped() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}

// waitResumed blocks while the track is paused. It reports false if the
// track was stopped meanwhile.
func (t *Track) waitResumed() bool {
	t.mu.Lock()
	resume := t.resume
	t.mu.Unlock()
	if resume == nil {
		return !t.stopped()
	}
	select {
	case <-resume:
		return !t.stopped()
	case <-t.stop:
		return false
	}
}

// run feeds src to send frame by frame until src runs out or the track is
// stopped. onEnd is called in the first case only.
func (t *Track) run(src io.ReadCloser, send SendFunc, onEnd func()) {
	buf := make([]byte, frameBytes)
	pcm := make([]int16, frameSize*channels)

	natural := func() bool {
		defer close(t.done)
		defer src.Close()

		for {
			if !t.waitResumed() {
				return false
			}

			n, err := io.ReadFull(src, buf)
			if n == 0 {
				return !t.stopped()
			}
			// The last frame is usually short; pad it with silence.
			clear(buf[n:])
			for i := range pcm {
				pcm[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
			}
			scale(pcm, t.Volume())

			if !send(pcm, t.stop) {
				return !t.stopped()
			}
			if err != nil {
				return !t.stopped()
			}
		}
	}()

	t.mu.Lock()
	t.finished = true
	t.mu.Unlock()

	if natural && onEnd != nil {
		onEnd()
	}
}
