// Package stream turns songs into PCM and PCM into Opus frames on a Discord
// voice connection.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz

	// frameBytes is one frame of interleaved s16le samples.
	frameBytes = frameSize * channels * 2
	// maxOpusBytes bounds an encoded frame.
	maxOpusBytes = frameBytes
)

// ffmpegArgs decodes link to raw 48kHz stereo s16le on stdout.
func ffmpegArgs(link string) []string {
	return []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", link,
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-loglevel", "warning",
		"pipe:1",
	}
}

// pcmProcess is ffmpeg's stdout. Closing it kills ffmpeg.
type pcmProcess struct {
	io.Reader
	cmd  *exec.Cmd
	once sync.Once
	err  error
}

// OpenPCM starts ffmpeg decoding link. The process is not bound to ctx: a
// track keeps playing after the request that started it returns. It ends
// when the stream is closed.
func OpenPCM(ctx context.Context, ffmpegPath, link string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(ffmpegPath, ffmpegArgs(link)...)

	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	return &pcmProcess{Reader: out, cmd: cmd}, nil
}

func (p *pcmProcess) Close() error {
	p.once.Do(func() {
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.err = err
		}
		p.cmd.Wait()
	})
	return p.err
}
