package source_resolver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"everybot/internal/music/queue"
)

type ytdlpInfo struct {
	Title       string  `json:"title"`
	WebpageURL  string  `json:"webpage_url"`
	OriginalURL string  `json:"original_url"`
	Duration    float64 `json:"duration"`
	IsLive      bool    `json:"is_live"`
}

func (i ytdlpInfo) song() queue.Song {
	link := i.WebpageURL
	if link == "" {
		link = i.OriginalURL
	}
	duration := FormatDuration(time.Duration(i.Duration * float64(time.Second)))
	if i.IsLive {
		duration = "live"
	}
	return queue.NewSong(i.Title, link, duration, "")
}

// parseYtdlpInfo reads the first JSON object printed by yt-dlp -j.
func parseYtdlpInfo(out []byte) (ytdlpInfo, error) {
	var info ytdlpInfo
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := json.Unmarshal(line, &info); err != nil {
			return info, fmt.Errorf("decode yt-dlp output: %w", err)
		}
		if info.WebpageURL == "" && info.OriginalURL == "" {
			return info, ErrNotFound
		}
		return info, nil
	}
	if err := sc.Err(); err != nil {
		return info, err
	}
	return info, ErrNotFound
}

// firstLine returns the first non-empty line of yt-dlp -g output.
func firstLine(out []byte) string {
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func (r *SourceResolver) ytdlpInfo(ctx context.Context, target string) (ytdlpInfo, error) {
	out, err := r.ytdlp(ctx, "-j", "--no-playlist", "--no-warnings", target)
	if err != nil {
		return ytdlpInfo{}, err
	}
	return parseYtdlpInfo(out)
}

func (r *SourceResolver) ytdlpStreamURL(ctx context.Context, link string) (string, error) {
	out, err := r.ytdlp(ctx, "-g", "-f", "bestaudio/best", "--no-playlist", "--no-warnings", link)
	if err != nil {
		return "", err
	}
	if u := firstLine(out); u != "" {
		return u, nil
	}
	return "", errors.New("yt-dlp returned no stream url")
}

func (r *SourceResolver) ytdlp(ctx context.Context, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.ytdlpPath, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if isUnavailable(msg) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		if msg != "" {
			return nil, fmt.Errorf("yt-dlp: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}
	return out, nil
}

// isUnavailable reports yt-dlp errors that retrying will not fix.
func isUnavailable(stderr string) bool {
	s := strings.ToLower(stderr)
	for _, marker := range []string{
		"video unavailable",
		"private video",
		"unsupported url",
		"is not a valid url",
		"no video formats found",
		"http error 404",
	} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
