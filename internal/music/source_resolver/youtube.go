package source_resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"everybot/internal/music/queue"

	_ "github.com/bdandy/go-socks4"
	youtube "github.com/kkdai/youtube/v2"
	"golang.org/x/net/proxy"
)

var youtubeURLPattern = regexp.MustCompile(`^(?:https?://)?(?:www\.|music\.|m\.)?(?:youtube\.com|youtu\.be)/\S+`)

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isYouTubeVideoURL(s string) bool {
	if !youtubeURLPattern.MatchString(s) {
		return false
	}
	return strings.Contains(s, "/watch?v=") || strings.Contains(s, "youtu.be/") || strings.Contains(s, "/shorts/")
}

// CleanVideoURL strips everything but the video id from a YouTube link, so
// playlist and timestamp parameters do not leak into playback.
func CleanVideoURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	switch host := u.Hostname(); host {
	case "youtu.be":
		if vid := strings.Trim(u.Path, "/"); vid != "" {
			return "https://youtu.be/" + vid
		}
	case "www.youtube.com", "youtube.com", "music.youtube.com", "m.youtube.com":
		if u.Path == "/watch" {
			if vid := u.Query().Get("v"); vid != "" {
				return fmt.Sprintf("https://%s/watch?v=%s", host, vid)
			}
		}
	}
	return raw
}

// newYouTubeClient builds the kkdai client, optionally behind a proxy.
func newYouTubeClient(proxyURL string) (*youtube.Client, error) {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	if proxyURL == "" {
		return &youtube.Client{HTTPClient: httpClient}, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy %q: %w", proxyURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
	case "socks4", "socks5":
		// socks4 is registered with x/net/proxy by go-socks4.
		dialer, err := proxy.FromURL(u, &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 10 * time.Second})
		if err != nil {
			return nil, fmt.Errorf("%s proxy: %w", u.Scheme, err)
		}
		httpClient.Transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	return &youtube.Client{HTTPClient: httpClient}, nil
}

func (r *SourceResolver) youtubeInfo(ctx context.Context, link string) (queue.Song, error) {
	video, err := r.yt.GetVideoContext(ctx, link)
	if err != nil {
		if errors.Is(err, youtube.ErrVideoPrivate) || errors.Is(err, youtube.ErrInvalidCharactersInVideoID) || errors.Is(err, youtube.ErrVideoIDMinLength) {
			return queue.Song{}, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return queue.Song{}, err
	}
	return queue.NewSong(video.Title, link, FormatDuration(video.Duration), ""), nil
}

func (r *SourceResolver) youtubeStreamURL(ctx context.Context, link string) (string, error) {
	video, err := r.yt.GetVideoContext(ctx, link)
	if err != nil {
		return "", err
	}
	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return "", errors.New("no audio formats")
	}
	return r.yt.GetStreamURLContext(ctx, video, &formats[0])
}

// FormatDuration renders d as m:ss, or h:mm:ss from an hour up. Zero is "".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	total := int(d.Round(time.Second) / time.Second)
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
