// Package source_resolver turns user queries into songs and songs into PCM
// streams. YouTube links are looked up with the kkdai client, links that
// serve audio directly (internet radio) are handed to ffmpeg as they are,
// and everything else (searches, SoundCloud and other sites) goes through
// yt-dlp. Decoding is done by ffmpeg.
package source_resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"everybot/internal/logging"
	"everybot/internal/music/queue"
	"everybot/internal/music/stream"
	"everybot/pkg/retrylimit"

	youtube "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a query matches nothing playable.
var ErrNotFound = errors.New("track not found")

const lookupAttempts = 3

type Options struct {
	YtDlpPath  string
	FFmpegPath string
	// Proxy is an optional http, https, socks4 or socks5 URL for YouTube.
	Proxy string
}

type SourceResolver struct {
	ytdlpPath  string
	ffmpegPath string
	yt         *youtube.Client
	probe      *http.Client
	limiter    *retrylimit.AdaptiveLimiter
	log        zerolog.Logger

	// direct remembers links that ffmpeg can open without yt-dlp.
	direct sync.Map
}

func New(opts Options) (*SourceResolver, error) {
	yt, err := newYouTubeClient(opts.Proxy)
	if err != nil {
		return nil, err
	}
	return &SourceResolver{
		ytdlpPath:  opts.YtDlpPath,
		ffmpegPath: opts.FFmpegPath,
		yt:         yt,
		probe:      newProbeClient(),
		limiter:    retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5),
		log:        logging.For("resolver"),
	}, nil
}

// Resolve finds the song a query refers to. A query is either a link or
// free text searched on YouTube.
func (r *SourceResolver) Resolve(ctx context.Context, query string) (queue.Song, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return queue.Song{}, ErrNotFound
	}

	var song queue.Song
	err := retrylimit.WithRetryMax(ctx, func() error {
		var err error
		song, err = r.lookup(ctx, query)
		if errors.Is(err, ErrNotFound) {
			return retrylimit.Fatal(err)
		}
		return err
	}, r.limiter, lookupAttempts)
	if err != nil {
		return queue.Song{}, fmt.Errorf("resolve %q: %w", query, err)
	}

	r.log.Debug().Str("query", query).Str("title", song.Title).Str("url", song.URL).Msg("Resolved")
	return song, nil
}

func (r *SourceResolver) lookup(ctx context.Context, query string) (queue.Song, error) {
	if isYouTubeVideoURL(query) {
		song, err := r.youtubeInfo(ctx, CleanVideoURL(query))
		if err == nil {
			return song, nil
		}
		r.log.Debug().Err(err).Str("url", query).Msg("YouTube lookup failed, trying yt-dlp")
	}

	if isURL(query) && !isYouTubeVideoURL(query) {
		if song, ok := r.probeDirect(ctx, query); ok {
			r.direct.Store(song.URL, true)
			return song, nil
		}
	}

	target := query
	if !isURL(query) {
		target = "ytsearch1:" + query
	}
	info, err := r.ytdlpInfo(ctx, target)
	if err != nil {
		return queue.Song{}, err
	}
	return info.song(), nil
}

// Stream opens song as PCM. Direct streams go straight to ffmpeg. YouTube
// songs try the kkdai client first and fall back to yt-dlp, like every
// other source.
func (r *SourceResolver) Stream(ctx context.Context, song queue.Song) (io.ReadCloser, error) {
	if _, ok := r.direct.Load(song.URL); ok {
		return stream.OpenPCM(ctx, r.ffmpegPath, song.URL)
	}

	var errs []error

	if isYouTubeVideoURL(song.URL) {
		link, err := r.youtubeStreamURL(ctx, song.URL)
		if err == nil {
			return stream.OpenPCM(ctx, r.ffmpegPath, link)
		}
		errs = append(errs, fmt.Errorf("youtube client: %w", err))
	}

	var link string
	err := retrylimit.WithRetryMax(ctx, func() error {
		var err error
		link, err = r.ytdlpStreamURL(ctx, song.URL)
		return err
	}, r.limiter, lookupAttempts)
	if err != nil {
		errs = append(errs, fmt.Errorf("yt-dlp: %w", err))
		return nil, errors.Join(errs...)
	}
	return stream.OpenPCM(ctx, r.ffmpegPath, link)
}
