package source_resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"everybot/internal/music/queue"
)

// Content types that ffmpeg can read straight from the link.
var directContentTypes = []string{
	"audio/",
	"video/",
	"application/vnd.apple.mpegurl",
	"application/x-mpegurl",
	"application/ogg",
	"application/x-scpls",
	"application/xspf+xml",
}

const maxProbeRedirects = 5

func newProbeClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxProbeRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

// probeDirect checks whether link serves audio itself (internet radio, a
// plain file) rather than a web page. ok is false for anything yt-dlp should
// handle.
func (r *SourceResolver) probeDirect(ctx context.Context, link string) (song queue.Song, ok bool) {
	if isLikelyPlaylist(link) {
		return queue.NewSong(directTitle(link, ""), link, "", ""), true
	}

	resp, err := r.fetchHeaders(ctx, link)
	if err != nil {
		r.log.Debug().Err(err).Str("url", link).Msg("Direct stream probe failed")
		return song, false
	}
	if !isDirectContentType(resp.Header.Get("Content-Type")) && !isLikelyPlaylist(resp.Request.URL.String()) {
		return song, false
	}
	return queue.NewSong(directTitle(link, resp.Header.Get("icy-name")), link, "", ""), true
}

// fetchHeaders tries HEAD first; many stream servers reject it, so GET is the
// fallback. The body is never read.
func (r *SourceResolver) fetchHeaders(ctx context.Context, link string) (*http.Response, error) {
	if resp, err := r.headerRequest(ctx, http.MethodHead, link); err == nil && resp.StatusCode < 400 {
		return resp, nil
	}
	resp, err := r.headerRequest(ctx, http.MethodGet, link)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	return resp, nil
}

func (r *SourceResolver) headerRequest(ctx context.Context, method, link string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, link, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := r.probe.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	return resp, nil
}

func isDirectContentType(contentType string) bool {
	// Strip params like "audio/mpeg; charset=utf-8"
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, allowed := range directContentTypes {
		if strings.HasPrefix(contentType, allowed) {
			return true
		}
	}
	return false
}

func isLikelyPlaylist(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".m3u", ".m3u8", ".pls", ".xspf", ".asx":
		return true
	}
	return false
}

// directTitle prefers the station name a stream announces, then the file
// name, then the host.
func directTitle(link, icyName string) string {
	if name := strings.TrimSpace(icyName); name != "" {
		return name
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if base := path.Base(u.Path); base != "." && base != "/" {
		return base
	}
	return u.Host
}
