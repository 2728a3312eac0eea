package icy

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Playlists are tiny; anything past this is not one.
const maxPlaylistSize = 64 << 10

// isPlaylist reports whether the response is a station playlist rather than
// the stream itself. A response advertising ICY headers is always a stream.
// The body is deliberately not sniffed: reading an open stream to find out
// what it is would never return.
func isPlaylist(resp *http.Response, url string) bool {
	if resp.Header.Get("icy-metaint") != "" || resp.Header.Get("icy-name") != "" {
		return false
	}

	ct := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(ct, "audio/x-scpls"),
		strings.Contains(ct, "application/pls+xml"),
		strings.Contains(ct, "audio/mpegurl"),
		strings.Contains(ct, "audio/x-mpegurl"):
		return true
	}

	base, _, _ := strings.Cut(url, "?")
	base = strings.ToLower(base)

	return strings.HasSuffix(base, ".pls") || strings.HasSuffix(base, ".m3u")
}

// resolve extracts the first stream URL from a .pls or .m3u playlist body.
func resolve(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPlaylistSize))
	if err != nil {
		return "", fmt.Errorf("icy: failed to read playlist: %w", err)
	}

	content := string(data)
	if strings.Contains(content, "[playlist]") || strings.Contains(content, "File1=") {
		return parsePLS(content)
	}

	return parseM3U(content)
}

func parsePLS(content string) (string, error) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "File") {
			continue
		}

		if _, target, ok := strings.Cut(line, "="); ok {
			if target = strings.TrimSpace(target); target != "" {
				return target, nil
			}
		}
	}

	return "", errors.New("icy: no stream URL in PLS playlist")
}

func parseM3U(content string) (string, error) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return line, nil
		}
	}

	return "", errors.New("icy: no stream URL in M3U playlist")
}
