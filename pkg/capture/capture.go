// Package capture produces bounded-duration audio segments from live
// stream URLs. HLS and playlist URLs are handled by ffmpeg; plain
// ICY/Shoutcast streams can be read directly.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Source kinds selectable per channel.
const (
	SourceHLS = "hls"
	SourceICY = "icecast"
)

const defaultGrace = 30 * time.Second

// Source produces one segment of audio from a stream URL. Implementations
// do not retry; the caller owns retry policy.
type Source interface {
	Capture(ctx context.Context, url string, d time.Duration) ([]byte, error)
}

// New returns the source for a channel's configured kind.
func New(kind, ffmpegPath string, grace time.Duration) (Source, error) {
	switch kind {
	case SourceICY:
		return NewICY(grace), nil
	case SourceHLS, "":
		return NewFFmpeg(ffmpegPath, grace)
	default:
		return nil, fmt.Errorf("capture: unknown source kind %q", kind)
	}
}

// FFmpeg captures a segment by transcoding the stream head to MP3 on
// stdout. Every invocation is bounded by the segment duration plus a grace
// allowance for connect/encode/exit, so a dead stream cannot hang a cycle.
type FFmpeg struct {
	path  string
	grace time.Duration
}

func NewFFmpeg(path string, grace time.Duration) (*FFmpeg, error) {
	if path == "" {
		path = "ffmpeg"
	}
	if grace == 0 {
		grace = defaultGrace
	}

	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("capture: ffmpeg not found at %q: %w", path, err)
	}

	return &FFmpeg{path: resolved, grace: grace}, nil
}

func (f *FFmpeg) Capture(ctx context.Context, url string, d time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d+f.grace)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.path,
		"-i", url,
		"-t", strconv.Itoa(int(d/time.Second)),
		"-vn",
		"-acodec", "libmp3lame",
		"-f", "mp3",
		"-loglevel", "error",
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("capture: ffmpeg failed: %w: %s", err, firstLine(&stderr))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("capture: ffmpeg produced no output")
	}

	return stdout.Bytes(), nil
}

func firstLine(b *bytes.Buffer) string {
	line, _, _ := strings.Cut(strings.TrimSpace(b.String()), "\n")
	return line
}
