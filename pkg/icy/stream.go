package icy

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Stream is an open ICY stream positioned on audio data.
type Stream struct {
	// Name is the station name the server advertises.
	Name string

	// Bitrate in kbit/s, 0 when the server does not advertise one.
	Bitrate int

	// Bytes of audio between in-band metadata blocks, 0 when the server
	// sends no metadata at all.
	metaint int

	// Audio bytes read since the last metadata block.
	pos int

	rc io.ReadCloser
}

// Open connects to an ICY stream. Station directories often hand out a tiny
// .pls or .m3u playlist instead of the stream itself; those are followed one
// hop to the first stream URL they name. The connection is bounded by ctx
// and by dial/header timeouts; the body carries no deadline so the caller
// decides how much audio to read.
func Open(ctx context.Context, url string) (*Stream, error) {
	resp, err := get(ctx, url)
	if err != nil {
		return nil, err
	}

	if isPlaylist(resp, url) {
		target, err := resolve(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		if resp, err = get(ctx, target); err != nil {
			return nil, err
		}
	}

	return newStream(resp)
}

func get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("icy: failed to create request: %w", err)
	}
	req.Header.Set("accept", "*/*")
	req.Header.Set("icy-metadata", "1")

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		ResponseHeaderTimeout: 10 * time.Second,
	}
	client := &http.Client{Transport: transport}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("icy: failed to connect: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("icy: unexpected status %d", resp.StatusCode)
	}

	return resp, nil
}

// newStream wraps a connected response, parsing the ICY headers.
func newStream(resp *http.Response) (*Stream, error) {
	s := &Stream{
		Name: resp.Header.Get("icy-name"),
		rc:   resp.Body,
	}

	if raw := resp.Header.Get("icy-br"); raw != "" {
		if br, err := strconv.Atoi(raw); err == nil {
			s.Bitrate = br
		}
	}
	if raw := resp.Header.Get("icy-metaint"); raw != "" {
		metaint, err := strconv.Atoi(raw)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("icy: cannot parse metaint %q: %w", raw, err)
		}
		s.metaint = metaint
	}

	return s, nil
}

// Read fills p with audio bytes, silently consuming any metadata block that
// falls on the boundary. Like any reader it may return fewer bytes than
// requested; pair it with io.ReadFull for fixed-size captures.
func (s *Stream) Read(p []byte) (int, error) {
	if s.metaint == 0 {
		return s.rc.Read(p)
	}

	if s.pos == s.metaint {
		if err := s.skipMetadata(); err != nil {
			return 0, err
		}
		s.pos = 0
	}

	if remaining := s.metaint - s.pos; len(p) > remaining {
		p = p[:remaining]
	}

	n, err := s.rc.Read(p)
	s.pos += n
	return n, err
}

// skipMetadata consumes one metadata block: a length byte followed by
// length*16 bytes of padded text.
func (s *Stream) skipMetadata() error {
	var lenByte [1]byte
	if _, err := io.ReadFull(s.rc, lenByte[:]); err != nil {
		return err
	}

	if n := int(lenByte[0]) * 16; n > 0 {
		if _, err := io.CopyN(io.Discard, s.rc, int64(n)); err != nil {
			return err
		}
	}

	return nil
}

func (s *Stream) Close() error {
	return s.rc.Close()
}
