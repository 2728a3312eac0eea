package capture

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/enuzeas/shazamIO-TBSFM/pkg/icy"
)

// Bitrate assumed when the server does not advertise one.
const assumedBitrate = 128

// ICY reads a segment straight off a Shoutcast/Icecast stream, sized from
// the advertised bitrate. No transcoding, so no ffmpeg dependency.
type ICY struct {
	grace time.Duration
}

func NewICY(grace time.Duration) *ICY {
	if grace == 0 {
		grace = defaultGrace
	}
	return &ICY{grace: grace}
}

func (c *ICY) Capture(ctx context.Context, url string, d time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d+c.grace)
	defer cancel()

	stream, err := icy.Open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	defer stream.Close()

	bitrate := stream.Bitrate
	if bitrate == 0 {
		bitrate = assumedBitrate
	}

	buf := make([]byte, bitrate*1000/8*int(d/time.Second))
	if _, err := io.ReadFull(stream, buf); err != nil {
		return nil, fmt.Errorf("capture: short read from stream: %w", err)
	}

	// Joining a live stream lands mid-frame; drop the partial head so the
	// segment starts on a frame boundary. Streams that are not MP3 pass
	// through untouched.
	if pos := frameSync(buf); pos > 0 {
		buf = buf[pos:]
	}

	return buf, nil
}
