package capture

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameSync(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want int
	}{
		{"at start", []byte{0xFF, 0xFB, 0x90}, 0},
		{"after partial frame", []byte{0x01, 0x02, 0xFF, 0xE0}, 2},
		{"lone 0xFF is not a header", []byte{0xFF, 0x00, 0x00}, -1},
		{"second byte needs top three bits", []byte{0xFF, 0xC0}, -1},
		{"no sync", bytes.Repeat([]byte{0xAB}, 64), -1},
		{"beyond the window", append(bytes.Repeat([]byte{0x00}, syncWindow), 0xFF, 0xFB), -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, frameSync(tc.data))
		})
	}
}
