package monitor

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enuzeas/shazamIO-TBSFM/pkg/capture"
)

func TestRegisterFlagsAppliesDefaults(t *testing.T) {
	cfg := &Config{}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlagsAndApplyDefaults("monitor", fs)
	require.NoError(t, fs.Parse(nil))

	assert.Equal(t, 10*time.Second, cfg.SegmentDuration)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.PollJitter)
	assert.Equal(t, 30*time.Second, cfg.CaptureCooldown)
	assert.Equal(t, 60*time.Second, cfg.RateLimitCooldown)
	assert.Equal(t, "tbs_radio", cfg.PublishRoot)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)

	require.Len(t, cfg.Channels, 1)
	assert.Equal(t, "fm", cfg.Channels[0].ID)
	assert.NotEmpty(t, cfg.Channels[0].URL)

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name     string
		channels []ChannelConfig
		wantErr  string
	}{
		{
			name:     "valid lineup",
			channels: []ChannelConfig{{ID: "fm", URL: "http://x/fm"}, {ID: "efm", URL: "http://x/efm", Source: capture.SourceICY}},
		},
		{
			name:    "no channels",
			wantErr: "no channels",
		},
		{
			name:     "missing id",
			channels: []ChannelConfig{{URL: "http://x/fm"}},
			wantErr:  "id must not be empty",
		},
		{
			name:     "duplicate id",
			channels: []ChannelConfig{{ID: "fm", URL: "http://x/a"}, {ID: "fm", URL: "http://x/b"}},
			wantErr:  "duplicate channel id",
		},
		{
			name:     "missing url",
			channels: []ChannelConfig{{ID: "fm"}},
			wantErr:  "url must not be empty",
		},
		{
			name:     "unknown source",
			channels: []ChannelConfig{{ID: "fm", URL: "http://x/fm", Source: "dat"}},
			wantErr:  "unknown source",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Channels: tc.channels}
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestChannelsFromURLs(t *testing.T) {
	channels := ChannelsFromURLs([]string{
		"http://stream.example.com/one/playlist.m3u8",
		"http://stream.example.com/two/playlist.m3u8",
	})

	require.Len(t, channels, 2)
	assert.Equal(t, "ch1", channels[0].ID)
	assert.Zero(t, channels[0].StartDelay)
	assert.Equal(t, "ch2", channels[1].ID)
	assert.Equal(t, 15*time.Second, channels[1].StartDelay)

	cfg := &Config{Channels: channels}
	assert.NoError(t, cfg.Validate())
}
