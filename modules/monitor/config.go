package monitor

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/zachfi/zkit/pkg/util"

	"github.com/enuzeas/shazamIO-TBSFM/pkg/capture"
	"github.com/enuzeas/shazamIO-TBSFM/pkg/firebase"
	"github.com/enuzeas/shazamIO-TBSFM/pkg/shazam"
)

const (
	defaultSegmentDuration   = 10 * time.Second
	defaultPollInterval      = 30 * time.Second
	defaultPollJitter        = 5 * time.Second
	defaultCaptureCooldown   = 30 * time.Second
	defaultRateLimitCooldown = 60 * time.Second
	defaultErrorCooldown     = 30 * time.Second
	defaultCaptureGrace      = 30 * time.Second

	// Delay between the first cycles of consecutive channels built from
	// command line URLs, so they do not pile onto the recognition slot at
	// startup.
	defaultStartStagger = 15 * time.Second
)

// The TBS FM audio-only HLS stream, monitored when nothing else is
// configured.
const defaultStreamURL = "https://cdnfm.tbs.seoul.kr/tbs/_definst_/8434_tbs.stream_audio-only/playlist.m3u8"

// ChannelConfig describes one monitored stream. Channels are configured via
// the config file or built from command line URLs; there are no per-channel
// flags.
type ChannelConfig struct {
	ID         string        `yaml:"id"`
	URL        string        `yaml:"url"`
	Source     string        `yaml:"source,omitempty"`      // hls (via ffmpeg) or icecast (direct read)
	StartDelay time.Duration `yaml:"start-delay,omitempty"` // wait before the channel's first cycle
}

type Config struct {
	Channels []ChannelConfig `yaml:"channels,omitempty"`

	SegmentDuration   time.Duration `yaml:"segment-duration,omitempty"`
	PollInterval      time.Duration `yaml:"poll-interval,omitempty"`
	PollJitter        time.Duration `yaml:"poll-jitter,omitempty"`
	CaptureCooldown   time.Duration `yaml:"capture-cooldown,omitempty"`
	RateLimitCooldown time.Duration `yaml:"rate-limit-cooldown,omitempty"`
	ErrorCooldown     time.Duration `yaml:"error-cooldown,omitempty"`
	CaptureGrace      time.Duration `yaml:"capture-grace,omitempty"`
	FFmpegPath        string        `yaml:"ffmpeg-path,omitempty"`
	PublishRoot       string        `yaml:"publish-root,omitempty"`

	Shazam   shazam.Config   `yaml:"shazam,omitempty"`
	Firebase firebase.Config `yaml:"firebase,omitempty"`
	MQTT     MQTTConfig      `yaml:"mqtt,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	cfg.Channels = defaultChannels()

	f.DurationVar(&cfg.SegmentDuration, util.PrefixConfig(prefix, "segment-duration"), defaultSegmentDuration,
		"Length of the audio segment captured for each recognition attempt.")
	f.DurationVar(&cfg.PollInterval, util.PrefixConfig(prefix, "poll-interval"), defaultPollInterval,
		"Base wait between recognition cycles on a channel.")
	f.DurationVar(&cfg.PollJitter, util.PrefixConfig(prefix, "poll-jitter"), defaultPollJitter,
		"Upper bound on the random extra wait added to each poll interval so channels drift apart.")
	f.DurationVar(&cfg.CaptureCooldown, util.PrefixConfig(prefix, "capture-cooldown"), defaultCaptureCooldown,
		"Extra wait before the next cycle after a capture failure (stream likely offline).")
	f.DurationVar(&cfg.RateLimitCooldown, util.PrefixConfig(prefix, "rate-limit-cooldown"), defaultRateLimitCooldown,
		"Extra wait before the next cycle after the recognition service rejects a request as invalid.")
	f.DurationVar(&cfg.ErrorCooldown, util.PrefixConfig(prefix, "error-cooldown"), defaultErrorCooldown,
		"Extra wait before the next cycle after an unclassified failure.")
	f.DurationVar(&cfg.CaptureGrace, util.PrefixConfig(prefix, "capture-grace"), defaultCaptureGrace,
		"Time allowed for a capture beyond the segment duration before the attempt is abandoned.")
	f.StringVar(&cfg.FFmpegPath, util.PrefixConfig(prefix, "ffmpeg-path"), "ffmpeg",
		"Path to the ffmpeg binary used for HLS capture.")
	f.StringVar(&cfg.PublishRoot, util.PrefixConfig(prefix, "publish-root"), "tbs_radio",
		"Top level database key under which channel documents are published.")

	cfg.Shazam.RegisterFlagsAndApplyDefaults(util.PrefixConfig(prefix, "shazam"), f)
	cfg.Firebase.RegisterFlagsAndApplyDefaults(util.PrefixConfig(prefix, "firebase"), f)
	cfg.MQTT.RegisterFlagsAndApplyDefaults(util.PrefixConfig(prefix, "mqtt"), f)
}

// Validate checks the channel lineup before the monitor starts.
func (cfg *Config) Validate() error {
	if len(cfg.Channels) == 0 {
		return errors.New("no channels configured")
	}

	seen := make(map[string]struct{}, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		if ch.ID == "" {
			return errors.New("channel id must not be empty")
		}
		if _, ok := seen[ch.ID]; ok {
			return fmt.Errorf("duplicate channel id %q", ch.ID)
		}
		seen[ch.ID] = struct{}{}

		if ch.URL == "" {
			return fmt.Errorf("channel %s: stream url must not be empty", ch.ID)
		}

		switch ch.Source {
		case "", capture.SourceHLS, capture.SourceICY:
		default:
			return fmt.Errorf("channel %s: unknown source %q", ch.ID, ch.Source)
		}
	}

	return nil
}

func defaultChannels() []ChannelConfig {
	return []ChannelConfig{
		{ID: "fm", URL: defaultStreamURL, Source: capture.SourceHLS},
	}
}

// ChannelsFromURLs builds a lineup from bare stream URLs as given on the
// command line. IDs are positional and first cycles are staggered.
func ChannelsFromURLs(urls []string) []ChannelConfig {
	channels := make([]ChannelConfig, 0, len(urls))
	for i, u := range urls {
		channels = append(channels, ChannelConfig{
			ID:         fmt.Sprintf("ch%d", i+1),
			URL:        u,
			Source:     capture.SourceHLS,
			StartDelay: time.Duration(i) * defaultStartStagger,
		})
	}

	return channels
}
