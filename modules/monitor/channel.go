package monitor

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"time"

	"github.com/enuzeas/shazamIO-TBSFM/pkg/capture"
	"github.com/enuzeas/shazamIO-TBSFM/pkg/shazam"
)

// channel drives the capture, recognize, publish loop for one stream. All
// of its state is owned by the single goroutine running run; channels share
// nothing but the gateway and the sink.
type channel struct {
	cfg     *Config
	ch      ChannelConfig
	logger  *slog.Logger
	source  capture.Source
	gateway *Gateway
	sink    Sink
	metrics *metrics

	state channelState
}

func newChannel(cfg *Config, cc ChannelConfig, source capture.Source, gateway *Gateway, sink Sink, logger *slog.Logger, metrics *metrics) *channel {
	return &channel{
		cfg:     cfg,
		ch:      cc,
		logger:  logger.With("channel", cc.ID),
		source:  source,
		gateway: gateway,
		sink:    sink,
		metrics: metrics,
	}
}

// run loops until ctx is cancelled. No failure inside a cycle ever escapes:
// every failure mode maps to a cooldown and the loop continues, so one dead
// stream can never take its channel (or any other) down.
func (c *channel) run(ctx context.Context) {
	if c.ch.StartDelay > 0 {
		c.logger.Debug("delaying first cycle", "delay", c.ch.StartDelay)
		if !sleep(ctx, c.ch.StartDelay) {
			return
		}
	}

	c.logger.Info("monitoring stream", "url", c.ch.URL)

	for {
		cooldown := c.cycle(ctx)
		if !sleep(ctx, cooldown+c.cfg.PollInterval+jitter(c.cfg.PollJitter)) {
			return
		}
	}
}

// cycle runs one capture, recognize, publish pass and returns extra
// cooldown to add to the poll interval. Dedup state moves only on cycles
// whose outcome is published.
func (c *channel) cycle(ctx context.Context) (cooldown time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("cycle panic", "panic", r, "stack", string(debug.Stack()))
			c.metrics.cycles.WithLabelValues(c.ch.ID, "panic").Inc()
			cooldown = c.cfg.ErrorCooldown
		}
	}()

	sample, err := c.source.Capture(ctx, c.ch.URL, c.cfg.SegmentDuration)
	if err != nil {
		if ctx.Err() != nil {
			return 0
		}
		c.logger.Warn("capture failed, stream may be offline", "err", err)
		c.metrics.cycles.WithLabelValues(c.ch.ID, "capture_failed").Inc()
		return c.cfg.CaptureCooldown
	}

	outcome := c.gateway.Recognize(ctx, sample)

	switch outcome.Kind {
	case OutcomeMatch:
		c.metrics.cycles.WithLabelValues(c.ch.ID, "match").Inc()
		c.handleMatch(ctx, outcome.Track)
		return 0
	case OutcomeNoMatch:
		c.metrics.cycles.WithLabelValues(c.ch.ID, "no_match").Inc()
		c.handleNoMatch(ctx)
		return 0
	case OutcomeRateLimited:
		c.metrics.cycles.WithLabelValues(c.ch.ID, "rate_limited").Inc()
		c.logger.Warn("recognition rejected, assuming rate limit", "err", outcome.Err)
		return c.cfg.RateLimitCooldown
	default:
		c.metrics.cycles.WithLabelValues(c.ch.ID, "recognition_error").Inc()
		if ctx.Err() == nil {
			c.logger.Warn("recognition failed", "err", outcome.Err)
		}
		return 0
	}
}

func (c *channel) handleMatch(ctx context.Context, track *shazam.Track) {
	if !c.state.observeTrack(track.Key) {
		c.logger.Debug("same track still playing", "key", track.Key, "title", track.Title)
		return
	}

	c.logger.Info("music found", "title", track.Title, "artist", track.Subtitle)

	// Fire and forget: dedup state moved above, so a failed publish is not
	// retried. The next new track overwrites whatever the store holds.
	if err := c.sink.PublishTrack(ctx, c.ch.ID, newTrackDocument(track, time.Now())); err != nil {
		c.logger.Error("error publishing track", "err", err)
		c.metrics.publishErrors.WithLabelValues(c.ch.ID).Inc()
		return
	}
	c.metrics.publishes.WithLabelValues(c.ch.ID, "track").Inc()
}

func (c *channel) handleNoMatch(ctx context.Context) {
	if !c.state.observeSilence() {
		return
	}

	c.logger.Info("music stopped, clearing now playing")

	if err := c.sink.Clear(ctx, c.ch.ID); err != nil {
		c.logger.Error("error clearing now playing", "err", err)
		c.metrics.publishErrors.WithLabelValues(c.ch.ID).Inc()
		return
	}
	c.metrics.publishes.WithLabelValues(c.ch.ID, "clear").Inc()
}

// sleep waits for d or until ctx is cancelled, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func jitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}

	return rand.N(limit)
}
