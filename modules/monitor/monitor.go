// Package monitor watches live radio streams and keeps a remote store up to
// date with what each of them is playing. One goroutine per channel runs a
// capture, recognize, publish cycle; recognition is throttled through a
// single shared slot because the service will not tolerate concurrent
// requests.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/grafana/dskit/modules"
	"github.com/grafana/dskit/services"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/enuzeas/shazamIO-TBSFM/pkg/capture"
	"github.com/enuzeas/shazamIO-TBSFM/pkg/firebase"
	"github.com/enuzeas/shazamIO-TBSFM/pkg/shazam"
)

// Placeholder left by deployment templates; treated as "not configured".
const placeholderURL = "YOUR_HLS_STREAM_URL_HERE"

var module = "monitor"

type Monitor struct {
	services.Service

	cfg    *Config
	logger *slog.Logger

	metrics  *metrics
	gateway  *Gateway
	sink     Sink
	mqtt     *mqttSink
	channels []*channel

	wg sync.WaitGroup
}

func New(cfg Config, logger slog.Logger, reg prometheus.Registerer) (*Monitor, error) {
	m := &Monitor{
		cfg:     &cfg,
		logger:  logger.With("module", module),
		metrics: newMetrics(reg),
	}

	m.Service = services.NewBasicService(m.starting, m.running, m.stopping)

	return m, nil
}

func (m *Monitor) starting(ctx context.Context) error {
	// Misconfiguration gets a diagnostic and a requested stop rather than a
	// crash loop under a process supervisor.
	if err := m.cfg.Validate(); err != nil {
		m.logger.Error("invalid channel configuration", "err", err)
		return modules.ErrStopProcess
	}

	for _, cc := range m.cfg.Channels {
		if cc.URL == placeholderURL {
			m.logger.Error("stream url is not set; configure channels in the config file, pass stream URLs as arguments, or set SHAZAMIO_HLS_URL", "channel", cc.ID)
			return modules.ErrStopProcess
		}
	}

	m.gateway = NewGateway(func() RecognitionClient {
		return shazam.NewClient(m.cfg.Shazam)
	}, m.metrics.slotWait)

	m.sink = m.buildSink(ctx)

	for _, cc := range m.cfg.Channels {
		source, err := capture.New(cc.Source, m.cfg.FFmpegPath, m.cfg.CaptureGrace)
		if err != nil {
			return fmt.Errorf("channel %s: %w", cc.ID, err)
		}

		m.channels = append(m.channels, newChannel(m.cfg, cc, source, m.gateway, m.sink, m.logger, m.metrics))
	}

	return nil
}

func (m *Monitor) running(ctx context.Context) error {
	for _, ch := range m.channels {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			ch.run(ctx)
		}()
	}

	<-ctx.Done()
	m.wg.Wait()

	return nil
}

func (m *Monitor) stopping(_ error) error {
	m.logger.Info("stopping")
	m.wg.Wait()

	if m.mqtt != nil {
		m.mqtt.close()
	}

	return nil
}

// buildSink assembles the configured sinks. With none configured the
// monitor still runs, detections are just only visible in the logs.
func (m *Monitor) buildSink(ctx context.Context) Sink {
	var sinks []Sink

	if m.cfg.Firebase.Enabled() {
		db, err := firebase.New(ctx, m.cfg.Firebase)
		if err != nil {
			// Missing credentials only disable persistence; monitoring
			// continues.
			m.logger.Warn("firebase sink disabled", "err", err)
		} else {
			sinks = append(sinks, newFirebaseSink(db, m.cfg.PublishRoot))
		}
	}

	if m.cfg.MQTT.Enabled() {
		m.mqtt = newMQTTSink(m.cfg.MQTT, m.logger)
		sinks = append(sinks, m.mqtt)
	}

	switch len(sinks) {
	case 0:
		m.logger.Info("no sink configured, detections will only be logged")
		return nopSink{}
	case 1:
		return sinks[0]
	default:
		return multiSink(sinks)
	}
}
