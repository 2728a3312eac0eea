package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/enuzeas/shazamIO-TBSFM/pkg/shazam"
)

// Sink publishes channel documents to an external store. Calls are fire and
// forget from the monitor's point of view: failures are logged by the
// caller, never retried, and never change the cycle cadence.
// Implementations must be safe for concurrent use by channel goroutines.
type Sink interface {
	// PublishTrack upserts the channel's now playing document and appends
	// it to the channel's history.
	PublishTrack(ctx context.Context, channel string, doc TrackDocument) error
	// Clear replaces the channel's now playing document with an empty one.
	// History is left alone.
	Clear(ctx context.Context, channel string) error
}

// TrackDocument is the JSON object published for a recognized track: the
// recognition service's track object passed through unmodified, with the
// publication time stamped in.
type TrackDocument map[string]any

func newTrackDocument(t *shazam.Track, now time.Time) TrackDocument {
	doc := make(TrackDocument, len(t.Fields)+2)
	for k, v := range t.Fields {
		doc[k] = v
	}

	doc["timestamp_server"] = now.Unix()
	doc["detected_at_readable"] = now.Format("2006-01-02 15:04:05")

	return doc
}

// multiSink fans a publication out to every configured sink. One failing
// sink does not stop the others.
type multiSink []Sink

func (s multiSink) PublishTrack(ctx context.Context, channel string, doc TrackDocument) error {
	var errs []error
	for _, sink := range s {
		errs = append(errs, sink.PublishTrack(ctx, channel, doc))
	}

	return errors.Join(errs...)
}

func (s multiSink) Clear(ctx context.Context, channel string) error {
	var errs []error
	for _, sink := range s {
		errs = append(errs, sink.Clear(ctx, channel))
	}

	return errors.Join(errs...)
}

// nopSink is used when no store is configured; detections are then only
// visible in the logs.
type nopSink struct{}

func (nopSink) PublishTrack(context.Context, string, TrackDocument) error { return nil }
func (nopSink) Clear(context.Context, string) error                       { return nil }
