package monitor

import (
	"context"
	"path"
)

// rtdb is the slice of the database client the sink uses.
type rtdb interface {
	Put(ctx context.Context, path string, v any) error
	Post(ctx context.Context, path string, v any) error
}

// firebaseSink keeps the store layout: <root>/<channel>/now_playing holds
// the current track (or an empty object), <root>/<channel>/history grows
// one entry per published track.
type firebaseSink struct {
	db   rtdb
	root string
}

func newFirebaseSink(db rtdb, root string) *firebaseSink {
	return &firebaseSink{db: db, root: root}
}

func (s *firebaseSink) PublishTrack(ctx context.Context, channel string, doc TrackDocument) error {
	if err := s.db.Put(ctx, path.Join(s.root, channel, "now_playing"), doc); err != nil {
		return err
	}

	return s.db.Post(ctx, path.Join(s.root, channel, "history"), doc)
}

func (s *firebaseSink) Clear(ctx context.Context, channel string) error {
	// An empty object rather than a delete, so readers can keep watching
	// the same key.
	return s.db.Put(ctx, path.Join(s.root, channel, "now_playing"), map[string]any{})
}
