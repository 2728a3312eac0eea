package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rtdbWrite struct {
	path  string
	value any
}

type fakeRTDB struct {
	err   error
	puts  []rtdbWrite
	posts []rtdbWrite
}

func (f *fakeRTDB) Put(_ context.Context, path string, v any) error {
	f.puts = append(f.puts, rtdbWrite{path: path, value: v})
	return f.err
}

func (f *fakeRTDB) Post(_ context.Context, path string, v any) error {
	f.posts = append(f.posts, rtdbWrite{path: path, value: v})
	return f.err
}

func TestFirebaseSinkLayout(t *testing.T) {
	db := &fakeRTDB{}
	s := newFirebaseSink(db, "tbs_radio")
	doc := TrackDocument{"title": "Song A"}

	require.NoError(t, s.PublishTrack(context.Background(), "fm", doc))
	require.Len(t, db.puts, 1)
	assert.Equal(t, "tbs_radio/fm/now_playing", db.puts[0].path)
	assert.Equal(t, doc, db.puts[0].value)
	require.Len(t, db.posts, 1)
	assert.Equal(t, "tbs_radio/fm/history", db.posts[0].path)
	assert.Equal(t, doc, db.posts[0].value)

	require.NoError(t, s.Clear(context.Background(), "fm"))
	require.Len(t, db.puts, 2)
	assert.Equal(t, "tbs_radio/fm/now_playing", db.puts[1].path)
	assert.Equal(t, map[string]any{}, db.puts[1].value)
	assert.Len(t, db.posts, 1, "a clear must not touch history")
}

func TestFirebaseSinkFailedUpsertSkipsHistory(t *testing.T) {
	db := &fakeRTDB{err: errors.New("permission denied")}
	s := newFirebaseSink(db, "tbs_radio")

	require.Error(t, s.PublishTrack(context.Background(), "fm", TrackDocument{"title": "Song A"}))
	assert.Empty(t, db.posts)
}
