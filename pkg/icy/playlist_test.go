package icy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFollowsPLSPlaylist(t *testing.T) {
	stream := serveICY(t, map[string]string{"icy-name": "Groove Salad"}, []byte("audio"))

	playlist := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/x-scpls")
		fmt.Fprintf(w, "[playlist]\nNumberOfEntries=1\nFile1=%s\nTitle1=Groove Salad\n", stream.URL)
	}))
	t.Cleanup(playlist.Close)

	s, err := Open(context.Background(), playlist.URL)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "Groove Salad", s.Name)

	audio, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "audio", string(audio))
}

func TestOpenFollowsM3UPlaylist(t *testing.T) {
	stream := serveICY(t, map[string]string{"icy-name": "TBS eFM"}, []byte("audio"))

	playlist := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpegurl")
		fmt.Fprintf(w, "#EXTM3U\n# a comment\n%s\n", stream.URL)
	}))
	t.Cleanup(playlist.Close)

	s, err := Open(context.Background(), playlist.URL)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "TBS eFM", s.Name)
}

func TestOpenRejectsEmptyPlaylist(t *testing.T) {
	playlist := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/x-scpls")
		fmt.Fprint(w, "[playlist]\nNumberOfEntries=0\n")
	}))
	t.Cleanup(playlist.Close)

	_, err := Open(context.Background(), playlist.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stream URL")
}

func TestIsPlaylist(t *testing.T) {
	response := func(headers map[string]string) *http.Response {
		h := http.Header{}
		for k, v := range headers {
			h.Set(k, v)
		}
		return &http.Response{Header: h}
	}

	cases := []struct {
		name string
		resp *http.Response
		url  string
		want bool
	}{
		{"icy stream", response(map[string]string{"icy-metaint": "16000"}), "http://radio.example.com/stream", false},
		{"icy stream with pls suffix", response(map[string]string{"icy-name": "x"}), "http://radio.example.com/listen.pls", false},
		{"pls content type", response(map[string]string{"Content-Type": "audio/x-scpls"}), "http://radio.example.com/listen", true},
		{"m3u content type", response(map[string]string{"Content-Type": "audio/x-mpegurl"}), "http://radio.example.com/listen", true},
		{"pls suffix", response(nil), "http://radio.example.com/listen.pls", true},
		{"m3u suffix with query", response(nil), "http://radio.example.com/listen.M3U?sid=1", true},
		{"hls manifest", response(nil), "http://radio.example.com/playlist.m3u8", false},
		{"plain stream", response(map[string]string{"Content-Type": "audio/mpeg"}), "http://radio.example.com/stream", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isPlaylist(tc.resp, tc.url))
		})
	}
}

func TestResolvePrefersFirstEntry(t *testing.T) {
	pls := "[playlist]\nFile1=http://radio.example.com/a\nFile2=http://radio.example.com/b\n"
	url, err := resolve(strings.NewReader(pls))
	require.NoError(t, err)
	assert.Equal(t, "http://radio.example.com/a", url)
}
