// Package icy reads audio from ICY/Shoutcast streams.
//
// In-band metadata blocks are read and discarded so Read returns audio
// bytes only, and no timeout is set on the stream body so a caller-bounded
// read of a few seconds works on any connection. Simple station playlists
// (.pls, .m3u) are followed one hop to the stream they name; HLS manifests
// are a different beast and go through the ffmpeg source instead.
package icy
