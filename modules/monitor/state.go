package monitor

// presenceStatus is what a channel last published.
type presenceStatus int

const (
	statusUnknown presenceStatus = iota // nothing published yet
	statusMusic                         // a track document is live
	statusEmpty                         // the cleared document is live
)

// channelState is one channel's dedup memory. It is owned exclusively by
// that channel's goroutine and moves only on cycles whose outcome is
// published, so a suppressed duplicate never disturbs it.
type channelState struct {
	status  presenceStatus
	lastKey string
}

// observeTrack decides whether a recognized track must be published,
// advancing the state when it must. A track without a key cannot be
// deduplicated and is always treated as new.
func (s *channelState) observeTrack(key string) bool {
	if key != "" && key == s.lastKey {
		return false
	}

	s.status = statusMusic
	if key != "" {
		s.lastKey = key
	}

	return true
}

// observeSilence decides whether a no-match outcome must clear the channel.
// Consecutive silence collapses into a single clear.
func (s *channelState) observeSilence() bool {
	if s.status == statusEmpty {
		return false
	}

	s.status = statusEmpty
	s.lastKey = ""

	return true
}
