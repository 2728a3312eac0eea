package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/enuzeas/shazamIO-TBSFM/pkg/shazam"
)

// RecognitionClient is the slice of the recognition API the gateway uses.
type RecognitionClient interface {
	Recognize(ctx context.Context, sample []byte) (*shazam.Result, error)
}

// OutcomeKind classifies one recognition attempt.
type OutcomeKind int

const (
	OutcomeMatch OutcomeKind = iota
	OutcomeNoMatch
	OutcomeRateLimited
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeMatch:
		return "match"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one recognition attempt. Track is set
// only for OutcomeMatch, Err only for the two failure kinds.
type Outcome struct {
	Kind  OutcomeKind
	Track *shazam.Track
	Err   error
}

// Gateway funnels every channel's recognition calls through a single slot:
// the service misbehaves under concurrent requests, so at most one call is
// in flight process-wide. The gateway also owns the client lifecycle. A
// request rejected as invalid is how upstream throttling shows up, and the
// client session may be poisoned afterwards, so the client is discarded and
// rebuilt before the next call.
type Gateway struct {
	slotWait prometheus.Observer

	mtx     sync.Mutex
	client  RecognitionClient
	rebuild func() RecognitionClient
}

// NewGateway builds a gateway around a client factory. The factory is
// invoked once up front and again after every rate-limited outcome.
func NewGateway(rebuild func() RecognitionClient, slotWait prometheus.Observer) *Gateway {
	return &Gateway{
		slotWait: slotWait,
		client:   rebuild(),
		rebuild:  rebuild,
	}
}

// Recognize submits one sample, blocking until the shared slot frees.
func (g *Gateway) Recognize(ctx context.Context, sample []byte) Outcome {
	start := time.Now()
	g.mtx.Lock()
	defer g.mtx.Unlock()

	if g.slotWait != nil {
		g.slotWait.Observe(time.Since(start).Seconds())
	}

	result, err := g.client.Recognize(ctx, sample)
	switch {
	case errors.Is(err, shazam.ErrRequestInvalid):
		g.client = g.rebuild()
		return Outcome{Kind: OutcomeRateLimited, Err: err}
	case err != nil:
		return Outcome{Kind: OutcomeError, Err: err}
	}

	if result == nil || result.Track == nil {
		return Outcome{Kind: OutcomeNoMatch}
	}

	return Outcome{Kind: OutcomeMatch, Track: result.Track}
}
