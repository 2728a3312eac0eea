package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enuzeas/shazamIO-TBSFM/pkg/shazam"
)

func TestGatewayClassifiesOutcomes(t *testing.T) {
	cases := []struct {
		name string
		rec  recognition
		kind OutcomeKind
	}{
		{"match", matchOf("A", "Song A", "Artist A"), OutcomeMatch},
		{"result without track", noMatch(), OutcomeNoMatch},
		{"nil result", recognition{}, OutcomeNoMatch},
		{"rejected as invalid", recognition{err: fmt.Errorf("status 429: %w", shazam.ErrRequestInvalid)}, OutcomeRateLimited},
		{"transient", recognition{err: errors.New("connection reset")}, OutcomeError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{script: []recognition{tc.rec}}
			gw := NewGateway(func() RecognitionClient { return client }, nil)

			out := gw.Recognize(context.Background(), []byte("segment"))
			assert.Equal(t, tc.kind, out.Kind)

			if tc.kind == OutcomeMatch {
				require.NotNil(t, out.Track)
				assert.Equal(t, "A", out.Track.Key)
			} else {
				assert.Nil(t, out.Track)
			}
		})
	}
}

func TestGatewayRebuildsClientOnlyWhenRejected(t *testing.T) {
	client := &fakeClient{script: []recognition{
		{err: errors.New("connection reset")},
		{err: fmt.Errorf("status 400: %w", shazam.ErrRequestInvalid)},
	}}

	built := 0
	gw := NewGateway(func() RecognitionClient {
		built++
		return client
	}, nil)
	require.Equal(t, 1, built)

	gw.Recognize(context.Background(), []byte("segment"))
	assert.Equal(t, 1, built, "transient errors must not rebuild the client")

	gw.Recognize(context.Background(), []byte("segment"))
	assert.Equal(t, 2, built, "a rejected request must rebuild the client")
}

// slowClient records the interval spent inside each call.
type slowClient struct {
	mtx       sync.Mutex
	intervals [][2]time.Time
}

func (s *slowClient) Recognize(_ context.Context, _ []byte) (*shazam.Result, error) {
	start := time.Now()
	time.Sleep(10 * time.Millisecond)
	end := time.Now()

	s.mtx.Lock()
	s.intervals = append(s.intervals, [2]time.Time{start, end})
	s.mtx.Unlock()

	return &shazam.Result{}, nil
}

func (s *slowClient) snapshot() [][2]time.Time {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := make([][2]time.Time, len(s.intervals))
	copy(out, s.intervals)
	return out
}

func TestRecognitionCallsNeverOverlap(t *testing.T) {
	client := &slowClient{}
	gw := NewGateway(func() RecognitionClient { return client }, nil)

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 5 {
				gw.Recognize(context.Background(), []byte("segment"))
			}
		}()
	}
	wg.Wait()

	intervals := client.snapshot()
	require.Len(t, intervals, 10)

	sort.Slice(intervals, func(i, j int) bool { return intervals[i][0].Before(intervals[j][0]) })
	for i := 1; i < len(intervals); i++ {
		assert.False(t, intervals[i][0].Before(intervals[i-1][1]),
			"call %d started before call %d finished", i, i-1)
	}
}
