package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}

type mqttPublication struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeMQTTClient struct {
	mqtt.Client

	err  error
	pubs []mqttPublication
}

func (f *fakeMQTTClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	b, _ := payload.([]byte)
	f.pubs = append(f.pubs, mqttPublication{topic: topic, retained: retained, payload: b})
	return &fakeToken{err: f.err}
}

func TestMQTTSinkPublishesRetained(t *testing.T) {
	client := &fakeMQTTClient{}
	s := &mqttSink{client: client, topic: "tbsfm"}

	require.NoError(t, s.PublishTrack(context.Background(), "fm", TrackDocument{"title": "Song A"}))
	require.Len(t, client.pubs, 1)
	assert.Equal(t, "tbsfm/fm/now_playing", client.pubs[0].topic)
	assert.True(t, client.pubs[0].retained)
	assert.JSONEq(t, `{"title":"Song A"}`, string(client.pubs[0].payload))

	// A clear drops the retained message via an empty payload.
	require.NoError(t, s.Clear(context.Background(), "fm"))
	require.Len(t, client.pubs, 2)
	assert.Equal(t, "tbsfm/fm/now_playing", client.pubs[1].topic)
	assert.True(t, client.pubs[1].retained)
	assert.Empty(t, client.pubs[1].payload)
}

func TestMQTTSinkSurfacesPublishFailure(t *testing.T) {
	client := &fakeMQTTClient{err: errors.New("not connected")}
	s := &mqttSink{client: client, topic: "tbsfm"}

	err := s.PublishTrack(context.Background(), "fm", TrackDocument{"title": "Song A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}
