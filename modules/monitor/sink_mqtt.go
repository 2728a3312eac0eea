package monitor

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"path"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/zachfi/zkit/pkg/util"
)

const mqttTimeout = 10 * time.Second

// MQTTConfig configures the optional MQTT sink.
type MQTTConfig struct {
	Broker   string `yaml:"broker,omitempty"`
	ClientID string `yaml:"client-id,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Topic    string `yaml:"topic,omitempty"`
}

func (cfg *MQTTConfig) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Broker, util.PrefixConfig(prefix, "broker"), "", "Broker URL, eg: tcp://localhost:1883. Empty disables the MQTT sink.")
	f.StringVar(&cfg.ClientID, util.PrefixConfig(prefix, "client-id"), "tbsfm", "Client id presented to the broker.")
	f.StringVar(&cfg.Username, util.PrefixConfig(prefix, "username"), "", "Broker username.")
	f.StringVar(&cfg.Password, util.PrefixConfig(prefix, "password"), "", "Broker password.")
	f.StringVar(&cfg.Topic, util.PrefixConfig(prefix, "topic"), "tbsfm", "Topic prefix for now playing messages.")
}

func (cfg *MQTTConfig) Enabled() bool {
	return cfg.Broker != ""
}

// mqttSink publishes each channel's current track as a retained message on
// <topic>/<channel>/now_playing, so subscribers get the latest state the
// moment they connect. A clear publishes an empty retained payload, which
// drops the retained message from the broker.
type mqttSink struct {
	client mqtt.Client
	topic  string
}

// newMQTTSink connects to the broker. An unreachable broker is not fatal:
// the paho client keeps retrying in the background and publishes fail (and
// are logged by the caller) until it gets through.
func newMQTTSink(cfg MQTTConfig, logger *slog.Logger) *mqttSink {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(mqttTimeout)

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(mqttTimeout) || token.Error() != nil {
		logger.Warn("mqtt broker not reachable yet, connecting in background", "broker", cfg.Broker, "err", token.Error())
	}

	return &mqttSink{client: client, topic: cfg.Topic}
}

func (s *mqttSink) PublishTrack(_ context.Context, channel string, doc TrackDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("mqtt: failed to encode track: %w", err)
	}

	return s.publish(channel, payload)
}

func (s *mqttSink) Clear(_ context.Context, channel string) error {
	return s.publish(channel, nil)
}

func (s *mqttSink) publish(channel string, payload []byte) error {
	topic := path.Join(s.topic, channel, "now_playing")

	token := s.client.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("mqtt: publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish to %s failed: %w", topic, err)
	}

	return nil
}

func (s *mqttSink) close() {
	s.client.Disconnect(250)
}
