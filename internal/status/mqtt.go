package status

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/philtems/colorwarm/pkg/mqtt"
)

// MQTTSink publishes each snapshot as retained JSON on the host's status topic
type MQTTSink struct {
	client mqtt.Client
	topic  string
}

// NewMQTTSink creates an MQTT sink on a connected client
func NewMQTTSink(client mqtt.Client, host string) *MQTTSink {
	return &MQTTSink{client: client, topic: mqtt.StatusTopic(host)}
}

// Name implements Sink
func (m *MQTTSink) Name() string { return "mqtt" }

// Publish implements Sink
func (m *MQTTSink) Publish(_ context.Context, s Snapshot) error {
	if !m.client.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	return m.client.Publish(m.topic, 0, true, payload)
}

// Close implements Sink
func (m *MQTTSink) Close() error {
	m.client.Disconnect()
	return nil
}
