package mqtt

import "context"

// Client is the subset of an MQTT client colorwarm needs
type Client interface {
	// Connect establishes a connection to the MQTT broker
	Connect(ctx context.Context) error

	// Disconnect publishes the offline availability and closes the connection
	Disconnect()

	// Subscribe subscribes to a topic with the given QoS and handler
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// Unsubscribe stops delivery for a topic
	Unsubscribe(topic string) error

	// Publish publishes a message to a topic
	Publish(topic string, qos byte, retained bool, payload []byte) error

	// IsConnected returns whether the client is currently connected
	IsConnected() bool
}

// MessageHandler is a callback function for handling incoming MQTT messages
type MessageHandler func(Message)

// Message is an incoming MQTT message
type Message interface {
	Topic() string
	Payload() []byte
}
