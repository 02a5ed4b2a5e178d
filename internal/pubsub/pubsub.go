// Package pubsub is the in-process message bus connecting the WebSocket
// transport to the command gateway: client frames go in on the command topic,
// state broadcasts and direct replies come back out on the ws topics.
package pubsub

import "context"

// Message is the structure passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to.
	Topic string
	// ConnID identifies the connection the message originated from or is
	// addressed to.
	ConnID string
	// Payload contains the raw frame bytes.
	Payload []byte
	// Metadata can carry arbitrary key-value pairs for routing context.
	Metadata map[string]string
}

// Handler processes one received message. A non-nil error nacks the message.
type Handler func(ctx context.Context, msg Message) error

// Publisher is the contract for sending messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber is the contract for receiving messages from the bus.
type Subscriber interface {
	// Subscribe starts listening on the topic, processing messages with the
	// handler. Messages on one subscription are handled one at a time, in
	// order.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Topics carried by the bus.
const (
	// TopicCommands carries every inbound client frame, plus the synthetic
	// connect/disconnect frames. One subscriber drains it serially; that
	// subscription is the service's single-writer critical section.
	TopicCommands = "tracker.commands"

	// TopicBroadcast carries server events fanned out to every connection.
	TopicBroadcast = "ws.broadcast"

	// TopicDirect carries server events addressed to one connection,
	// identified by the message's ConnID.
	TopicDirect = "ws.direct"
)
