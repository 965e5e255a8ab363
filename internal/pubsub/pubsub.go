// Package pubsub is the in-process event bus. Handlers publish domain
// events; subscribers react to them without coupling the HTTP path to side
// effects like verification emails.
package pubsub

import "context"

// Topics carried on the bus.
const (
	// TopicUserRegistered fires after a successful registration. Payload:
	// UserRegistered.
	TopicUserRegistered = "users.registered"

	// TopicMessagePersisted fires after a chat message has been appended
	// to its room log. Payload: MessagePersisted.
	TopicMessagePersisted = "chat.message.persisted"
)

// UserRegistered is the payload of TopicUserRegistered.
type UserRegistered struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// MessagePersisted is the payload of TopicMessagePersisted.
type MessagePersisted struct {
	MessageID string `json:"message_id"`
	Room      string `json:"room"`
	SenderID  string `json:"sender_id"`
}

// Message is the structure passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to.
	Topic string
	// Payload contains the serialized event.
	Payload []byte
	// Metadata can contain arbitrary key-value pairs for context.
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the bus.
type Subscriber interface {
	// Subscribe starts listening to the given topic, processing messages
	// with the handler. The subscription runs until the context is
	// canceled or the bus closes.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
