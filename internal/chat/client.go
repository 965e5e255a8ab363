package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/coder/websocket"
)

// sendBuffer is the outbound queue depth per connection. A full buffer
// means the client is lagging; further frames are dropped rather than
// blocking fan-out to the rest of the room.
const sendBuffer = 256

// writeTimeout bounds a single frame write to a slow client.
const writeTimeout = 10 * time.Second

// Transport is the bidirectional frame channel underneath a chat
// connection. The production implementation wraps a websocket; tests
// substitute an in-memory pipe.
type Transport interface {
	// Read blocks until the next inbound frame, a disconnect, or context
	// cancellation.
	Read(ctx context.Context) ([]byte, error)
	// Write sends one outbound frame.
	Write(ctx context.Context, data []byte) error
	// Close closes the transport with the given status. Closing an
	// already-closed transport must be harmless.
	Close(code websocket.StatusCode, reason string) error
}

// Client is one live connection bound to exactly one room for its
// lifetime. The registry holds it for fan-out; its session owns the
// receive loop and teardown.
type Client struct {
	Room domain.RoomRef

	transport Transport
	send      chan []byte

	// mu guards send against concurrent close; SendMessage takes the read
	// side so fan-out from many broadcasts stays cheap.
	mu     sync.RWMutex
	closed bool
}

// NewClient wraps a transport into a registrable connection.
func NewClient(transport Transport, room domain.RoomRef) *Client {
	return &Client{
		Room:      room,
		transport: transport,
		send:      make(chan []byte, sendBuffer),
	}
}

// SendMessage queues a frame for delivery. It never blocks: frames to a
// closed or saturated connection are dropped, and the connection's own
// session is responsible for its removal from the registry.
func (c *Client) SendMessage(msg []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}

	select {
	case c.send <- msg:
	default:
		slog.Warn("Client send buffer full, dropping frame", "room", c.Room)
	}
}

// CloseSend closes the outbound queue, stopping the write pump after it
// drains. Safe to call more than once.
func (c *Client) CloseSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WritePump drains the send queue onto the transport. It returns when the
// queue is closed or a write fails. Run it on its own goroutine.
func (c *Client) WritePump() {
	for msg := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.transport.Write(ctx, msg)
		cancel()
		if err != nil {
			slog.Debug("Chat write failed, abandoning write pump", "room", c.Room, "error", err)
			return
		}
	}
}
