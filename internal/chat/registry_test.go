package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nullTransport satisfies Transport for registry-level tests that never
// touch the wire.
type nullTransport struct{}

func (nullTransport) Read(ctx context.Context) ([]byte, error)        { select {} }
func (nullTransport) Write(ctx context.Context, data []byte) error    { return nil }
func (nullTransport) Close(websocket.StatusCode, string) error        { return nil }

func drain(c *Client) [][]byte {
	var frames [][]byte
	for {
		select {
		case f := <-c.send:
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func roomRef(id string) domain.RoomRef {
	return domain.RoomRef{Kind: domain.RoomKindOrg, ID: id}
}

func TestRegistry_BroadcastIsolation(t *testing.T) {
	registry := NewRegistry()

	inRoom := NewClient(nullTransport{}, roomRef("room-1"))
	elsewhere := NewClient(nullTransport{}, roomRef("room-2"))
	registry.Connect(inRoom)
	registry.Connect(elsewhere)

	registry.Broadcast(roomRef("room-1"), []byte("hello"))

	require.Len(t, drain(inRoom), 1)
	assert.Empty(t, drain(elsewhere), "a broadcast to room-1 must never reach room-2")
}

func TestRegistry_DisconnectStopsDelivery(t *testing.T) {
	registry := NewRegistry()

	client := NewClient(nullTransport{}, roomRef("room-1"))
	peer := NewClient(nullTransport{}, roomRef("room-1"))
	registry.Connect(client)
	registry.Connect(peer)

	registry.Disconnect(client)
	registry.Broadcast(roomRef("room-1"), []byte("after"))

	assert.Empty(t, drain(client), "a disconnected client must be absent from subsequent fan-outs")
	assert.Len(t, drain(peer), 1)
}

func TestRegistry_EmptyRoomReclamation(t *testing.T) {
	registry := NewRegistry()

	first := NewClient(nullTransport{}, roomRef("room-1"))
	second := NewClient(nullTransport{}, roomRef("room-1"))
	registry.Connect(first)
	registry.Connect(second)
	assert.Equal(t, 1, registry.RoomCount())
	assert.Equal(t, 2, registry.Connections(roomRef("room-1")))

	registry.Disconnect(first)
	assert.Equal(t, 1, registry.RoomCount())

	registry.Disconnect(second)
	assert.Equal(t, 0, registry.RoomCount(), "the registry must hold no entry for a room with no viewers")
	assert.Equal(t, 0, registry.Connections(roomRef("room-1")))
}

func TestRegistry_DisconnectUnknownClientIsNoop(t *testing.T) {
	registry := NewRegistry()
	client := NewClient(nullTransport{}, roomRef("room-1"))

	registry.Disconnect(client)
	assert.Equal(t, 0, registry.RoomCount())
}

func TestRegistry_ConcurrentBroadcastAndChurn(t *testing.T) {
	registry := NewRegistry()
	room := roomRef("busy-room")

	stable := NewClient(nullTransport{}, room)
	registry.Connect(stable)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c := NewClient(nullTransport{}, room)
				registry.Connect(c)
				registry.Disconnect(c)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				registry.Broadcast(room, []byte("tick"))
			}
		}()
	}
	wg.Wait()

	// The stable client saw some consistent snapshot every time; exact
	// counts depend on interleaving with the send buffer, but the
	// registry itself must end in a consistent state.
	assert.Equal(t, 1, registry.Connections(room))
}

func TestClient_SendAfterCloseIsDropped(t *testing.T) {
	client := NewClient(nullTransport{}, roomRef("room-1"))

	client.CloseSend()
	client.CloseSend() // idempotent

	// Must not panic on a closed channel.
	client.SendMessage([]byte("late"))
}
