package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/identity"
	"github.com/campuslink/campuslink/internal/moderation"
	"github.com/campuslink/campuslink/internal/token"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "chat-session-test-secret"

// fakeTransport is an in-memory Transport: the test plays the client side.
type fakeTransport struct {
	in  chan []byte
	out chan []byte

	closeOnce sync.Once
	closed    chan struct{}

	mu        sync.Mutex
	closeCode websocket.StatusCode
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:        make(chan []byte, 16),
		out:       make(chan []byte, 64),
		closed:    make(chan struct{}),
		closeCode: -1,
	}
}

func (t *fakeTransport) Read(ctx context.Context) ([]byte, error) {
	select {
	case frame := <-t.in:
		return frame, nil
	case <-t.closed:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *fakeTransport) Write(ctx context.Context, data []byte) error {
	select {
	case <-t.closed:
		return io.EOF
	default:
	}
	select {
	case t.out <- data:
		return nil
	default:
		return errors.New("test transport out buffer full")
	}
}

func (t *fakeTransport) Close(code websocket.StatusCode, reason string) error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closeCode = code
		t.mu.Unlock()
		close(t.closed)
	})
	return nil
}

func (t *fakeTransport) closedWith() websocket.StatusCode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeCode
}

// send plays a client frame into the session.
func (t *fakeTransport) send(tb testing.TB, v any) {
	tb.Helper()
	switch frame := v.(type) {
	case string:
		t.in <- []byte(frame)
	default:
		data, err := json.Marshal(v)
		require.NoError(tb, err)
		t.in <- data
	}
}

// next returns the next server frame, decoded into a generic map.
func (t *fakeTransport) next(tb testing.TB) map[string]any {
	tb.Helper()
	select {
	case frame := <-t.out:
		var decoded map[string]any
		require.NoError(tb, json.Unmarshal(frame, &decoded))
		return decoded
	case <-time.After(2 * time.Second):
		tb.Fatal("timed out waiting for a server frame")
		return nil
	}
}

func (t *fakeTransport) expectNoFrame(tb testing.TB) {
	tb.Helper()
	select {
	case frame := <-t.out:
		tb.Fatalf("expected no frame, got %s", frame)
	case <-time.After(100 * time.Millisecond):
	}
}

// fakeRooms is an in-memory RoomRepository with an injectable append
// failure.
type fakeRooms struct {
	mu        sync.Mutex
	logs      map[domain.RoomRef][]domain.Message
	usernames map[string]string
	appendErr error
}

func newFakeRooms(rooms ...domain.RoomRef) *fakeRooms {
	logs := make(map[domain.RoomRef][]domain.Message)
	for _, r := range rooms {
		logs[r] = nil
	}
	return &fakeRooms{logs: logs, usernames: make(map[string]string)}
}

func (f *fakeRooms) RoomExists(ctx context.Context, ref domain.RoomRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.logs[ref]; !ok {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (f *fakeRooms) AppendMessage(ctx context.Context, ref domain.RoomRef, msg domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	if _, ok := f.logs[ref]; !ok {
		return domain.ErrRoomNotFound
	}
	f.logs[ref] = append(f.logs[ref], msg)
	return nil
}

func (f *fakeRooms) MessagesWithSenders(ctx context.Context, ref domain.RoomRef) ([]domain.MessageWithSender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	log, ok := f.logs[ref]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	history := make([]domain.MessageWithSender, len(log))
	for i, msg := range log {
		history[i] = domain.MessageWithSender{
			MessageID: msg.ID,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
			Sender: domain.MessageSender{
				ID:       msg.SenderID,
				Username: f.usernames[msg.SenderID],
			},
		}
	}
	return history, nil
}

func (f *fakeRooms) AddMember(ctx context.Context, ref domain.RoomRef, username string) error {
	return nil
}

func (f *fakeRooms) IsMember(ctx context.Context, ref domain.RoomRef, username string) (bool, error) {
	return false, nil
}

func (f *fakeRooms) messages(ref domain.RoomRef) []domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Message(nil), f.logs[ref]...)
}

// sessionUserStore backs the identity resolver in session tests.
type sessionUserStore struct {
	domain.UserRepository
	users map[string]*domain.User
}

func (s *sessionUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

type sessionHarness struct {
	registry *Registry
	rooms    *fakeRooms
	codec    *token.Codec
	deps     SessionDeps
	room     domain.RoomRef
}

func newHarness(t *testing.T) *sessionHarness {
	t.Helper()
	codec := token.NewCodec(testSecret)
	users := &sessionUserStore{users: map[string]*domain.User{
		"user:u1": {ID: "user:u1", Username: "alice"},
		"user:u2": {ID: "user:u2", Username: "bob"},
	}}
	room := domain.RoomRef{Kind: domain.RoomKindOrg, ID: "room-1"}
	rooms := newFakeRooms(room)
	rooms.usernames["user:u1"] = "alice"
	rooms.usernames["user:u2"] = "bob"

	registry := NewRegistry()
	return &sessionHarness{
		registry: registry,
		rooms:    rooms,
		codec:    codec,
		room:     room,
		deps: SessionDeps{
			Registry:   registry,
			Resolver:   identity.NewResolver(codec, users),
			Rooms:      rooms,
			Classifier: moderation.NewWordList("spam"),
		},
	}
}

// connect runs a full successful handshake for the given user id and
// consumes the ack and history frames.
func (h *sessionHarness) connect(t *testing.T, userID string) (*fakeTransport, func()) {
	t.Helper()
	transport := newFakeTransport()
	session := NewSession(transport, h.deps)

	done := make(chan struct{})
	go func() {
		session.Run(context.Background())
		close(done)
	}()

	signed, err := h.codec.Issue(userID, time.Minute)
	require.NoError(t, err)
	transport.send(t, Handshake{Token: signed, RoomID: h.room.ID, RoomKind: "org"})

	ack := transport.next(t)
	require.Equal(t, "connected", ack["type"])
	require.Equal(t, "ok", ack["status"])

	history := transport.next(t)
	require.Equal(t, "history", history["type"])

	stop := func() {
		transport.Close(websocket.StatusNormalClosure, "")
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("session did not tear down")
		}
	}
	return transport, stop
}

func TestSession_HandshakeRejection(t *testing.T) {
	h := newHarness(t)

	expired := func() string {
		// Issue with a minimal TTL and step past it.
		signed, err := h.codec.Issue("user:u1", time.Nanosecond)
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
		return signed
	}

	valid := func(userID string) string {
		signed, err := h.codec.Issue(userID, time.Minute)
		require.NoError(t, err)
		return signed
	}

	cases := []struct {
		name      string
		handshake Handshake
	}{
		{"expired token", Handshake{Token: expired(), RoomID: "room-1"}},
		{"invalid token", Handshake{Token: "not-a-token", RoomID: "room-1"}},
		{"nonexistent user", Handshake{Token: valid("user:ghost"), RoomID: "room-1"}},
		{"malformed user id", Handshake{Token: valid("nonsense"), RoomID: "room-1"}},
		{"missing room id", Handshake{Token: valid("user:u1")}},
		{"unknown room", Handshake{Token: valid("user:u1"), RoomID: "no-such-room"}},
		{"unknown room kind", Handshake{Token: valid("user:u1"), RoomID: "room-1", RoomKind: "cabal"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transport := newFakeTransport()
			session := NewSession(transport, h.deps)

			done := make(chan struct{})
			go func() {
				session.Run(context.Background())
				close(done)
			}()

			transport.send(t, tc.handshake)

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("session did not close after handshake failure")
			}

			assert.Equal(t, websocket.StatusPolicyViolation, transport.closedWith())
			assert.Equal(t, StateClosed, session.State())
			assert.Equal(t, 0, h.registry.RoomCount(), "no registration may happen on handshake failure")
			transport.expectNoFrame(t) // no ack, no history
		})
	}
}

func TestSession_HistoryOrdering(t *testing.T) {
	h := newHarness(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"A", "B", "C"} {
		require.NoError(t, h.rooms.AppendMessage(context.Background(), h.room, domain.Message{
			ID:        content,
			SenderID:  "user:u1",
			Content:   content,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	transport := newFakeTransport()
	session := NewSession(transport, h.deps)
	done := make(chan struct{})
	go func() {
		session.Run(context.Background())
		close(done)
	}()

	signed, err := h.codec.Issue("user:u1", time.Minute)
	require.NoError(t, err)
	transport.send(t, Handshake{Token: signed, RoomID: h.room.ID})

	ack := transport.next(t)
	require.Equal(t, "connected", ack["type"])

	history := transport.next(t)
	require.Equal(t, "history", history["type"])

	data, ok := history["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 3)
	var contents []string
	for _, entry := range data {
		m := entry.(map[string]any)
		contents = append(contents, m["content"].(string))
		assert.Equal(t, "alice", m["user"].(map[string]any)["username"])
	}
	assert.Equal(t, []string{"A", "B", "C"}, contents)

	transport.Close(websocket.StatusNormalClosure, "")
	<-done
}

func TestSession_SpamShortCircuit(t *testing.T) {
	h := newHarness(t)

	sender, stopSender := h.connect(t, "user:u1")
	defer stopSender()
	peer, stopPeer := h.connect(t, "user:u2")
	defer stopPeer()

	sender.send(t, "this is spam")

	notice := sender.next(t)
	assert.Equal(t, SpamNoticeError, notice["error"])

	assert.Empty(t, h.rooms.messages(h.room), "flagged content must not be persisted")
	peer.expectNoFrame(t)

	// The session stays in Streaming: a follow-up clean message flows.
	sender.send(t, "hello again")
	followUp := sender.next(t)
	assert.Equal(t, "hello again", followUp["content"])
}

func TestSession_PersistBeforeBroadcast(t *testing.T) {
	h := newHarness(t)

	sender, stopSender := h.connect(t, "user:u1")
	_ = stopSender
	peer, stopPeer := h.connect(t, "user:u2")
	defer stopPeer()

	t.Run("accepted message is durable before fan-out", func(t *testing.T) {
		sender.send(t, "hello")

		frame := peer.next(t)
		assert.Equal(t, "hello", frame["content"])

		// By the time any peer observed the broadcast, the append must
		// have completed.
		persisted := h.rooms.messages(h.room)
		require.Len(t, persisted, 1)
		assert.Equal(t, "hello", persisted[0].Content)
	})

	t.Run("failed append broadcasts nothing and ends the session", func(t *testing.T) {
		h.rooms.mu.Lock()
		h.rooms.appendErr = domain.ErrRoomNotFound
		h.rooms.mu.Unlock()

		sender.send(t, "doomed")

		peer.expectNoFrame(t)
		assert.Eventually(t, func() bool {
			return h.registry.Connections(h.room) == 1
		}, 2*time.Second, 10*time.Millisecond, "the failed session must tear down and deregister")
	})
}

func TestSession_EndToEnd(t *testing.T) {
	h := newHarness(t)

	alice, stopAlice := h.connect(t, "user:u1")
	defer stopAlice()
	bob, stopBob := h.connect(t, "user:u2")
	defer stopBob()

	alice.send(t, "hello")

	for name, transport := range map[string]*fakeTransport{"alice": alice, "bob": bob} {
		frame := transport.next(t)
		assert.Equal(t, "user:u1", frame["sender_id"], name)
		assert.Equal(t, "alice", frame["username"], name)
		assert.Equal(t, "hello", frame["content"], name)
		assert.NotEmpty(t, frame["id"], name)
		_, err := time.Parse(time.RFC3339, frame["timestamp"].(string))
		assert.NoError(t, err, name)
	}

	persisted := h.rooms.messages(h.room)
	require.Len(t, persisted, 1)
	assert.Equal(t, "user:u1", persisted[0].SenderID)
	assert.Equal(t, "hello", persisted[0].Content)
}

func TestSession_DisconnectCleansUp(t *testing.T) {
	h := newHarness(t)

	_, stop := h.connect(t, "user:u1")
	require.Equal(t, 1, h.registry.Connections(h.room))

	stop()

	assert.Equal(t, 0, h.registry.RoomCount())
}
