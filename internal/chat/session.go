package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/identity"
	"github.com/campuslink/campuslink/internal/metrics"
	"github.com/campuslink/campuslink/internal/moderation"
	"github.com/campuslink/campuslink/internal/pubsub"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// State is a chat session's lifecycle phase.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateAdmitted
	StateStreaming
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateAdmitted:
		return "admitted"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// errDisconnected marks the expected end of a session: the client went
// away. It is not an error condition for logging purposes.
var errDisconnected = errors.New("transport disconnected")

// SessionDeps are the collaborators a session needs. The registry is the
// shared process-lifetime singleton; everything else is stateless or
// externally synchronized.
type SessionDeps struct {
	Registry   *Registry
	Resolver   *identity.Resolver
	Rooms      domain.RoomRepository
	Classifier moderation.Classifier
	// Publisher is optional; when set, persisted messages emit a bus event.
	Publisher pubsub.Publisher
	// Now is the clock seam; defaults to time.Now.
	Now func() time.Time
}

// Session is the per-connection state machine tying the chat subsystem
// together: handshake, history replay, then the receive/moderate/persist/
// broadcast loop, and finally teardown.
type Session struct {
	deps      SessionDeps
	transport Transport

	state      State
	client     *Client
	user       *domain.User
	room       domain.RoomRef
	registered bool
	teardown   sync.Once
}

// NewSession creates a session over an accepted transport.
func NewSession(transport Transport, deps SessionDeps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Session{
		deps:      deps,
		transport: transport,
		state:     StateConnecting,
	}
}

// State reports the session's current phase. Meant for inspection after
// Run has returned.
func (s *Session) State() State {
	return s.state
}

// Run drives the session to completion. It returns once the session is
// closed and cleaned up, whatever path led there.
func (s *Session) Run(ctx context.Context) {
	defer s.close()

	s.state = StateAuthenticating
	if err := s.handshake(ctx); err != nil {
		metrics.HandshakeFailures.Inc()
		slog.Info("Chat handshake rejected", "reason", err)
		// One policy-violation close code for every handshake failure
		// category; the detail stays server-side.
		_ = s.transport.Close(websocket.StatusPolicyViolation, "")
		return
	}

	s.state = StateAdmitted
	if err := s.admit(ctx); err != nil {
		slog.Error("Chat admission failed", "room", s.room, "user_id", s.user.ID, "error", err)
		return
	}

	s.state = StateStreaming
	for {
		err := s.step(ctx)
		if err == nil {
			continue
		}
		if !errors.Is(err, errDisconnected) {
			slog.Error("Chat session ended abnormally", "room", s.room, "user_id", s.user.ID, "error", err)
		}
		return
	}
}

// handshake consumes the single first message, resolves the claimed
// identity, and checks the target room. Any failure is terminal for the
// connection and is never retried server-side.
func (s *Session) handshake(ctx context.Context) error {
	frame, err := s.transport.Read(ctx)
	if err != nil {
		return fmt.Errorf("read handshake: %w", err)
	}

	var hs Handshake
	if err := json.Unmarshal(frame, &hs); err != nil {
		return fmt.Errorf("decode handshake: %w", err)
	}
	if hs.RoomID == "" {
		return errors.New("handshake missing room id")
	}

	kind, err := domain.ParseRoomKind(hs.RoomKind)
	if err != nil {
		return err
	}

	user, err := s.deps.Resolver.Resolve(ctx, hs.Token)
	if err != nil {
		return err
	}

	room := domain.RoomRef{Kind: kind, ID: hs.RoomID}
	if err := s.deps.Rooms.RoomExists(ctx, room); err != nil {
		return err
	}

	s.user = user
	s.room = room
	return nil
}

// admit registers the connection, acknowledges the handshake, and replays
// the room's history in one payload.
func (s *Session) admit(ctx context.Context) error {
	s.client = NewClient(s.transport, s.room)
	s.deps.Registry.Connect(s.client)
	s.registered = true
	go s.client.WritePump()

	if err := s.sendJSON(newAck()); err != nil {
		return err
	}

	history, err := s.deps.Rooms.MessagesWithSenders(ctx, s.room)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	return s.sendJSON(newHistory(history))
}

// step performs one iteration of the streaming loop: receive, moderate,
// persist, broadcast. A nil return means "continue"; errDisconnected means
// the client went away; anything else is fatal for this session only.
func (s *Session) step(ctx context.Context) error {
	frame, err := s.transport.Read(ctx)
	if err != nil {
		if isDisconnect(err) {
			return errDisconnected
		}
		return fmt.Errorf("read message: %w", err)
	}

	content := norm.NFC.String(string(frame))

	if s.deps.Classifier.IsSpam(content) {
		metrics.MessagesRejected.Inc()
		return s.sendJSON(SpamNotice{Error: SpamNoticeError})
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		SenderID:  s.user.ID,
		Content:   content,
		Timestamp: s.deps.Now().UTC(),
	}

	// A message is broadcast only after its append succeeded; a failed
	// append (room vanished mid-session) is fatal for this session.
	if err := s.deps.Rooms.AppendMessage(ctx, s.room, msg); err != nil {
		return fmt.Errorf("persist message: %w", err)
	}
	metrics.MessagesPersisted.Inc()

	payload, err := json.Marshal(Broadcast{
		ID:        msg.ID,
		SenderID:  s.user.ID,
		Username:  s.user.Username,
		Content:   msg.Content,
		Timestamp: msg.Timestamp.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode broadcast: %w", err)
	}
	s.deps.Registry.Broadcast(s.room, payload)

	s.publishPersisted(ctx, msg)
	return nil
}

// publishPersisted emits the bus event for a stored message. Best effort:
// bus trouble never fails the session.
func (s *Session) publishPersisted(ctx context.Context, msg domain.Message) {
	if s.deps.Publisher == nil {
		return
	}
	payload, err := json.Marshal(pubsub.MessagePersisted{
		MessageID: msg.ID,
		Room:      s.room.String(),
		SenderID:  msg.SenderID,
	})
	if err != nil {
		return
	}
	if err := s.deps.Publisher.Publish(ctx, pubsub.Message{
		Topic:   pubsub.TopicMessagePersisted,
		Payload: payload,
	}); err != nil {
		slog.Warn("Failed to publish message event", "room", s.room, "error", err)
	}
}

// sendJSON queues a JSON frame to this connection only.
func (s *Session) sendJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	s.deps.Registry.SendTo(s.client, payload)
	return nil
}

// close runs the teardown exactly once regardless of which path led here:
// deregister if admission happened, stop the write pump, close the
// transport if not already closed.
func (s *Session) close() {
	s.teardown.Do(func() {
		if s.registered {
			s.deps.Registry.Disconnect(s.client)
			s.client.CloseSend()
		}
		_ = s.transport.Close(websocket.StatusNormalClosure, "")
		s.state = StateClosed
	})
}

// isDisconnect classifies transport errors that mean "the client went
// away" rather than a genuine failure.
func isDisconnect(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
		return true
	}
	// Any close frame, normal or not, ends the session the normal way.
	return websocket.CloseStatus(err) != -1
}
