package chat

import (
	"time"

	"github.com/campuslink/campuslink/internal/domain"
)

// SpamNoticeError is the in-band error detail sent to a sender whose
// message was flagged by moderation.
const SpamNoticeError = "MESSAGE_IS_SPAM"

// Handshake is the single first message on a new connection, carrying
// credentials and the target room.
type Handshake struct {
	Token    string `json:"token"`
	RoomID   string `json:"room_id"`
	RoomKind string `json:"room_kind,omitempty"`
}

// Ack acknowledges a successful handshake.
type Ack struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

// UserRef is the public slice of a sender attached to history entries.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// HistoryEntry is one message of the history payload.
type HistoryEntry struct {
	MessageID string  `json:"message_id"`
	Content   string  `json:"content"`
	Timestamp string  `json:"timestamp"`
	User      UserRef `json:"user"`
}

// History is the one-shot payload replaying the room's message log to a
// newly admitted connection.
type History struct {
	Type string         `json:"type"`
	Data []HistoryEntry `json:"data"`
}

// Broadcast is the steady-state server-to-client message fan-out shape.
type Broadcast struct {
	ID        string `json:"id"`
	SenderID  string `json:"sender_id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// SpamNotice is the private rejection sent only to the offending sender.
type SpamNotice struct {
	Error string `json:"error"`
}

// newAck builds the handshake acknowledgement.
func newAck() Ack {
	return Ack{Type: "connected", Status: "ok"}
}

// newHistory maps stored history entries onto the wire shape. Timestamps go
// out as ISO-8601 UTC.
func newHistory(entries []domain.MessageWithSender) History {
	data := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		data[i] = HistoryEntry{
			MessageID: e.MessageID,
			Content:   e.Content,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			User: UserRef{
				ID:       e.Sender.ID,
				Username: e.Sender.Username,
			},
		}
	}
	return History{Type: "history", Data: data}
}
