package domain

import (
	"context"
	"fmt"
	"time"
)

// RoomKind discriminates the two document types that can host a chat room.
// Organizations and groups are structurally identical for chat purposes.
type RoomKind string

const (
	RoomKindOrg   RoomKind = "org"
	RoomKindGroup RoomKind = "group"
)

// ParseRoomKind maps the wire discriminator to a RoomKind. An empty string
// defaults to org, matching clients that predate group chat.
func ParseRoomKind(s string) (RoomKind, error) {
	switch s {
	case "", "org":
		return RoomKindOrg, nil
	case "group":
		return RoomKindGroup, nil
	default:
		return "", fmt.Errorf("unknown room kind %q", s)
	}
}

// RoomRef addresses one chat room: a kind tag plus the record id of the
// backing organization or group document.
type RoomRef struct {
	Kind RoomKind
	ID   string
}

func (r RoomRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

// Message is one entry of a room's append-only message log. Immutable once
// appended; it lives for the lifetime of its parent room document.
type Message struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageSender is the public profile slice joined onto history entries.
type MessageSender struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// MessageWithSender is one history entry: a stored message joined against
// its sender's public profile.
type MessageWithSender struct {
	MessageID string        `json:"message_id"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
	Sender    MessageSender `json:"user"`
}

// RoomRepository is the uniform store surface the chat subsystem consumes.
// Both room kinds answer through the same three operations; the kind is part
// of the address, not a branch at every call site.
type RoomRepository interface {
	// RoomExists reports ErrRoomNotFound when the ref does not resolve.
	RoomExists(ctx context.Context, ref RoomRef) error

	// AppendMessage appends one message to the room's embedded log.
	// Returns ErrRoomNotFound when the room document is gone.
	AppendMessage(ctx context.Context, ref RoomRef, msg Message) error

	// MessagesWithSenders returns the full history in stored insertion
	// order, each entry joined against the user store. Empty slice for a
	// room with no messages; ErrRoomNotFound when the room is absent.
	MessagesWithSenders(ctx context.Context, ref RoomRef) ([]MessageWithSender, error)

	// AddMember registers a username on the room's member list. Returns
	// ErrRoomNotFound or ErrAlreadyJoined.
	AddMember(ctx context.Context, ref RoomRef, username string) error

	// IsMember reports membership. Returns ErrRoomNotFound when the room
	// is absent.
	IsMember(ctx context.Context, ref RoomRef, username string) (bool, error)
}
