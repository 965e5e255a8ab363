package database

import (
	"context"
	"fmt"
	"slices"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// RoomStore answers the chat subsystem's storage needs for both room kinds.
// Organizations and groups carry the same embedded message log and member
// list, so one store addresses both through the room ref's kind.
type RoomStore struct {
	db *surrealdb.DB
}

// NewRoomStore creates a new RoomStore.
func NewRoomStore(db *surrealdb.DB) *RoomStore {
	return &RoomStore{db: db}
}

var _ domain.RoomRepository = (*RoomStore)(nil)

// roomDoc is the chat-relevant slice of an organization or group document.
type roomDoc struct {
	ID       *surrealmodels.RecordID `json:"id,omitempty"`
	Members  []string                `json:"members"`
	Messages []messageDoc            `json:"messages"`
}

// senderDoc is the profile projection joined onto history entries.
type senderDoc struct {
	Key      string `json:"key"`
	Username string `json:"username"`
}

// RoomExists reports whether the ref resolves to a stored document.
func (s *RoomStore) RoomExists(ctx context.Context, ref domain.RoomRef) error {
	_, err := s.fetch(ctx, ref)
	return err
}

// AppendMessage appends one message to the room's embedded log. The append
// and the existence check are a single statement, so a room deleted midway
// surfaces as ErrRoomNotFound rather than a silent no-op.
func (s *RoomStore) AppendMessage(ctx context.Context, ref domain.RoomRef, msg domain.Message) error {
	key, ok := recordKey(ref.ID, roomTable(ref.Kind))
	if !ok {
		return domain.ErrRoomNotFound
	}

	query := `
		UPDATE type::thing($tb, $key) SET
			messages += $message,
			updated_at = time::now()
		RETURN AFTER
	`
	params := map[string]any{
		"tb":      roomTable(ref.Kind),
		"key":     key,
		"message": messageToDoc(msg),
	}

	doc, err := QueryOne[roomDoc](ctx, s.db, query, params)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	if doc == nil {
		return domain.ErrRoomNotFound
	}

	return nil
}

// MessagesWithSenders returns the room's full history in stored order, each
// entry joined against the user table. A sender whose account is gone keeps
// its id but loses the username.
func (s *RoomStore) MessagesWithSenders(ctx context.Context, ref domain.RoomRef) ([]domain.MessageWithSender, error) {
	doc, err := s.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(doc.Messages) == 0 {
		return []domain.MessageWithSender{}, nil
	}

	ids := make([]string, 0, len(doc.Messages))
	for _, msg := range doc.Messages {
		if !slices.Contains(ids, msg.SenderID) {
			ids = append(ids, msg.SenderID)
		}
	}

	usernames, err := s.usernamesByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	history := make([]domain.MessageWithSender, len(doc.Messages))
	for i, msg := range doc.Messages {
		history[i] = domain.MessageWithSender{
			MessageID: msg.ID,
			Content:   msg.Content,
			Timestamp: docTime(msg.Timestamp),
			Sender: domain.MessageSender{
				ID:       msg.SenderID,
				Username: usernames[msg.SenderID],
			},
		}
	}

	return history, nil
}

// AddMember registers a username on the room's member list. array::union
// keeps the write idempotent; the RETURN BEFORE snapshot tells us whether
// the name was already there.
func (s *RoomStore) AddMember(ctx context.Context, ref domain.RoomRef, username string) error {
	key, ok := recordKey(ref.ID, roomTable(ref.Kind))
	if !ok {
		return domain.ErrRoomNotFound
	}

	query := `
		UPDATE type::thing($tb, $key) SET
			members = array::union(members, [$username]),
			updated_at = time::now()
		RETURN BEFORE
	`
	params := map[string]any{
		"tb":       roomTable(ref.Kind),
		"key":      key,
		"username": username,
	}

	before, err := QueryOne[roomDoc](ctx, s.db, query, params)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	if before == nil {
		return domain.ErrRoomNotFound
	}
	if slices.Contains(before.Members, username) {
		return domain.ErrAlreadyJoined
	}

	return nil
}

// IsMember reports whether the username is on the room's member list.
func (s *RoomStore) IsMember(ctx context.Context, ref domain.RoomRef, username string) (bool, error) {
	doc, err := s.fetch(ctx, ref)
	if err != nil {
		return false, err
	}
	return slices.Contains(doc.Members, username), nil
}

// fetch loads the chat slice of the room document, or ErrRoomNotFound.
func (s *RoomStore) fetch(ctx context.Context, ref domain.RoomRef) (*roomDoc, error) {
	key, ok := recordKey(ref.ID, roomTable(ref.Kind))
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	query := "SELECT id, members, messages FROM type::thing($tb, $key)"
	params := map[string]any{"tb": roomTable(ref.Kind), "key": key}

	doc, err := QueryOne[roomDoc](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if doc == nil || doc.ID == nil {
		return nil, domain.ErrRoomNotFound
	}

	return doc, nil
}

// usernamesByID resolves a batch of user record ids to usernames in one
// round trip.
func (s *RoomStore) usernamesByID(ctx context.Context, ids []string) (map[string]string, error) {
	query := "SELECT record::id(id) AS key, username FROM user WHERE <string>id IN $ids"
	params := map[string]any{"ids": ids}

	senders, err := Query[senderDoc](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve senders: %w", err)
	}

	usernames := make(map[string]string, len(senders))
	for _, sd := range senders {
		usernames[tableUser+":"+sd.Key] = sd.Username
	}
	return usernames, nil
}
