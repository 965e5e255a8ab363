package database

import (
	"context"
	"fmt"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

// UserStore encapsulates database operations for users.
type UserStore struct {
	db *surrealdb.DB
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *surrealdb.DB) *UserStore {
	return &UserStore{db: db}
}

var _ domain.UserRepository = (*UserStore)(nil)

// credentialsDoc is the login projection: record id plus password hash.
type credentialsDoc struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// FindByID resolves a user by its record id.
func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	key, ok := recordKey(id, tableUser)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	query := "SELECT * FROM type::thing($tb, $key)"
	params := map[string]any{"tb": tableUser, "key": key}

	doc, err := QueryOne[userDoc](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if doc == nil || doc.ID == nil {
		return nil, domain.ErrUserNotFound
	}

	return doc.toDomain(), nil
}

// FindByUsername resolves a user by unique username.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := "SELECT * FROM user WHERE username = $username"
	params := map[string]any{"username": username}

	doc, err := QueryOne[userDoc](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if doc == nil {
		return nil, domain.ErrUserNotFound
	}

	return doc.toDomain(), nil
}

// Create inserts a new user after checking that neither the username nor the
// email is already registered.
func (s *UserStore) Create(ctx context.Context, user domain.NewUser) (*domain.User, error) {
	taken, err := s.usernameExists(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrUserAlreadyExists
	}

	held, err := s.emailExists(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if held {
		return nil, domain.ErrUserAlreadyExists
	}

	query := `
		CREATE user SET
			username = $username,
			first_name = $first_name,
			last_name = $last_name,
			password = $password,
			emails = [{ address: $email, verified: false }],
			created_at = time::now(),
			updated_at = time::now()
	`
	params := map[string]any{
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"password":   user.PasswordHash,
		"email":      user.Email,
	}

	doc, err := QueryOne[userDoc](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("failed to create user: empty result")
	}

	return doc.toDomain(), nil
}

// Update applies a partial update addressed by username.
func (s *UserStore) Update(ctx context.Context, username string, patch domain.UserPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	if patch.Username != nil && *patch.Username != username {
		taken, err := s.usernameExists(ctx, *patch.Username)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrUsernameTaken
		}
	}

	set := "updated_at = time::now()"
	params := map[string]any{"username": username}
	if patch.FirstName != nil {
		set += ", first_name = $first_name"
		params["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set += ", last_name = $last_name"
		params["last_name"] = *patch.LastName
	}
	if patch.Username != nil {
		set += ", username = $new_username"
		params["new_username"] = *patch.Username
	}
	if patch.PasswordHash != nil {
		set += ", password = $password"
		params["password"] = *patch.PasswordHash
	}

	query := "UPDATE user SET " + set + " WHERE username = $username RETURN AFTER"
	doc, err := QueryOne[userDoc](ctx, s.db, query, params)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if doc == nil {
		return domain.ErrUserNotFound
	}

	return nil
}

// Credentials fetches the login view by username.
func (s *UserStore) Credentials(ctx context.Context, username string) (*domain.Credentials, error) {
	query := "SELECT record::id(id) AS id, password FROM user WHERE username = $username"
	params := map[string]any{"username": username}

	doc, err := QueryOne[credentialsDoc](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if doc == nil {
		return nil, domain.ErrUserNotFound
	}

	return &domain.Credentials{
		UserID:       tableUser + ":" + doc.ID,
		PasswordHash: doc.Password,
	}, nil
}

// AddEmail appends an unverified address to the user's list. The address
// must be unclaimed across all users.
func (s *UserStore) AddEmail(ctx context.Context, username, address string) error {
	held, err := s.emailExists(ctx, address)
	if err != nil {
		return err
	}
	if held {
		return domain.ErrEmailAlreadyExists
	}

	query := `
		UPDATE user SET
			emails += { address: $address, verified: false },
			updated_at = time::now()
		WHERE username = $username
		RETURN AFTER
	`
	params := map[string]any{"username": username, "address": address}

	doc, err := QueryOne[userDoc](ctx, s.db, query, params)
	if err != nil {
		return fmt.Errorf("failed to add email: %w", err)
	}
	if doc == nil {
		return domain.ErrUserNotFound
	}

	return nil
}

// RemoveEmail deletes the address at the given position. The last remaining
// address can never be removed.
func (s *UserStore) RemoveEmail(ctx context.Context, username string, index int) error {
	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(user.Emails) {
		return domain.ErrEmailNotFound
	}
	if len(user.Emails) == 1 {
		return domain.ErrLastEmail
	}

	query := `
		UPDATE user SET
			emails = array::remove(emails, $index),
			updated_at = time::now()
		WHERE username = $username
	`
	params := map[string]any{"username": username, "index": index}

	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to remove email: %w", err)
	}

	return nil
}

// MarkEmailVerified flips the verified flag on the given address.
func (s *UserStore) MarkEmailVerified(ctx context.Context, address string) error {
	query := `
		SELECT * FROM user WHERE emails[WHERE address = $address]
	`
	params := map[string]any{"address": address}

	doc, err := QueryOne[userDoc](ctx, s.db, query, params)
	if err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}
	if doc == nil || doc.ID == nil {
		return domain.ErrEmailNotFound
	}

	emails := make([]emailDoc, len(doc.Emails))
	for i, e := range doc.Emails {
		if e.Address == address {
			e.Verified = true
		}
		emails[i] = e
	}

	update := "UPDATE $id SET emails = $emails, updated_at = time::now()"
	updateParams := map[string]any{"id": doc.ID, "emails": emails}

	if err := Execute(ctx, s.db, update, updateParams); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	return nil
}

// usernameExists reports whether any user holds the username.
func (s *UserStore) usernameExists(ctx context.Context, username string) (bool, error) {
	query := "SELECT record::id(id) AS id FROM user WHERE username = $username"
	params := map[string]any{"username": username}

	doc, err := QueryOne[credentialsDoc](ctx, s.db, query, params)
	if err != nil {
		return false, fmt.Errorf("database query failed: %w", err)
	}
	return doc != nil, nil
}

// emailExists reports whether any user, anywhere, holds the address.
func (s *UserStore) emailExists(ctx context.Context, address string) (bool, error) {
	query := "SELECT record::id(id) AS id FROM user WHERE emails[WHERE address = $address]"
	params := map[string]any{"address": address}

	doc, err := QueryOne[credentialsDoc](ctx, s.db, query, params)
	if err != nil {
		return false, fmt.Errorf("database query failed: %w", err)
	}
	return doc != nil, nil
}
