package domain

import (
	"context"
	"time"
)

// EmailEntry is one address on a user's ordered email list. A user always
// keeps at least one entry; the first one is added at registration.
type EmailEntry struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
}

// User is the canonical user shape exposed by the application. The stored
// document's record id is flattened to a plain string and the password hash
// is never carried here.
type User struct {
	ID        string       `json:"user_id"`
	Username  string       `json:"username"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Emails    []EmailEntry `json:"email"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// PrimaryEmail returns the first address on the list, or "" when the
// invariant of at least one entry has been violated upstream.
func (u *User) PrimaryEmail() string {
	if len(u.Emails) == 0 {
		return ""
	}
	return u.Emails[0].Address
}

// NewUser carries the fields required to register a user. Password is the
// already-hashed credential by the time it reaches the repository.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
}

// UserPatch is a partial update of mutable user fields. Nil means
// "leave unchanged". PasswordHash carries the re-hashed credential.
type UserPatch struct {
	FirstName    *string
	LastName     *string
	Username     *string
	PasswordHash *string
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Username == nil && p.PasswordHash == nil
}

// Credentials is the login view of a user: just enough to verify a password
// and mint a token.
type Credentials struct {
	UserID       string
	PasswordHash string
}

// UserRepository defines the contract for user data storage operations.
// It lives in the domain because it's a requirement OF the domain, not
// of the database implementation.
type UserRepository interface {
	// FindByID resolves a user by record id. Returns ErrUserNotFound when
	// the id does not resolve.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByUsername resolves a user by unique username. Returns
	// ErrUserNotFound when absent.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// Create inserts a new user. Returns ErrUserAlreadyExists when the
	// username or the email is already registered.
	Create(ctx context.Context, user NewUser) (*User, error)

	// Update applies a partial update addressed by username. Returns
	// ErrUsernameTaken when the patch renames onto an existing username.
	Update(ctx context.Context, username string, patch UserPatch) error

	// Credentials fetches the login view by username. Returns
	// ErrUserNotFound when absent.
	Credentials(ctx context.Context, username string) (*Credentials, error)

	// AddEmail appends an unverified address to the user's list. Returns
	// ErrEmailAlreadyExists when any user already holds the address.
	AddEmail(ctx context.Context, username, address string) error

	// RemoveEmail deletes the address at the given position.
	RemoveEmail(ctx context.Context, username string, index int) error

	// MarkEmailVerified flips the verified flag on the given address.
	MarkEmailVerified(ctx context.Context, address string) error
}
