// Package identity turns a bearer token into a canonical user record. It is
// the single authentication path shared by the REST middleware and the chat
// handshake.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/token"
)

// ErrMalformedIdentifier indicates the token's user id cannot be parsed
// into the store's identifier format.
var ErrMalformedIdentifier = errors.New("malformed user identifier")

// Resolver validates tokens and resolves the claimed user against the
// user store.
type Resolver struct {
	codec *token.Codec
	users domain.UserRepository
}

// NewResolver creates a Resolver over the given codec and user store.
func NewResolver(codec *token.Codec, users domain.UserRepository) *Resolver {
	return &Resolver{codec: codec, users: users}
}

// Resolve verifies the token, checks the claimed id's shape, and looks the
// user up. Failure kinds: token.ErrTokenExpired, token.ErrTokenInvalid,
// ErrMalformedIdentifier, domain.ErrUserNotFound. One store read, no
// mutation.
func (r *Resolver) Resolve(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := r.codec.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	if !validRecordID(claims.UserID) {
		return nil, ErrMalformedIdentifier
	}

	user, err := r.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// validRecordID checks the "table:id" shape user record ids carry on the
// wire.
func validRecordID(id string) bool {
	table, rest, ok := strings.Cut(id, ":")
	return ok && table == "user" && rest != ""
}
