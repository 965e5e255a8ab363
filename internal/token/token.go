// Package token implements the signed, time-limited identity claim used by
// both the REST surface and the chat handshake. Pure functions over a shared
// secret; no state beyond the secret itself.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired indicates the claim's expiry instant has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates a bad signature, a malformed token, or a
	// claim missing required fields.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the decoded payload of an access token: the claimed user id
// plus the registered expiry.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Codec signs and verifies identity claims with a shared HS256 secret.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec over the given shared secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue produces a signed token embedding the user id and an absolute
// expiry of now + ttl.
func (c *Codec) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("userID is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be greater than zero")
	}

	now := time.Now().UTC()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the decoded claims.
// Fails with ErrTokenExpired past the expiry instant and ErrTokenInvalid
// for every other defect.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenInvalid
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// emailClaims is the payload of an email verification token. It carries no
// expiry, matching the one-shot verification links the platform sends.
type emailClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssueEmailToken produces a signed token embedding an email address, used
// in verification links.
func (c *Codec) IssueEmailToken(email string) (string, error) {
	if email == "" {
		return "", errors.New("email is required")
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, emailClaims{Email: email}).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign email token: %w", err)
	}
	return signed, nil
}

// VerifyEmailToken decodes a verification token back to its email address.
func (c *Codec) VerifyEmailToken(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &emailClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenInvalid
		}
		return c.secret, nil
	})
	if err != nil {
		return "", ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*emailClaims)
	if !ok || !parsed.Valid || claims.Email == "" {
		return "", ErrTokenInvalid
	}
	return claims.Email, nil
}
