package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_IssueAndVerify(t *testing.T) {
	codec := NewCodec("test-secret")

	signed, err := codec.Issue("user:alice", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user:alice", claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestCodec_Issue_Validation(t *testing.T) {
	codec := NewCodec("test-secret")

	_, err := codec.Issue("", time.Minute)
	assert.Error(t, err)

	_, err = codec.Issue("user:alice", 0)
	assert.Error(t, err)
}

func TestCodec_Verify_Expired(t *testing.T) {
	codec := NewCodec("test-secret")

	// Sign a claim whose expiry is already in the past.
	claims := Claims{
		UserID: "user:alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestCodec_Verify_Invalid(t *testing.T) {
	codec := NewCodec("test-secret")

	t.Run("garbage token", func(t *testing.T) {
		_, err := codec.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewCodec("other-secret")
		signed, err := other.Issue("user:alice", time.Minute)
		require.NoError(t, err)

		_, err = codec.Verify(signed)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("missing user id", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = codec.Verify(signed)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong signing method", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			UserID: "user:alice",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = codec.Verify(signed)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestCodec_EmailToken_RoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")

	signed, err := codec.IssueEmailToken("alice@example.com")
	require.NoError(t, err)

	email, err := codec.VerifyEmailToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	_, err = codec.VerifyEmailToken("garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
