package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/identity"
	"github.com/campuslink/campuslink/internal/token"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubUserStore resolves a single known user by id. The embedded interface
// panics on anything the middleware shouldn't touch.
type stubUserStore struct {
	domain.UserRepository
	user *domain.User
}

func (s *stubUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, domain.ErrUserNotFound
}

func newAuthFixture(t *testing.T) (*token.Codec, echo.MiddlewareFunc, *domain.User) {
	t.Helper()
	codec := token.NewCodec("middleware-test-secret")
	user := &domain.User{ID: "user:u1", Username: "alice"}
	resolver := identity.NewResolver(codec, &stubUserStore{user: user})
	return codec, Auth(resolver), user
}

func invoke(mw echo.MiddlewareFunc, authorization string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		user := CurrentUser(c)
		return c.String(http.StatusOK, user.Username)
	})
	return rec, handler(c)
}

func TestAuth_ValidToken(t *testing.T) {
	codec, mw, user := newAuthFixture(t)

	tokenString, err := codec.Issue(user.ID, time.Hour)
	require.NoError(t, err)

	rec, err := invoke(mw, "Bearer "+tokenString)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestAuth_MissingHeader(t *testing.T) {
	_, mw, _ := newAuthFixture(t)

	_, err := invoke(mw, "")

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.Equal(t, "NOT_AUTHENTICATED", httpErr.Message)
}

func TestAuth_WrongScheme(t *testing.T) {
	codec, mw, user := newAuthFixture(t)

	tokenString, err := codec.Issue(user.ID, time.Hour)
	require.NoError(t, err)

	_, err = invoke(mw, "Basic "+tokenString)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuth_GarbageToken(t *testing.T) {
	_, mw, _ := newAuthFixture(t)

	_, err := invoke(mw, "Bearer not-a-token")

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", httpErr.Message)
}

func TestAuth_UnknownUser(t *testing.T) {
	codec, mw, _ := newAuthFixture(t)

	tokenString, err := codec.Issue("user:gone", time.Hour)
	require.NoError(t, err)

	_, err = invoke(mw, "Bearer "+tokenString)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
