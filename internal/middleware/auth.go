package middleware

import (
	"net/http"
	"strings"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/identity"
	"github.com/labstack/echo/v4"
)

const UserContextKey = "user"

// Auth creates a middleware that protects routes that require authentication.
// It expects an "Authorization: Bearer <token>" header and resolves the token
// through the shared identity resolver.
func Auth(resolver *identity.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "NOT_AUTHENTICATED")
			}

			user, err := resolver.Resolve(c.Request().Context(), tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "INVALID_CREDENTIALS")
			}

			// Downstream handlers read the resolved user off the context.
			c.Set(UserContextKey, user)

			return next(c)
		}
	}
}

// CurrentUser fetches the user the Auth middleware stored on the context.
// It must only be called from routes behind Auth.
func CurrentUser(c echo.Context) *domain.User {
	user, _ := c.Get(UserContextKey).(*domain.User)
	return user
}
