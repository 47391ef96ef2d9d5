package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"gym_tracker_echo/internal/models"
	"gym_tracker_echo/internal/services"
)

// Context keys set by RequireAuth
const (
	UserIDKey = "userID"
	UserKey   = "user"
)

// RequireAuth returns a middleware that verifies the session cookie and loads the
// local user behind it
func RequireAuth(provider services.IdentityProvider, users *services.UserService, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Check if the identity provider is initialized
			if provider == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Authentication is not configured")
			}

			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue.")
			}

			token, err := provider.VerifySessionCookie(c.Request().Context(), cookie.Value)
			if err != nil {
				// Invalid session, clear cookie
				c.SetCookie(ClearedCookie(cookieName))
				return echo.NewHTTPError(http.StatusUnauthorized, "Session expired, please log in again.")
			}

			user, err := users.GetBySubject(c.Request().Context(), token.UID)
			if errors.Is(err, services.ErrNotFound) {
				c.SetCookie(ClearedCookie(cookieName))
				return echo.NewHTTPError(http.StatusUnauthorized, "Unknown account, please log in again.")
			}
			if err != nil {
				return err
			}
			if !user.IsActive {
				return echo.NewHTTPError(http.StatusForbidden, "This account has been disabled.")
			}

			// Set user info in context for downstream handlers
			c.Set(UserIDKey, user.ID)
			c.Set(UserKey, user)
			c.Set("userEmail", user.Email)
			c.Set("userUID", user.ExternalSubjectID)

			return next(c)
		}
	}
}

// RequireAdmin rejects users without the admin role. It must run after RequireAuth.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := c.Get(UserKey).(*models.User)
		if !user.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "Administrator access required.")
		}
		return next(c)
	}
}

// ClearedCookie expires the session cookie
func ClearedCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	}
}
