package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gym_tracker_echo/internal/logger"
	"gym_tracker_echo/internal/services"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	provider   services.IdentityProvider
	users      *services.UserService
	cookieName string
	sessionTTL time.Duration
	secure     bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(provider services.IdentityProvider, users *services.UserService, cookieName string, sessionTTL time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{
		provider:   provider,
		users:      users,
		cookieName: cookieName,
		sessionTTL: sessionTTL,
		secure:     secure,
	}
}

// HandleLogin verifies the ID token, syncs the local user and creates a session cookie
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	if h.provider == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Authentication is not configured")
	}

	// Get ID Token from Authorization Header
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
	}

	ctx := c.Request().Context()
	token, err := h.provider.VerifyIDToken(ctx, tokenString)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	user, err := h.users.UpsertIdentity(ctx, services.IdentityFromToken(token))
	if errors.Is(err, services.ErrEmailNotAllowed) {
		return echo.NewHTTPError(http.StatusForbidden, "This email is not allowed to sign in")
	}
	if err != nil {
		return err
	}
	if !user.IsActive {
		return echo.NewHTTPError(http.StatusForbidden, "This account has been disabled.")
	}

	cookieValue, err := h.provider.SessionCookie(ctx, tokenString, h.sessionTTL)
	if err != nil {
		logger.FromEcho(c).Error("Failed to create session cookie", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}

	// Set HTTP-Only Cookie
	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    cookieValue,
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})

	logger.FromEcho(c).Info("User signed in", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, user)
}

// HandleLogout clears the session cookie
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})
	return c.JSON(http.StatusOK, StatusResponse{Status: "logged out"})
}

// Me returns the signed-in user
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
