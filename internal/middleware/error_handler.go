package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gym_tracker_echo/internal/logger"
	"gym_tracker_echo/internal/services"
	"gym_tracker_echo/web/templates/pages"
	"gym_tracker_echo/web/templates/shared"
)

// ErrorResponse is the JSON body of a failed API call
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusFor maps an error to the HTTP status and the message safe to show a client
func StatusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		msg, ok := he.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(he.Code)
		}
		return he.Code, msg
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrNoAvailablePack), errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again later."
	}
}

// CustomErrorHandler creates a custom error handler for Echo. API routes get a
// JSON body; page routes get the HTML error page.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, errorMessage := StatusFor(err)

	log := logger.FromEcho(c)
	if code >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
	} else {
		log.Debug("Request rejected", zap.Int("status", code), zap.Error(err))
	}

	if !wantsHTML(c) {
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		if jsonErr := c.JSON(code, ErrorResponse{Error: errorMessage}); jsonErr != nil {
			log.Error("Failed to write error response", zap.Error(jsonErr))
		}
		return
	}

	errorTitle := http.StatusText(code)
	switch code {
	case http.StatusNotFound:
		errorTitle = "Page Not Found"
	case http.StatusForbidden:
		errorTitle = "Access Denied"
	}

	props := pages.ErrorPageProps{
		Title: errorTitle,
		Breadcrumbs: []shared.Breadcrumb{
			{Title: "Home", URL: "/"},
			{Title: "Error", URL: ""},
		},
		UserEmail:    getString(c, "userEmail"),
		ErrorTitle:   errorTitle,
		ErrorMessage: errorMessage,
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	if renderErr := pages.ErrorPage(props).Render(c.Request().Context(), c.Response()); renderErr != nil {
		log.Error("Failed to render error page", zap.Error(fmt.Errorf("render: %w", renderErr)))
	}
}

// wantsHTML reports whether the request came from a browser page rather than the API
func wantsHTML(c echo.Context) bool {
	path := c.Request().URL.Path
	if path == "/" || strings.HasPrefix(path, "/dashboard") {
		return true
	}
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMETextHTML) && !strings.Contains(accept, echo.MIMEApplicationJSON)
}

func getString(c echo.Context, key string) string {
	s, _ := c.Get(key).(string)
	return s
}
