package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"gym_tracker_echo/internal/services"
)

type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// CreateSessionRequest is the body of POST /sessions
type CreateSessionRequest struct {
	DurationMinutes int    `json:"duration_minutes"`
	Trainer         string `json:"trainer"`
	NumPeople       int    `json:"num_people"`
	PartnerEmail    string `json:"partner_email"`
	SessionDate     string `json:"session_date"`
}

// UpdateSessionRequest is the body of PATCH /sessions/:id. Omitted fields are kept.
type UpdateSessionRequest struct {
	DurationMinutes *int    `json:"duration_minutes"`
	Trainer         *string `json:"trainer"`
	SessionDate     *string `json:"session_date"`
}

// CreateSession logs a session against the oldest matching pack
func (h *SessionHandler) CreateSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	in := services.CreateSessionInput{
		DurationMinutes: req.DurationMinutes,
		Trainer:         req.Trainer,
		NumPeople:       req.NumPeople,
		PartnerEmail:    req.PartnerEmail,
	}
	if req.SessionDate != "" {
		t, err := parseTime(req.SessionDate, false)
		if err != nil {
			return err
		}
		in.SessionDate = &t
	}

	view, err := h.sessions.CreateSession(c.Request().Context(), currentUserID(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// ListSessions returns visible sessions, optionally between start and end
func (h *SessionHandler) ListSessions(c echo.Context) error {
	start, err := optionalTime(c, "start", false)
	if err != nil {
		return err
	}
	end, err := optionalTime(c, "end", true)
	if err != nil {
		return err
	}

	views, err := h.sessions.ListSessions(c.Request().Context(), currentUserID(c), start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// UpdateSession edits a session the user created
func (h *SessionHandler) UpdateSession(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req UpdateSessionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	upd := services.SessionUpdate{
		DurationMinutes: req.DurationMinutes,
		Trainer:         req.Trainer,
	}
	if req.SessionDate != nil {
		var t time.Time
		if t, err = parseTime(*req.SessionDate, false); err != nil {
			return err
		}
		upd.SessionDate = &t
	}

	view, err := h.sessions.EditSession(c.Request().Context(), id, currentUserID(c), upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// DeleteSession removes a session the user created
func (h *SessionHandler) DeleteSession(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.sessions.DeleteSession(c.Request().Context(), id, currentUserID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
