package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gym_tracker_echo/internal/services"
)

type PurchaseHandler struct {
	purchases *services.PurchaseService
}

func NewPurchaseHandler(purchases *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

// CreatePurchaseRequest is the body of POST /purchases
type CreatePurchaseRequest struct {
	DurationMinutes int     `json:"duration_minutes"`
	Cost            float64 `json:"cost"`
	NumPeople       int     `json:"num_people"`
	PartnerEmail    string  `json:"partner_email"`
}

// UpdatePurchaseRequest is the body of PATCH /purchases/:id. Omitted fields are kept.
type UpdatePurchaseRequest struct {
	DurationMinutes   *int     `json:"duration_minutes"`
	NumPeople         *int     `json:"num_people"`
	Cost              *float64 `json:"cost"`
	TotalSessions     *int     `json:"total_sessions"`
	SessionsRemaining *int     `json:"sessions_remaining"`
	PartnerEmail      *string  `json:"partner_email"`
}

// CreatePurchase records a new pack for the signed-in user
func (h *PurchaseHandler) CreatePurchase(c echo.Context) error {
	var req CreatePurchaseRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	view, err := h.purchases.CreatePurchase(c.Request().Context(), currentUserID(c), services.CreatePurchaseInput{
		DurationMinutes: req.DurationMinutes,
		Cost:            req.Cost,
		NumPeople:       req.NumPeople,
		PartnerEmail:    req.PartnerEmail,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// ListPurchases returns the packs the user can see, newest first
func (h *PurchaseHandler) ListPurchases(c echo.Context) error {
	skip, err := parseIntQuery(c, "skip", 0)
	if err != nil {
		return err
	}
	limit, err := parseIntQuery(c, "limit", 100)
	if err != nil {
		return err
	}

	views, err := h.purchases.ListPurchases(c.Request().Context(), currentUserID(c), skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// PurchaseHistory returns packs bought between start and end
func (h *PurchaseHandler) PurchaseHistory(c echo.Context) error {
	start, err := optionalTime(c, "start", false)
	if err != nil {
		return err
	}
	end, err := optionalTime(c, "end", true)
	if err != nil {
		return err
	}

	views, err := h.purchases.PurchaseHistory(c.Request().Context(), currentUserID(c), start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// UpdatePurchase edits a pack owned by the user
func (h *PurchaseHandler) UpdatePurchase(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req UpdatePurchaseRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	view, err := h.purchases.EditPurchase(c.Request().Context(), id, currentUserID(c), services.PurchaseUpdate{
		DurationMinutes:   req.DurationMinutes,
		NumPeople:         req.NumPeople,
		Cost:              req.Cost,
		TotalSessions:     req.TotalSessions,
		SessionsRemaining: req.SessionsRemaining,
		PartnerEmail:      req.PartnerEmail,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// DeletePurchase removes a pack owned by the user and its sessions
func (h *PurchaseHandler) DeletePurchase(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.purchases.DeletePurchase(c.Request().Context(), id, currentUserID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Summary returns remaining sessions per pack kind
func (h *PurchaseHandler) Summary(c echo.Context) error {
	rows, err := h.purchases.Summary(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}
