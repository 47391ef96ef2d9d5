package handlers

import (
	"github.com/labstack/echo/v4"

	"gym_tracker_echo/internal/services"
	"gym_tracker_echo/web/templates/pages"
	"gym_tracker_echo/web/templates/shared"
)

const recentSessionCount = 10

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	purchases *services.PurchaseService
	sessions  *services.SessionService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(purchases *services.PurchaseService, sessions *services.SessionService) *DashboardHandler {
	return &DashboardHandler{purchases: purchases, sessions: sessions}
}

// Dashboard renders the dashboard page
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	summary, err := h.purchases.Summary(ctx, userID)
	if err != nil {
		return err
	}
	recent, err := h.sessions.ListSessions(ctx, userID, nil, nil)
	if err != nil {
		return err
	}
	if len(recent) > recentSessionCount {
		recent = recent[:recentSessionCount]
	}

	// Breadcrumbs: Home > Dashboard
	breadcrumbs := []shared.Breadcrumb{
		{Title: "Home", URL: "/"},
		{Title: "Dashboard", URL: ""}, // Current page
	}

	props := pages.DashboardProps{
		Title:          "Dashboard",
		ActiveNav:      "dashboard",
		Breadcrumbs:    breadcrumbs,
		UserEmail:      getStringFromContext(c, "userEmail"),
		Summary:        summary,
		RecentSessions: recent,
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	return pages.Dashboard(props).Render(ctx, c.Response())
}
