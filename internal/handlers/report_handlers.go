package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"gym_tracker_echo/internal/services"
)

type ReportHandler struct {
	reports *services.ReportService
	now     func() time.Time
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports, now: time.Now}
}

// ReportResponse wraps an aggregate with the window it covers
type ReportResponse struct {
	Start time.Time   `json:"start"`
	End   time.Time   `json:"end"`
	Data  interface{} `json:"data"`
}

// reportFunc adapts one typed aggregate to the shared window handling
func reportFunc[T any](h *ReportHandler, fn func(ctx context.Context, userID uint, start, end time.Time) (T, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		start, end, err := reportWindow(c, h.now())
		if err != nil {
			return err
		}
		data, err := fn(c.Request().Context(), currentUserID(c), start, end)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, ReportResponse{Start: start, End: end, Data: data})
	}
}

// Trainers reports minutes per trainer
func (h *ReportHandler) Trainers(c echo.Context) error {
	return reportFunc(h, h.reports.TrainingByTrainer)(c)
}

// Cost reports spend per pack duration
func (h *ReportHandler) Cost(c echo.Context) error {
	return reportFunc(h, h.reports.CostByDuration)(c)
}

// TotalCost reports overall spend
func (h *ReportHandler) TotalCost(c echo.Context) error {
	return reportFunc(h, h.reports.TotalCost)(c)
}

// Durations reports minutes per session duration
func (h *ReportHandler) Durations(c echo.Context) error {
	return reportFunc(h, h.reports.MinutesByDuration)(c)
}

// Partners reports minutes per training partner
func (h *ReportHandler) Partners(c echo.Context) error {
	return reportFunc(h, h.reports.MinutesByPartner)(c)
}

// Monthly reports minutes per calendar month
func (h *ReportHandler) Monthly(c echo.Context) error {
	return reportFunc(h, h.reports.MonthlyMinutes)(c)
}
