package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gym_tracker_echo/internal/services"
)

type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type CreateTrainerRequest struct {
	Name string `json:"name"`
}

type PackageRequest struct {
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	NumPeople       int     `json:"num_people"`
	TotalSessions   int     `json:"total_sessions"`
	PricePerSession float64 `json:"price_per_session"`
}

type UpdatePackageRequest struct {
	Name            *string  `json:"name"`
	DurationMinutes *int     `json:"duration_minutes"`
	NumPeople       *int     `json:"num_people"`
	TotalSessions   *int     `json:"total_sessions"`
	PricePerSession *float64 `json:"price_per_session"`
	IsActive        *bool    `json:"is_active"`
}

// ListTrainers returns active trainers, or all with ?all=true
func (h *CatalogHandler) ListTrainers(c echo.Context) error {
	trainers, err := h.catalog.ListTrainers(c.Request().Context(), c.QueryParam("all") != "true")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trainers)
}

func (h *CatalogHandler) CreateTrainer(c echo.Context) error {
	var req CreateTrainerRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	trainer, err := h.catalog.CreateTrainer(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, trainer)
}

func (h *CatalogHandler) DeactivateTrainer(c echo.Context) error {
	return h.setTrainerActive(c, false)
}

func (h *CatalogHandler) ActivateTrainer(c echo.Context) error {
	return h.setTrainerActive(c, true)
}

func (h *CatalogHandler) setTrainerActive(c echo.Context, active bool) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	trainer, err := h.catalog.SetTrainerActive(c.Request().Context(), id, active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trainer)
}

// ListPackages returns active package templates, or all with ?all=true
func (h *CatalogHandler) ListPackages(c echo.Context) error {
	packages, err := h.catalog.ListPackages(c.Request().Context(), c.QueryParam("all") != "true")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, packages)
}

func (h *CatalogHandler) CreatePackage(c echo.Context) error {
	var req PackageRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	pkg, err := h.catalog.CreatePackage(c.Request().Context(), services.PackageInput{
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		NumPeople:       req.NumPeople,
		TotalSessions:   req.TotalSessions,
		PricePerSession: req.PricePerSession,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pkg)
}

func (h *CatalogHandler) UpdatePackage(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req UpdatePackageRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	pkg, err := h.catalog.UpdatePackage(c.Request().Context(), id, services.PackageUpdate{
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		NumPeople:       req.NumPeople,
		TotalSessions:   req.TotalSessions,
		PricePerSession: req.PricePerSession,
		IsActive:        req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pkg)
}

// DeletePackage deactivates a package template; it is never removed
func (h *CatalogHandler) DeletePackage(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeactivatePackage(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
