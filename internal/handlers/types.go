package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"gym_tracker_echo/internal/services"
)

const dateLayout = "2006-01-02"

// Helper to safely get string from context
func getStringFromContext(c echo.Context, key string) string {
	val := c.Get(key)
	if val == nil {
		return ""
	}
	strVal, ok := val.(string)
	if !ok {
		return ""
	}
	return strVal
}

func getUintFromContext(c echo.Context, key string) uint {
	val := c.Get(key)
	if val == nil {
		return 0
	}
	uintVal, ok := val.(uint)
	if !ok {
		return 0
	}
	return uintVal
}

// currentUserID is the signed-in user set by the auth middleware
func currentUserID(c echo.Context) uint {
	return getUintFromContext(c, "userID")
}

func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

func parseIntQuery(c echo.Context, name string, defaultValue int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return v, nil
}

// parseTime accepts RFC3339 timestamps and plain dates. A timestamp without a
// zone is read as UTC. endOfDay moves a plain date to its last second.
func parseTime(raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", raw, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a date", services.ErrValidation, raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// optionalTime parses a query parameter, returning nil when it is absent
func optionalTime(c echo.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(raw, endOfDay)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// reportWindow reads either a range preset or explicit start and end. With
// neither it defaults to the current month.
func reportWindow(c echo.Context, now time.Time) (time.Time, time.Time, error) {
	if preset := c.QueryParam("range"); preset != "" {
		return services.ResolveRange(preset, now)
	}

	start, err := optionalTime(c, "start", false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := optionalTime(c, "end", true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start == nil && end == nil {
		return services.ResolveRange(services.RangeCurrentMonth, now)
	}

	if end == nil {
		t := services.EndOfDay(now)
		end = &t
	}
	if start == nil {
		t := time.Time{}
		start = &t
	}
	if end.Before(*start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end is before start", services.ErrValidation)
	}
	return *start, *end, nil
}

// bindJSON decodes the body into dest, mapping decode failures to 400
func bindJSON(c echo.Context, dest interface{}) error {
	if err := c.Bind(dest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return nil
}

// StatusResponse is returned by endpoints without a resource body
type StatusResponse struct {
	Status string `json:"status"`
}
