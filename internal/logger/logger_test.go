package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddlewareLogsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	e := echo.New()
	e.Use(Middleware(base))
	e.GET("/ping", func(c echo.Context) error {
		if FromEcho(c) == zap.L() {
			t.Error("handler got the global logger; want the request logger")
		}
		return echo.NewHTTPError(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	entries := logs.FilterMessage("HTTP Request").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d request lines; want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-1" || fields["status"] != int64(http.StatusTeapot) || fields["path"] != "/ping" {
		t.Errorf("fields = %v", fields)
	}
}

func TestInitLogger(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		log, err := InitLogger(LogConfig{Level: "bogus", Environment: env, ServiceName: "test"})
		if err != nil {
			t.Fatalf("%s: %v", env, err)
		}
		if !log.Core().Enabled(zap.InfoLevel) || log.Core().Enabled(zap.DebugLevel) {
			t.Errorf("%s: unknown level should fall back to info", env)
		}
	}
}
