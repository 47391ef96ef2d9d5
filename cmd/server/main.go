package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"gym_tracker_echo/internal/config"
	"gym_tracker_echo/internal/handlers"
	"gym_tracker_echo/internal/logger"
	"gym_tracker_echo/internal/metrics"
	appMiddleware "gym_tracker_echo/internal/middleware"
	"gym_tracker_echo/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	log, err := logger.InitLogger(logger.LogConfig{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		ServiceName: "gym-tracker",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting gym tracker", cfg.LogFields()...)

	// Initialize Database
	db, err := services.InitDB(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := services.AutoMigrate(db, log); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Redis is optional; reports are computed directly without it
	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Warn("Redis unavailable, report caching disabled", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// Initialize Firebase
	var provider services.IdentityProvider
	authClient, err := services.InitFirebase(cfg.Auth.FirebaseCredentialsPath)
	if err != nil {
		log.Warn("Firebase initialization failed, auth features will not work until valid credentials are provided", zap.Error(err))
	} else {
		provider = authClient
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Services
	users := services.NewUserService(db, log, cfg.AllowsEmail)
	catalog := services.NewCatalogService(db, log)
	purchases := services.NewPurchaseService(db, users, cache, m, log, cfg.DefaultPackSessions, cfg.ReportCacheTTL)
	sessions := services.NewSessionService(db, users, cache, m, log)
	reports := services.NewReportService(db, cache, log, cfg.ReportCacheTTL)

	if err := catalog.SeedDefaultTrainers(context.Background()); err != nil {
		log.Fatal("Failed to seed trainers", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Middleware
	e.Use(middleware.Recover())
	e.Use(appMiddleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(m.Middleware())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(provider, users, cfg.Auth.SessionCookieName, cfg.Auth.SessionTTL, cfg.IsProduction())
	purchaseHandler := handlers.NewPurchaseHandler(purchases)
	sessionHandler := handlers.NewSessionHandler(sessions)
	reportHandler := handlers.NewReportHandler(reports)
	catalogHandler := handlers.NewCatalogHandler(catalog)
	dashboardHandler := handlers.NewDashboardHandler(purchases, sessions)

	// Public routes
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handlers.StatusResponse{Status: "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(registry)))
	e.POST("/auth/login", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)

	// Protected routes
	protected := e.Group("")
	protected.Use(appMiddleware.RequireAuth(provider, users, cfg.Auth.SessionCookieName))
	handlers.RegisterRoutes(protected, handlers.Routes{
		Auth:      authHandler,
		Purchases: purchaseHandler,
		Sessions:  sessionHandler,
		Reports:   reportHandler,
		Catalog:   catalogHandler,
		Dashboard: dashboardHandler,
		Admin:     appMiddleware.RequireAdmin,
	})

	// Redirect root to dashboard
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusTemporaryRedirect, "/dashboard")
	})

	// Start server
	go func() {
		log.Info("Server starting", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
