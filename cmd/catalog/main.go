package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"gym_tracker_echo/internal/config"
	"gym_tracker_echo/internal/logger"
	"gym_tracker_echo/internal/models"
	"gym_tracker_echo/internal/services"
)

func main() {
	// defined flags
	addTrainer := flag.String("add-trainer", "", "Add (or re-activate) a trainer by name")
	deactivateTrainer := flag.String("deactivate-trainer", "", "Deactivate a trainer by name")
	addPackage := flag.String("add-package", "", "Add a package template with this name")
	duration := flag.Int("duration", 0, "Package session duration in minutes (with -add-package)")
	people := flag.Int("people", 1, "Package head count, 1 or 2 (with -add-package)")
	sessions := flag.Int("sessions", 10, "Sessions in the package (with -add-package)")
	price := flag.Float64("price", 0, "Price per session (with -add-package)")
	promote := flag.String("promote", "", "Grant the admin role to the user with this email")

	flag.Parse()

	// Validation
	if *addTrainer == "" && *deactivateTrainer == "" && *addPackage == "" && *promote == "" {
		fmt.Println("Usage: catalog [-add-trainer <name>] [-deactivate-trainer <name>] [-add-package <name> -duration <min> -people <n> -sessions <n> -price <p>] [-promote <email>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}

	log, err := logger.InitLogger(logger.LogConfig{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		ServiceName: "gym-tracker-catalog",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// Init DB
	db, err := services.InitDB(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to connect DB", zap.Error(err))
	}
	if err := services.AutoMigrate(db, log); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	ctx := context.Background()
	catalog := services.NewCatalogService(db, log)
	users := services.NewUserService(db, log, nil)

	if *addTrainer != "" {
		trainer, err := catalog.CreateTrainer(ctx, *addTrainer)
		if err != nil {
			log.Fatal("Failed to add trainer", zap.Error(err))
		}
		log.Info("Trainer active", zap.Uint("trainer_id", trainer.ID), zap.String("name", trainer.Name))
	}

	if *deactivateTrainer != "" {
		trainer, err := catalog.DeactivateTrainerByName(ctx, *deactivateTrainer)
		if err != nil {
			log.Fatal("Failed to deactivate trainer", zap.Error(err))
		}
		log.Info("Trainer deactivated", zap.Uint("trainer_id", trainer.ID), zap.String("name", trainer.Name))
	}

	if *addPackage != "" {
		pkg, err := catalog.CreatePackage(ctx, services.PackageInput{
			Name:            *addPackage,
			DurationMinutes: *duration,
			NumPeople:       *people,
			TotalSessions:   *sessions,
			PricePerSession: *price,
		})
		if err != nil {
			log.Fatal("Failed to add package", zap.Error(err))
		}
		log.Info("Package added",
			zap.Uint("package_id", pkg.ID),
			zap.String("name", pkg.Name),
			zap.Float64("total_price", pkg.TotalPrice()),
		)
	}

	if *promote != "" {
		user, err := users.SetRole(ctx, *promote, models.UserRoleAdmin)
		if err != nil {
			log.Fatal("Failed to promote user", zap.Error(err))
		}
		log.Info("User promoted to admin", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	}
}
