package services

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gym_tracker_echo/internal/config"
	"gym_tracker_echo/internal/models"
)

// InitDB opens the database named by the URL and configures the connection pool
func InitDB(cfg config.DBConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("Database connection established", zap.String("driver", db.Dialector.Name()))
	return db, nil
}

// Dialector picks the GORM driver from the URL scheme
func Dialector(url string) (gorm.Dialector, error) {
	switch config.DriverName(url) {
	case "postgres":
		return postgres.Open(url), nil
	case "mysql":
		dsn := strings.TrimPrefix(url, "mysql://")
		if !strings.Contains(dsn, "parseTime=") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "parseTime=true"
		}
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(strings.TrimPrefix(url, "sqlite://")), nil
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %q", url)
	}
}

// AutoMigrate creates or updates the ledger tables
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Purchase{},
		&models.Session{},
		&models.Trainer{},
		&models.Package{},
	)
	if err != nil {
		return err
	}

	log.Info("Database migrations completed")
	return nil
}

// supportsRowLocks reports whether SELECT ... FOR UPDATE is meaningful on db
func supportsRowLocks(db *gorm.DB) bool {
	return db.Dialector.Name() != "sqlite"
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
