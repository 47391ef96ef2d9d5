package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// DBConfig holds database connection settings
type DBConfig struct {
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

// AuthConfig holds identity and session cookie settings
type AuthConfig struct {
	FirebaseCredentialsPath string
	SessionCookieName       string
	SessionTTL              time.Duration
	AllowedEmails           []string
}

// Config is built once at startup and shared read-only by every component
type Config struct {
	Port                string
	Env                 string
	LogLevel            string
	DB                  DBConfig
	RedisURL            string
	ReportCacheTTL      time.Duration
	Auth                AuthConfig
	DefaultPackSessions int
}

// Load reads configuration from an optional .env file and the environment
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DB: DBConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			LogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
		},
		RedisURL:       getEnv("REDIS_URL", ""),
		ReportCacheTTL: getEnvAsDuration("REPORT_CACHE_TTL", 5*time.Minute),
		Auth: AuthConfig{
			FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase-service-account.json"),
			SessionCookieName:       getEnv("SESSION_COOKIE_NAME", "gt_session"),
			SessionTTL:              getEnvAsDuration("SESSION_TTL", 5*24*time.Hour),
			AllowedEmails:           ParseEmailList(getEnv("ALLOWED_EMAILS", "")),
		},
		DefaultPackSessions: getEnvAsInt("DEFAULT_PACK_SESSIONS", 10),
	}

	if cfg.DB.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.DefaultPackSessions <= 0 {
		return nil, fmt.Errorf("DEFAULT_PACK_SESSIONS must be positive, got %d", cfg.DefaultPackSessions)
	}

	return cfg, nil
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AllowsEmail reports whether the email may sign in. An empty allowlist admits everyone.
func (c *Config) AllowsEmail(email string) bool {
	if len(c.Auth.AllowedEmails) == 0 {
		return true
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, allowed := range c.Auth.AllowedEmails {
		if allowed == email {
			return true
		}
	}
	return false
}

// LogFields returns the non-secret settings as zap fields
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Env),
		zap.String("port", c.Port),
		zap.String("db_driver", DriverName(c.DB.URL)),
		zap.Bool("redis_enabled", c.RedisURL != ""),
		zap.Int("allowed_emails", len(c.Auth.AllowedEmails)),
		zap.Int("default_pack_sessions", c.DefaultPackSessions),
	}
}

// DriverName infers the database driver from the URL scheme
func DriverName(url string) string {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(url, "mysql://"):
		return "mysql"
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		return "sqlite"
	default:
		return ""
	}
}

// ParseEmailList splits a comma separated list into trimmed, lower-cased addresses
func ParseEmailList(raw string) []string {
	var emails []string
	for _, part := range strings.Split(raw, ",") {
		email := strings.ToLower(strings.TrimSpace(part))
		if email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
