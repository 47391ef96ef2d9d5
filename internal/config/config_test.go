package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://gym.db")
	t.Setenv("ALLOWED_EMAILS", " A@x.com, b@x.com ,,")
	t.Setenv("DEFAULT_PACK_SESSIONS", "12")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DefaultPackSessions != 12 {
		t.Errorf("DefaultPackSessions = %d; want 12", cfg.DefaultPackSessions)
	}
	if cfg.Auth.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v; want 2h", cfg.Auth.SessionTTL)
	}
	if cfg.DB.MaxOpenConns != 100 {
		t.Errorf("MaxOpenConns = %d; want fallback 100", cfg.DB.MaxOpenConns)
	}
	if len(cfg.Auth.AllowedEmails) != 2 || cfg.Auth.AllowedEmails[0] != "a@x.com" {
		t.Errorf("AllowedEmails = %v", cfg.Auth.AllowedEmails)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestAllowsEmail(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		email   string
		want    bool
	}{
		{name: "empty allowlist admits everyone", allowed: nil, email: "anyone@x.com", want: true},
		{name: "listed email", allowed: []string{"a@x.com"}, email: "a@x.com", want: true},
		{name: "case and whitespace are ignored", allowed: []string{"a@x.com"}, email: "  A@X.com", want: true},
		{name: "unlisted email", allowed: []string{"a@x.com"}, email: "b@x.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Auth: AuthConfig{AllowedEmails: tt.allowed}}
			if got := cfg.AllowsEmail(tt.email); got != tt.want {
				t.Errorf("AllowsEmail(%q) = %v; want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestDriverName(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@localhost/gym":        "postgres",
		"postgresql://u:p@localhost/gym":      "postgres",
		"mysql://u:p@tcp(localhost:3306)/gym": "mysql",
		"sqlite://./gym.db":                   "sqlite",
		"file:gym.db?cache=shared":            "sqlite",
		"redis://localhost":                   "",
	}
	for url, want := range tests {
		if got := DriverName(url); got != want {
			t.Errorf("DriverName(%q) = %q; want %q", url, got, want)
		}
	}
}
