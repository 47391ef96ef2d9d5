package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gym_tracker_echo/internal/metrics"
	"gym_tracker_echo/internal/models"
)

const testPackSessions = 3

// fixture wires every service against a private SQLite file
type fixture struct {
	db        *gorm.DB
	users     *UserService
	purchases *PurchaseService
	sessions  *SessionService
	reports   *ReportService
	catalog   *CatalogService

	mu    sync.Mutex
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ledger.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := zap.NewNop()
	if err := AutoMigrate(db, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	f := &fixture{
		db:    db,
		clock: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
	f.users = NewUserService(db, log, nil)
	f.purchases = NewPurchaseService(db, f.users, nil, m, log, testPackSessions, time.Minute)
	f.sessions = NewSessionService(db, f.users, nil, m, log)
	f.reports = NewReportService(db, nil, log, time.Minute)
	f.catalog = NewCatalogService(db, log)

	f.users.now = f.tick
	f.purchases.now = f.tick
	f.sessions.now = f.tick
	return f
}

// tick advances the shared clock by a minute so creation order is strict
func (f *fixture) tick() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.users.UpsertIdentity(context.Background(), Identity{
		Subject:  "sub-" + name,
		Email:    name + "@example.com",
		FullName: name,
	})
	if err != nil {
		t.Fatalf("upsert %s: %v", name, err)
	}
	return u
}

func (f *fixture) buy(t *testing.T, owner uint, duration, people int, partnerEmail string) *PurchaseView {
	t.Helper()
	p, err := f.purchases.CreatePurchase(context.Background(), owner, CreatePurchaseInput{
		DurationMinutes: duration,
		Cost:            500,
		NumPeople:       people,
		PartnerEmail:    partnerEmail,
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	return p
}

func (f *fixture) logSession(t *testing.T, user uint, duration, people int) *SessionView {
	t.Helper()
	s, err := f.sessions.CreateSession(context.Background(), user, CreateSessionInput{
		DurationMinutes: duration,
		Trainer:         "Rachel",
		NumPeople:       people,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func (f *fixture) remaining(t *testing.T, purchaseID uint) int {
	t.Helper()
	var p models.Purchase
	if err := f.db.First(&p, purchaseID).Error; err != nil {
		t.Fatalf("load purchase %d: %v", purchaseID, err)
	}
	return p.SessionsRemaining
}

func intPtr(v int) *int { return &v }
