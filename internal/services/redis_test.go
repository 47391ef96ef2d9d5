package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// withRedis points every caching service of f at an in-memory Redis server
func withRedis(t *testing.T, f *fixture) *miniredis.Miniredis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	cache := NewRedisCacheFromClient(client)
	t.Cleanup(func() { _ = cache.Close() })

	f.purchases.cache = cache
	f.sessions.cache = cache
	f.reports.cache = cache
	return mr
}

func generationOf(t *testing.T, mr *miniredis.Miniredis) string {
	t.Helper()
	gen, err := mr.Get(ledgerGenerationKey)
	if err != nil {
		t.Fatalf("read generation: %v", err)
	}
	return gen
}

func TestCachedAggregatesFollowLedgerMutations(t *testing.T) {
	f := newFixture(t)
	mr := withRedis(t, f)
	ctx := context.Background()

	alice := f.user(t, "alice")
	pack := f.buy(t, alice.ID, 30, 1, "")
	if gen := generationOf(t, mr); gen != "1" {
		t.Fatalf("generation after purchase = %s; want 1", gen)
	}

	summary, err := f.purchases.Summary(ctx, alice.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 1 || summary[0] != (SummaryRow{30, 1, testPackSessions}) {
		t.Fatalf("summary = %+v", summary)
	}
	key := fmt.Sprintf("gym:1:summary:%d", alice.ID)
	if !mr.Exists(key) {
		t.Fatalf("summary not stored under %s; keys %v", key, mr.Keys())
	}

	// A write that skips the services is invisible until the next mutation
	f.db.Exec("UPDATE purchases SET sessions_remaining = 0 WHERE id = ?", pack.ID)
	cached, _ := f.purchases.Summary(ctx, alice.ID)
	if cached[0].SessionsRemaining != testPackSessions {
		t.Errorf("summary = %+v; want the cached row", cached)
	}
	f.db.Exec("UPDATE purchases SET sessions_remaining = ? WHERE id = ?", testPackSessions, pack.ID)

	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 31, 23, 59, 59, 0, time.UTC)
	minutes := func() int {
		t.Helper()
		rows, err := f.reports.TrainingByTrainer(ctx, alice.ID, start, end)
		if err != nil {
			t.Fatalf("trainers: %v", err)
		}
		total := 0
		for _, r := range rows {
			total += r.Minutes
		}
		return total
	}

	f.logSession(t, alice.ID, 30, 1)
	if gen := generationOf(t, mr); gen != "2" {
		t.Errorf("generation after session = %s; want 2", gen)
	}
	summary, _ = f.purchases.Summary(ctx, alice.ID)
	if summary[0].SessionsRemaining != testPackSessions-1 {
		t.Errorf("summary after session = %+v; want %d remaining", summary, testPackSessions-1)
	}
	if got := minutes(); got != 30 {
		t.Errorf("minutes = %d; want 30", got)
	}

	f.logSession(t, alice.ID, 30, 1)
	if got := minutes(); got != 60 {
		t.Errorf("minutes after second session = %d; want 60", got)
	}
	if gen := generationOf(t, mr); gen != "3" {
		t.Errorf("generation = %s; want 3", gen)
	}
}

func TestRedisOutageFallsBackToDatabase(t *testing.T) {
	f := newFixture(t)
	mr := withRedis(t, f)
	ctx := context.Background()

	alice := f.user(t, "alice")
	f.buy(t, alice.ID, 60, 1, "")
	mr.Close()

	if _, err := f.sessions.CreateSession(ctx, alice.ID, CreateSessionInput{DurationMinutes: 60, Trainer: "Rachel"}); err != nil {
		t.Fatalf("create session without redis: %v", err)
	}
	summary, err := f.purchases.Summary(ctx, alice.ID)
	if err != nil {
		t.Fatalf("summary without redis: %v", err)
	}
	if len(summary) != 1 || summary[0].SessionsRemaining != testPackSessions-1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestNilCacheIsPassThrough(t *testing.T) {
	var cache *RedisCache
	calls := 0
	for i := 0; i < 2; i++ {
		v, err := GetOrSet(cache, context.Background(), "k", time.Minute, func() (int, error) {
			calls++
			return 7, nil
		})
		if err != nil || v != 7 {
			t.Fatalf("GetOrSet = %d, %v", v, err)
		}
	}
	if calls != 2 {
		t.Errorf("calls = %d; want 2", calls)
	}
	if err := cache.Invalidate(context.Background()); err != nil {
		t.Errorf("invalidate: %v", err)
	}
}
