package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gym_tracker_echo/internal/models"
)

func TestUpsertIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.users.UpsertIdentity(ctx, Identity{
		Subject:   "sub-1",
		Email:     "Ann@Example.com",
		FullName:  "Ann",
		AvatarURL: "https://img/ann.png",
	})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if first.Email != "ann@example.com" || first.Role != models.UserRoleClient || !first.IsActive {
		t.Errorf("new user = %+v", first)
	}

	// A later login without profile claims keeps what we stored
	again, err := f.users.UpsertIdentity(ctx, Identity{Subject: "sub-1", EmailVerified: true})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if again.ID != first.ID || again.FullName != "Ann" || again.AvatarURL != "https://img/ann.png" || again.Email != "ann@example.com" {
		t.Errorf("refreshed user = %+v", again)
	}
	if !again.EmailVerified || !again.LastLoginAt.After(first.LastLoginAt) {
		t.Errorf("verified=%v last login %v -> %v", again.EmailVerified, first.LastLoginAt, again.LastLoginAt)
	}

	if _, err := f.users.UpsertIdentity(ctx, Identity{Email: "x@example.com"}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing subject err = %v; want ErrValidation", err)
	}
}

func TestUpsertIdentityAllowlist(t *testing.T) {
	f := newFixture(t)
	f.users.allow = func(email string) bool { return strings.HasSuffix(email, "@gym.test") }

	if _, err := f.users.UpsertIdentity(context.Background(), Identity{Subject: "a", Email: "coach@gym.test"}); err != nil {
		t.Errorf("allowed email: %v", err)
	}
	_, err := f.users.UpsertIdentity(context.Background(), Identity{Subject: "b", Email: "stranger@example.com"})
	if !errors.Is(err, ErrEmailNotAllowed) || !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v; want ErrEmailNotAllowed", err)
	}
}

func TestLoginLinksOnlyUnlinkedPacks(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	pending := f.buy(t, alice.ID, 60, 2, "bob@example.com")

	// A pack already linked to someone else must not be re-resolved
	other := f.user(t, "other")
	linked := f.buy(t, alice.ID, 90, 2, "other@example.com")
	f.db.Model(&models.Purchase{}).Where("id = ?", linked.ID).Update("partner_email", "bob@example.com")

	bob := f.user(t, "bob")

	var pendingPack models.Purchase
	if err := f.db.First(&pendingPack, pending.ID).Error; err != nil {
		t.Fatalf("load pending pack: %v", err)
	}
	if pendingPack.PartnerUserID == nil || *pendingPack.PartnerUserID != bob.ID {
		t.Errorf("pending pack partner = %v; want bob %d", pendingPack.PartnerUserID, bob.ID)
	}

	var linkedPack models.Purchase
	if err := f.db.First(&linkedPack, linked.ID).Error; err != nil {
		t.Fatalf("load linked pack: %v", err)
	}
	if linkedPack.PartnerUserID == nil || *linkedPack.PartnerUserID != other.ID {
		t.Errorf("linked pack partner = %v; want unchanged %d", linkedPack.PartnerUserID, other.ID)
	}
}

func TestFindByEmailAndSetRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")

	u, err := f.users.FindByEmail(ctx, "  ALICE@example.com ")
	if err != nil || u.FullName != "alice" {
		t.Fatalf("find = %+v, %v", u, err)
	}
	if _, err := f.users.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v; want ErrNotFound", err)
	}

	admin, err := f.users.SetRole(ctx, "alice@example.com", models.UserRoleAdmin)
	if err != nil || !admin.IsAdmin() {
		t.Fatalf("promote = %+v, %v", admin, err)
	}
	stored, _ := f.users.Get(ctx, admin.ID)
	if !stored.IsAdmin() {
		t.Error("role was not persisted")
	}
	if _, err := f.users.SetRole(ctx, "alice@example.com", "owner"); !errors.Is(err, ErrValidation) {
		t.Errorf("bad role err = %v; want ErrValidation", err)
	}
}
