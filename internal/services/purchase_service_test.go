package services

import (
	"context"
	"errors"
	"testing"

	"gym_tracker_echo/internal/models"
)

func TestCreatePurchase(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	f.user(t, "bob")

	tests := []struct {
		name    string
		in      CreatePurchaseInput
		wantErr error
	}{
		{"solo", CreatePurchaseInput{DurationMinutes: 60, Cost: 400}, nil},
		{"shared with known partner", CreatePurchaseInput{DurationMinutes: 60, Cost: 600, NumPeople: 2, PartnerEmail: "Bob@Example.com"}, nil},
		{"shared with unknown partner", CreatePurchaseInput{DurationMinutes: 90, NumPeople: 2, PartnerEmail: "new@example.com"}, nil},
		{"zero duration", CreatePurchaseInput{DurationMinutes: 0}, ErrValidation},
		{"three people", CreatePurchaseInput{DurationMinutes: 60, NumPeople: 3}, ErrValidation},
		{"negative cost", CreatePurchaseInput{DurationMinutes: 60, Cost: -1}, ErrValidation},
		{"self as partner", CreatePurchaseInput{DurationMinutes: 60, NumPeople: 2, PartnerEmail: "alice@example.com"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := f.purchases.CreatePurchase(context.Background(), alice.ID, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v; want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if p.TotalSessions != testPackSessions || p.SessionsRemaining != testPackSessions {
				t.Errorf("sessions = %d/%d; want full pack of %d", p.SessionsRemaining, p.TotalSessions, testPackSessions)
			}
			if !p.IsOwner || p.Cost != tt.in.Cost {
				t.Errorf("owner view = %v cost %v", p.IsOwner, p.Cost)
			}
		})
	}

	var shared models.Purchase
	f.db.Where("partner_email = ?", "bob@example.com").First(&shared)
	if shared.PartnerUserID == nil {
		t.Error("known partner should be linked at purchase time")
	}
	var pending models.Purchase
	f.db.Where("partner_email = ?", "new@example.com").First(&pending)
	if pending.PartnerUserID != nil {
		t.Error("unknown partner should stay unlinked")
	}
}

func TestPartnerSeesPackWithoutCost(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	pack := f.buy(t, alice.ID, 60, 2, "bob@example.com")

	// Bob signs in after the pack was bought
	bob := f.user(t, "bob")

	views, err := f.purchases.ListPurchases(context.Background(), bob.ID, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 || views[0].ID != pack.ID {
		t.Fatalf("bob sees %+v; want the shared pack", views)
	}
	v := views[0]
	if v.IsOwner || v.Cost != 0 || v.PartnerName != "alice" {
		t.Errorf("bob's view: owner=%v cost=%v partner=%q", v.IsOwner, v.Cost, v.PartnerName)
	}

	ownerView, err := f.purchases.GetPurchase(context.Background(), pack.ID, alice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ownerView.Cost != 500 || ownerView.PartnerName != "bob" {
		t.Errorf("alice's view: cost=%v partner=%q", ownerView.Cost, ownerView.PartnerName)
	}

	carol := f.user(t, "carol")
	if _, err := f.purchases.GetPurchase(context.Background(), pack.ID, carol.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("carol get err = %v; want ErrNotFound", err)
	}
}

func TestListPurchasesPaging(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	var ids []uint
	for i := 0; i < 4; i++ {
		ids = append(ids, f.buy(t, alice.ID, 60, 1, "").ID)
	}

	page, err := f.purchases.ListPurchases(context.Background(), alice.ID, 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != ids[2] || page[1].ID != ids[1] {
		t.Errorf("page = %+v; want ids %d and %d", page, ids[2], ids[1])
	}
}

func TestEditPurchase(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	pack := f.buy(t, alice.ID, 60, 2, "bob@example.com")

	tests := []struct {
		name    string
		user    uint
		upd     PurchaseUpdate
		wantErr error
	}{
		{"remaining above total", alice.ID, PurchaseUpdate{SessionsRemaining: intPtr(testPackSessions + 1)}, ErrValidation},
		{"negative remaining", alice.ID, PurchaseUpdate{SessionsRemaining: intPtr(-1)}, ErrValidation},
		{"partner may not edit", bob.ID, PurchaseUpdate{SessionsRemaining: intPtr(1)}, ErrForbidden},
		{"owner adjusts remaining", alice.ID, PurchaseUpdate{SessionsRemaining: intPtr(1)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.purchases.EditPurchase(context.Background(), pack.ID, tt.user, tt.upd)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v; want %v", err, tt.wantErr)
			}
		})
	}
	if got := f.remaining(t, pack.ID); got != 1 {
		t.Errorf("remaining = %d; want 1", got)
	}

	// Turning the pack solo drops the partner
	solo, err := f.purchases.EditPurchase(context.Background(), pack.ID, alice.ID, PurchaseUpdate{NumPeople: intPtr(1)})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if solo.PartnerEmail != nil || solo.PartnerUserID != nil {
		t.Errorf("solo pack kept partner %v/%v", solo.PartnerEmail, solo.PartnerUserID)
	}

	_, err = f.purchases.EditPurchase(context.Background(), 9999, alice.ID, PurchaseUpdate{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing purchase err = %v; want ErrNotFound", err)
	}
}

func TestDeletePurchaseRemovesSessions(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	pack := f.buy(t, alice.ID, 60, 2, "bob@example.com")
	f.logSession(t, alice.ID, 60, 2)
	f.logSession(t, bob.ID, 60, 2)

	if err := f.purchases.DeletePurchase(context.Background(), pack.ID, bob.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("partner delete err = %v; want ErrForbidden", err)
	}
	if err := f.purchases.DeletePurchase(context.Background(), pack.ID, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var sessions, purchases int64
	f.db.Model(&models.Session{}).Count(&sessions)
	f.db.Model(&models.Purchase{}).Count(&purchases)
	if sessions != 0 || purchases != 0 {
		t.Errorf("left %d sessions and %d purchases", sessions, purchases)
	}
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	f.buy(t, alice.ID, 60, 1, "")
	f.buy(t, alice.ID, 60, 1, "")
	f.buy(t, alice.ID, 90, 2, "bob@example.com")
	f.logSession(t, alice.ID, 60, 1)

	rows, err := f.purchases.Summary(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := []SummaryRow{
		{DurationMinutes: 60, NumPeople: 1, SessionsRemaining: 2*testPackSessions - 1},
		{DurationMinutes: 90, NumPeople: 2, SessionsRemaining: testPackSessions},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v; want %+v", rows, want)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v; want %+v", i, rows[i], want[i])
		}
	}

	bobRows, _ := f.purchases.Summary(context.Background(), bob.ID)
	if len(bobRows) != 1 || bobRows[0].DurationMinutes != 90 {
		t.Errorf("bob summary = %+v; want only the shared pack", bobRows)
	}

	carol := f.user(t, "carol")
	empty, err := f.purchases.Summary(context.Background(), carol.ID)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("empty summary = %#v, %v; want empty slice", empty, err)
	}
}
