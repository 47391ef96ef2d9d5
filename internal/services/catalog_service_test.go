package services

import (
	"context"
	"errors"
	"testing"
)

func TestSeedDefaultTrainers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := f.catalog.SeedDefaultTrainers(ctx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	trainers, err := f.catalog.ListTrainers(ctx, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(trainers) != 2 || trainers[0].Name != "Lindsay" || trainers[1].Name != "Rachel" {
		t.Errorf("trainers = %+v; want the two defaults once", trainers)
	}
}

func TestTrainerLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.catalog.CreateTrainer(ctx, "  "); !errors.Is(err, ErrValidation) {
		t.Errorf("blank name err = %v; want ErrValidation", err)
	}

	sam, err := f.catalog.CreateTrainer(ctx, " Sam ")
	if err != nil || sam.Name != "Sam" || !sam.IsActive {
		t.Fatalf("create = %+v, %v", sam, err)
	}

	if _, err := f.catalog.SetTrainerActive(ctx, sam.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	active, _ := f.catalog.ListTrainers(ctx, true)
	all, _ := f.catalog.ListTrainers(ctx, false)
	if len(active) != 0 || len(all) != 1 {
		t.Errorf("active=%d all=%d; want 0 and 1", len(active), len(all))
	}

	// Re-adding an inactive trainer brings the same row back
	again, err := f.catalog.CreateTrainer(ctx, "Sam")
	if err != nil || again.ID != sam.ID || !again.IsActive {
		t.Errorf("re-add = %+v, %v", again, err)
	}

	if _, err := f.catalog.SetTrainerActive(ctx, 4242, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing trainer err = %v; want ErrNotFound", err)
	}
	if _, err := f.catalog.DeactivateTrainerByName(ctx, "Nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing trainer by name err = %v; want ErrNotFound", err)
	}
}

func TestPackageValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      PackageInput
		wantErr error
	}{
		{"valid", PackageInput{DurationMinutes: 60, NumPeople: 1, TotalSessions: 10, PricePerSession: 45}, nil},
		{"free is fine", PackageInput{Name: "Trial", DurationMinutes: 30, NumPeople: 2, TotalSessions: 1}, nil},
		{"zero duration", PackageInput{DurationMinutes: 0, NumPeople: 1, TotalSessions: 10}, ErrValidation},
		{"zero people", PackageInput{DurationMinutes: 60, NumPeople: 0, TotalSessions: 10}, ErrValidation},
		{"three people", PackageInput{DurationMinutes: 60, NumPeople: 3, TotalSessions: 10}, ErrValidation},
		{"no sessions", PackageInput{DurationMinutes: 60, NumPeople: 1, TotalSessions: 0}, ErrValidation},
		{"negative price", PackageInput{DurationMinutes: 60, NumPeople: 1, TotalSessions: 10, PricePerSession: -5}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.CreatePackage(ctx, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v; want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPackageUpdateAndDeactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pkg, err := f.catalog.CreatePackage(ctx, PackageInput{DurationMinutes: 60, NumPeople: 1, TotalSessions: 10, PricePerSession: 40})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if pkg.Name != "10 x 60 min" || pkg.TotalPrice() != 400 {
		t.Errorf("package = %q total %v", pkg.Name, pkg.TotalPrice())
	}

	price := 50.0
	updated, err := f.catalog.UpdatePackage(ctx, pkg.ID, PackageUpdate{PricePerSession: &price})
	if err != nil || updated.PricePerSession != 50 || updated.DurationMinutes != 60 {
		t.Fatalf("update = %+v, %v", updated, err)
	}
	if _, err := f.catalog.UpdatePackage(ctx, pkg.ID, PackageUpdate{NumPeople: intPtr(5)}); !errors.Is(err, ErrValidation) {
		t.Errorf("invalid update err = %v; want ErrValidation", err)
	}

	if err := f.catalog.DeactivatePackage(ctx, pkg.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	active, _ := f.catalog.ListPackages(ctx, true)
	all, _ := f.catalog.ListPackages(ctx, false)
	if len(active) != 0 || len(all) != 1 || all[0].IsActive {
		t.Errorf("active=%d all=%+v", len(active), all)
	}

	if err := f.catalog.DeactivatePackage(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing package err = %v; want ErrNotFound", err)
	}
}
