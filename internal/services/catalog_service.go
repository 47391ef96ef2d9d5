package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gym_tracker_echo/internal/models"
)

// DefaultTrainers seed an empty trainer catalog
var DefaultTrainers = []string{"Rachel", "Lindsay"}

// CatalogService manages trainers and purchasable package templates
type CatalogService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCatalogService(db *gorm.DB, log *zap.Logger) *CatalogService {
	return &CatalogService{db: db, log: log}
}

// PackageInput describes a package template
type PackageInput struct {
	Name            string
	DurationMinutes int
	NumPeople       int
	TotalSessions   int
	PricePerSession float64
}

// PackageUpdate is a field mask: nil fields are left untouched
type PackageUpdate struct {
	Name            *string
	DurationMinutes *int
	NumPeople       *int
	TotalSessions   *int
	PricePerSession *float64
	IsActive        *bool
}

// SeedDefaultTrainers fills the trainer catalog when it is empty
func (s *CatalogService) SeedDefaultTrainers(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Trainer{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	trainers := make([]models.Trainer, 0, len(DefaultTrainers))
	for _, name := range DefaultTrainers {
		trainers = append(trainers, models.Trainer{Name: name, IsActive: true})
	}
	if err := s.db.WithContext(ctx).Create(&trainers).Error; err != nil {
		return err
	}

	s.log.Info("Seeded default trainers", zap.Strings("trainers", DefaultTrainers))
	return nil
}

// ListTrainers returns trainers by name
func (s *CatalogService) ListTrainers(ctx context.Context, activeOnly bool) ([]models.Trainer, error) {
	trainers := []models.Trainer{}
	q := s.db.WithContext(ctx).Order("name")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&trainers).Error; err != nil {
		return nil, err
	}
	return trainers, nil
}

// CreateTrainer adds a trainer. Adding a name that exists but was deactivated
// brings it back.
func (s *CatalogService) CreateTrainer(ctx context.Context, name string) (*models.Trainer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: trainer name is required", ErrValidation)
	}

	var trainer models.Trainer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("name = ?", name).First(&trainer).Error
		switch {
		case err == nil:
			if trainer.IsActive {
				return nil
			}
			trainer.IsActive = true
			return tx.Model(&trainer).Update("is_active", true).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			trainer = models.Trainer{Name: name, IsActive: true}
			return tx.Create(&trainer).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &trainer, nil
}

// SetTrainerActive activates or deactivates a trainer
func (s *CatalogService) SetTrainerActive(ctx context.Context, trainerID uint, active bool) (*models.Trainer, error) {
	var trainer models.Trainer
	if err := s.db.WithContext(ctx).First(&trainer, trainerID).Error; err != nil {
		return nil, notFound(err, "trainer")
	}
	if err := s.db.WithContext(ctx).Model(&trainer).Update("is_active", active).Error; err != nil {
		return nil, err
	}
	trainer.IsActive = active
	return &trainer, nil
}

// DeactivateTrainerByName is the name-keyed variant used by the admin CLI
func (s *CatalogService) DeactivateTrainerByName(ctx context.Context, name string) (*models.Trainer, error) {
	var trainer models.Trainer
	if err := s.db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).First(&trainer).Error; err != nil {
		return nil, notFound(err, "trainer")
	}
	return s.SetTrainerActive(ctx, trainer.ID, false)
}

// ListPackages returns package templates ordered by duration and head count
func (s *CatalogService) ListPackages(ctx context.Context, activeOnly bool) ([]models.Package, error) {
	packages := []models.Package{}
	q := s.db.WithContext(ctx).Order("duration_minutes").Order("num_people").Order("id")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}

// CreatePackage adds a package template
func (s *CatalogService) CreatePackage(ctx context.Context, in PackageInput) (*models.Package, error) {
	pkg := models.Package{
		Name:            strings.TrimSpace(in.Name),
		DurationMinutes: in.DurationMinutes,
		NumPeople:       in.NumPeople,
		TotalSessions:   in.TotalSessions,
		PricePerSession: in.PricePerSession,
		IsActive:        true,
	}
	if pkg.Name == "" {
		pkg.Name = defaultPackageName(pkg)
	}
	if err := validatePackage(pkg); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&pkg).Error; err != nil {
		return nil, err
	}
	s.log.Info("Package created", zap.Uint("package_id", pkg.ID), zap.String("name", pkg.Name))
	return &pkg, nil
}

// UpdatePackage applies the update to a package template
func (s *CatalogService) UpdatePackage(ctx context.Context, packageID uint, upd PackageUpdate) (*models.Package, error) {
	var pkg models.Package
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&pkg, packageID).Error; err != nil {
			return notFound(err, "package")
		}

		if upd.Name != nil {
			pkg.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.DurationMinutes != nil {
			pkg.DurationMinutes = *upd.DurationMinutes
		}
		if upd.NumPeople != nil {
			pkg.NumPeople = *upd.NumPeople
		}
		if upd.TotalSessions != nil {
			pkg.TotalSessions = *upd.TotalSessions
		}
		if upd.PricePerSession != nil {
			pkg.PricePerSession = *upd.PricePerSession
		}
		if upd.IsActive != nil {
			pkg.IsActive = *upd.IsActive
		}
		if pkg.Name == "" {
			return fmt.Errorf("%w: package name is required", ErrValidation)
		}
		if err := validatePackage(pkg); err != nil {
			return err
		}

		return tx.Model(&pkg).Select(
			"Name", "DurationMinutes", "NumPeople", "TotalSessions", "PricePerSession", "IsActive",
		).Updates(&pkg).Error
	})
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// DeactivatePackage hides a package template from the active catalog
func (s *CatalogService) DeactivatePackage(ctx context.Context, packageID uint) error {
	active := false
	_, err := s.UpdatePackage(ctx, packageID, PackageUpdate{IsActive: &active})
	return err
}

func validatePackage(p models.Package) error {
	if p.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	if p.NumPeople != 1 && p.NumPeople != 2 {
		return fmt.Errorf("%w: num_people must be 1 or 2", ErrValidation)
	}
	if p.TotalSessions <= 0 {
		return fmt.Errorf("%w: total sessions must be positive", ErrValidation)
	}
	if p.PricePerSession < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	return nil
}

func defaultPackageName(p models.Package) string {
	if p.NumPeople > 1 {
		return fmt.Sprintf("%d x %d min (shared)", p.TotalSessions, p.DurationMinutes)
	}
	return fmt.Sprintf("%d x %d min", p.TotalSessions, p.DurationMinutes)
}
