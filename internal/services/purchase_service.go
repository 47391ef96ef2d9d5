package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gym_tracker_echo/internal/metrics"
	"gym_tracker_echo/internal/models"
)

// PurchaseService manages packs and their owner-side bookkeeping
type PurchaseService struct {
	db              *gorm.DB
	users           *UserService
	cache           *RedisCache
	metrics         *metrics.Metrics
	log             *zap.Logger
	defaultSessions int
	cacheTTL        time.Duration
	now             func() time.Time
}

func NewPurchaseService(db *gorm.DB, users *UserService, cache *RedisCache, m *metrics.Metrics, log *zap.Logger, defaultSessions int, cacheTTL time.Duration) *PurchaseService {
	return &PurchaseService{
		db:              db,
		users:           users,
		cache:           cache,
		metrics:         m,
		log:             log,
		defaultSessions: defaultSessions,
		cacheTTL:        cacheTTL,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// CreatePurchaseInput describes a newly bought pack. The session count is a
// business default and not chosen by the buyer.
type CreatePurchaseInput struct {
	DurationMinutes int
	Cost            float64
	NumPeople       int
	PartnerEmail    string
}

// PurchaseUpdate is a field mask: nil fields are left untouched
type PurchaseUpdate struct {
	DurationMinutes   *int
	NumPeople         *int
	Cost              *float64
	TotalSessions     *int
	SessionsRemaining *int
	PartnerEmail      *string
}

// SummaryRow is the remaining session count for one kind of pack
type SummaryRow struct {
	DurationMinutes   int `json:"duration_minutes"`
	NumPeople         int `json:"num_people"`
	SessionsRemaining int `json:"sessions_remaining"`
}

// CreatePurchase records a full pack owned by userID. A partner email is resolved
// to an existing user now; if nobody has that email yet the pack stays unlinked
// until that person signs in.
func (s *PurchaseService) CreatePurchase(ctx context.Context, userID uint, in CreatePurchaseInput) (*PurchaseView, error) {
	numPeople := in.NumPeople
	if numPeople == 0 {
		numPeople = 1
	}
	if err := validatePack(in.DurationMinutes, numPeople, in.Cost); err != nil {
		return nil, err
	}

	purchase := models.Purchase{
		DurationMinutes:   in.DurationMinutes,
		NumPeople:         numPeople,
		TotalSessions:     s.defaultSessions,
		SessionsRemaining: s.defaultSessions,
		Cost:              in.Cost,
		PurchaseDate:      s.now(),
		LoggedByUserID:    optionalID(userID),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if numPeople > 1 {
			if err := s.setPartner(tx, &purchase, userID, in.PartnerEmail); err != nil {
				return err
			}
		}
		return tx.Create(&purchase).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.metrics.PurchaseCreated(numPeople)
	s.log.Info("Purchase created",
		zap.Uint("purchase_id", purchase.ID),
		zap.Int("duration_minutes", purchase.DurationMinutes),
		zap.Int("num_people", purchase.NumPeople),
	)

	return s.view(ctx, purchase.ID, userID)
}

// setPartner stores the partner email and links the matching user, if any
func (s *PurchaseService) setPartner(tx *gorm.DB, p *models.Purchase, ownerID uint, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	p.PartnerUserID = nil
	if email == "" {
		p.PartnerEmail = nil
		return nil
	}

	partner, err := s.users.findByEmail(tx, email)
	switch {
	case err == nil:
		if partner.ID == ownerID {
			return fmt.Errorf("%w: partner must be someone other than the buyer", ErrValidation)
		}
		p.PartnerUserID = &partner.ID
	case !isNotFound(err):
		return err
	}
	p.PartnerEmail = &email
	return nil
}

// ListPurchases returns packs visible to userID, newest first
func (s *PurchaseService) ListPurchases(ctx context.Context, userID uint, skip, limit int) ([]PurchaseView, error) {
	if limit <= 0 {
		limit = 100
	}

	var purchases []models.Purchase
	err := s.db.WithContext(ctx).
		Scopes(VisiblePurchases(userID), loadPurchaseParties).
		Order("purchases.purchase_date DESC").
		Order("purchases.id DESC").
		Offset(skip).
		Limit(limit).
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return annotatePurchases(purchases, userID), nil
}

// PurchaseHistory returns packs visible to userID bought within [start, end]
func (s *PurchaseService) PurchaseHistory(ctx context.Context, userID uint, start, end *time.Time) ([]PurchaseView, error) {
	q := s.db.WithContext(ctx).Scopes(VisiblePurchases(userID), loadPurchaseParties)
	if start != nil {
		q = q.Where("purchases.purchase_date >= ?", start.UTC())
	}
	if end != nil {
		q = q.Where("purchases.purchase_date <= ?", end.UTC())
	}

	var purchases []models.Purchase
	if err := q.Order("purchases.purchase_date DESC").Order("purchases.id DESC").Find(&purchases).Error; err != nil {
		return nil, err
	}
	return annotatePurchases(purchases, userID), nil
}

// GetPurchase returns one pack if userID may see it
func (s *PurchaseService) GetPurchase(ctx context.Context, purchaseID, userID uint) (*PurchaseView, error) {
	return s.view(ctx, purchaseID, userID)
}

// EditPurchase applies the update to a pack owned by userID
func (s *PurchaseService) EditPurchase(ctx context.Context, purchaseID, userID uint, upd PurchaseUpdate) (*PurchaseView, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Purchase
		if err := tx.First(&p, purchaseID).Error; err != nil {
			return notFound(err, "purchase")
		}
		if !ownedBy(p.LoggedByUserID, userID) {
			return fmt.Errorf("%w: only the buyer may edit a purchase", ErrForbidden)
		}

		if upd.DurationMinutes != nil {
			p.DurationMinutes = *upd.DurationMinutes
		}
		if upd.NumPeople != nil {
			p.NumPeople = *upd.NumPeople
		}
		if upd.Cost != nil {
			p.Cost = *upd.Cost
		}
		if upd.TotalSessions != nil {
			p.TotalSessions = *upd.TotalSessions
		}
		if upd.SessionsRemaining != nil {
			p.SessionsRemaining = *upd.SessionsRemaining
		}
		if err := validatePack(p.DurationMinutes, p.NumPeople, p.Cost); err != nil {
			return err
		}
		if p.TotalSessions <= 0 {
			return fmt.Errorf("%w: total sessions must be positive", ErrValidation)
		}
		if p.SessionsRemaining < 0 || p.SessionsRemaining > p.TotalSessions {
			return fmt.Errorf("%w: sessions remaining must be between 0 and %d", ErrValidation, p.TotalSessions)
		}

		switch {
		case !p.IsShared():
			p.PartnerEmail = nil
			p.PartnerUserID = nil
		case upd.PartnerEmail != nil:
			if err := s.setPartner(tx, &p, userID, *upd.PartnerEmail); err != nil {
				return err
			}
		}

		return tx.Model(&p).Select(
			"DurationMinutes", "NumPeople", "Cost", "TotalSessions",
			"SessionsRemaining", "PartnerEmail", "PartnerUserID",
		).Updates(&p).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return s.view(ctx, purchaseID, userID)
}

// DeletePurchase removes a pack owned by userID together with the sessions
// drawn from it
func (s *PurchaseService) DeletePurchase(ctx context.Context, purchaseID, userID uint) error {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Purchase
		if err := tx.First(&p, purchaseID).Error; err != nil {
			return notFound(err, "purchase")
		}
		if !ownedBy(p.LoggedByUserID, userID) {
			return fmt.Errorf("%w: only the buyer may delete a purchase", ErrForbidden)
		}

		res := tx.Where("purchase_id = ?", p.ID).Delete(&models.Session{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		return tx.Delete(&models.Purchase{}, p.ID).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	s.log.Info("Purchase deleted", zap.Uint("purchase_id", purchaseID), zap.Int64("sessions_removed", removed))
	return nil
}

// Summary returns remaining sessions per duration and head count across the
// packs visible to userID
func (s *PurchaseService) Summary(ctx context.Context, userID uint) ([]SummaryRow, error) {
	key := fmt.Sprintf("summary:%d", userID)
	return GetOrSet(s.cache, ctx, key, s.cacheTTL, func() ([]SummaryRow, error) {
		rows := []SummaryRow{}
		err := s.db.WithContext(ctx).
			Model(&models.Purchase{}).
			Scopes(VisiblePurchases(userID)).
			Select("purchases.duration_minutes AS duration_minutes, purchases.num_people AS num_people, SUM(purchases.sessions_remaining) AS sessions_remaining").
			Group("purchases.duration_minutes").
			Group("purchases.num_people").
			Order("purchases.duration_minutes").
			Order("purchases.num_people").
			Scan(&rows).Error
		return rows, err
	})
}

func (s *PurchaseService) view(ctx context.Context, purchaseID, userID uint) (*PurchaseView, error) {
	var p models.Purchase
	err := s.db.WithContext(ctx).
		Scopes(VisiblePurchases(userID), loadPurchaseParties).
		Where("purchases.id = ?", purchaseID).
		First(&p).Error
	if err != nil {
		return nil, notFound(err, "purchase")
	}
	view := AnnotatePurchase(p, userID)
	return &view, nil
}

func (s *PurchaseService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("Failed to invalidate report cache", zap.Error(err))
	}
}

func annotatePurchases(purchases []models.Purchase, userID uint) []PurchaseView {
	views := make([]PurchaseView, 0, len(purchases))
	for _, p := range purchases {
		views = append(views, AnnotatePurchase(p, userID))
	}
	return views
}

func validatePack(durationMinutes, numPeople int, cost float64) error {
	if durationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	if numPeople != 1 && numPeople != 2 {
		return fmt.Errorf("%w: num_people must be 1 or 2", ErrValidation)
	}
	if cost < 0 {
		return fmt.Errorf("%w: cost cannot be negative", ErrValidation)
	}
	return nil
}
