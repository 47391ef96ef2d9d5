package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gym_tracker_echo/internal/metrics"
	"gym_tracker_echo/internal/models"
)

// allocationAttempts bounds how often a lost race for the last slot of a pack
// is retried against the next eligible pack
const allocationAttempts = 3

// SessionService records sessions against packs. It owns the pack consumption
// policy: the oldest eligible pack is drained first and every decrement is undone
// when its session is deleted or moved to another pack.
type SessionService struct {
	db      *gorm.DB
	users   *UserService
	cache   *RedisCache
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewSessionService(db *gorm.DB, users *UserService, cache *RedisCache, m *metrics.Metrics, log *zap.Logger) *SessionService {
	return &SessionService{
		db:      db,
		users:   users,
		cache:   cache,
		metrics: m,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateSessionInput describes a session to record
type CreateSessionInput struct {
	DurationMinutes int
	Trainer         string
	// NumPeople selects solo or partner packs. Zero means 1.
	NumPeople int
	// PartnerEmail optionally names the partner for this session only
	PartnerEmail string
	// SessionDate defaults to now
	SessionDate *time.Time
}

// SessionUpdate is a field mask: nil fields are left untouched
type SessionUpdate struct {
	DurationMinutes *int
	Trainer         *string
	SessionDate     *time.Time
}

// Allocate returns the oldest pack visible to userID that matches the duration and
// head count and still has sessions left. It does not modify the pack.
func (s *SessionService) Allocate(ctx context.Context, durationMinutes int, userID uint, numPeople int) (*models.Purchase, error) {
	return s.allocate(s.db.WithContext(ctx), durationMinutes, userID, numPeople)
}

func (s *SessionService) allocate(tx *gorm.DB, durationMinutes int, userID uint, numPeople int) (*models.Purchase, error) {
	if numPeople <= 0 {
		numPeople = 1
	}

	q := tx.Model(&models.Purchase{}).
		Scopes(VisiblePurchases(userID)).
		Where("purchases.duration_minutes = ? AND purchases.num_people = ? AND purchases.sessions_remaining > 0", durationMinutes, numPeople).
		Order("purchases.purchase_date ASC").
		Order("purchases.id ASC")
	if supportsRowLocks(tx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var pack models.Purchase
	if err := q.First(&pack).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoAvailablePack
		}
		return nil, err
	}
	return &pack, nil
}

// consume allocates a pack and takes one session from it. The decrement is
// guarded so a concurrent consumer that emptied the pack first forces a reselect.
func (s *SessionService) consume(tx *gorm.DB, durationMinutes int, userID uint, numPeople int) (*models.Purchase, error) {
	for attempt := 0; attempt < allocationAttempts; attempt++ {
		pack, err := s.allocate(tx, durationMinutes, userID, numPeople)
		if err != nil {
			return nil, err
		}

		res := tx.Model(&models.Purchase{}).
			Where("id = ? AND sessions_remaining > 0", pack.ID).
			UpdateColumn("sessions_remaining", gorm.Expr("sessions_remaining - ?", 1))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			pack.SessionsRemaining--
			return pack, nil
		}

		s.log.Debug("Pack emptied concurrently, reselecting", zap.Uint("purchase_id", pack.ID))
	}
	return nil, ErrNoAvailablePack
}

// refund returns one session to a pack, never beyond its total
func (s *SessionService) refund(tx *gorm.DB, purchaseID uint) error {
	res := tx.Model(&models.Purchase{}).
		Where("id = ? AND sessions_remaining < total_sessions", purchaseID).
		UpdateColumn("sessions_remaining", gorm.Expr("sessions_remaining + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		s.log.Warn("Refund skipped, pack already full", zap.Uint("purchase_id", purchaseID))
	}
	return nil
}

// CreateSession consumes one session from the oldest eligible pack and records it.
// The returned view carries PurchaseExhausted when that was the pack's last session.
func (s *SessionService) CreateSession(ctx context.Context, userID uint, in CreateSessionInput) (*SessionView, error) {
	trainer := strings.TrimSpace(in.Trainer)
	if trainer == "" {
		return nil, fmt.Errorf("%w: trainer is required", ErrValidation)
	}
	if in.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	numPeople := in.NumPeople
	if numPeople == 0 {
		numPeople = 1
	}

	sessionDate := s.now()
	if in.SessionDate != nil {
		sessionDate = in.SessionDate.UTC()
	}

	var session models.Session
	var pack *models.Purchase

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		pack, err = s.consume(tx, in.DurationMinutes, userID, numPeople)
		if err != nil {
			return err
		}

		session = models.Session{
			PurchaseID:      pack.ID,
			SessionDate:     sessionDate,
			DurationMinutes: in.DurationMinutes,
			Trainer:         trainer,
			CreatedByUserID: optionalID(userID),
		}

		// Unknown partners are left unlinked rather than rejected
		if email := strings.TrimSpace(in.PartnerEmail); email != "" {
			partner, err := s.users.findByEmail(tx, email)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if partner != nil && partner.ID != userID {
				session.PartnerUserID = &partner.ID
			}
		}

		return tx.Create(&session).Error
	})
	if err != nil {
		if errors.Is(err, ErrNoAvailablePack) {
			s.metrics.AllocationFailed("create")
		}
		return nil, err
	}

	s.invalidate(ctx)
	s.metrics.SessionLogged(session.DurationMinutes, pack.Exhausted())
	s.log.Info("Session logged",
		zap.Uint("session_id", session.ID),
		zap.Uint("purchase_id", pack.ID),
		zap.Int("sessions_remaining", pack.SessionsRemaining),
	)

	return s.view(ctx, session.ID, userID)
}

// EditSession applies the update. A duration change returns the session to its
// original pack and takes it from a pack of the new duration in the same
// transaction, so either both happen or neither does.
func (s *SessionService) EditSession(ctx context.Context, sessionID, userID uint, upd SessionUpdate) (*SessionView, error) {
	var trainer string
	if upd.Trainer != nil {
		trainer = strings.TrimSpace(*upd.Trainer)
		if trainer == "" {
			return nil, fmt.Errorf("%w: trainer is required", ErrValidation)
		}
	}
	if upd.DurationMinutes != nil && *upd.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrValidation)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.Session
		if err := tx.First(&session, sessionID).Error; err != nil {
			return notFound(err, "session")
		}
		if !ownedBy(session.CreatedByUserID, userID) {
			return fmt.Errorf("%w: only the creator may edit a session", ErrForbidden)
		}

		updates := map[string]interface{}{}

		if upd.DurationMinutes != nil && *upd.DurationMinutes != session.DurationMinutes {
			var original models.Purchase
			if err := tx.First(&original, session.PurchaseID).Error; err != nil {
				return notFound(err, "purchase")
			}
			if !ownedBy(original.LoggedByUserID, userID) {
				return fmt.Errorf("%w: the session's pack belongs to someone else", ErrForbidden)
			}
			if err := s.refund(tx, original.ID); err != nil {
				return err
			}

			pack, err := s.consume(tx, *upd.DurationMinutes, userID, original.NumPeople)
			if err != nil {
				return err
			}
			updates["purchase_id"] = pack.ID
			updates["duration_minutes"] = *upd.DurationMinutes
		}
		if upd.Trainer != nil {
			updates["trainer"] = trainer
		}
		if upd.SessionDate != nil {
			updates["session_date"] = upd.SessionDate.UTC()
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&session).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, ErrNoAvailablePack) {
			s.metrics.AllocationFailed("edit")
		}
		return nil, err
	}

	s.invalidate(ctx)
	return s.view(ctx, sessionID, userID)
}

// DeleteSession removes a session created by userID. The session is returned to
// its pack only when userID also owns the pack; a partner deleting a session on
// someone else's pack leaves that pack's count as it is.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.Session
		if err := tx.Preload("Purchase").First(&session, sessionID).Error; err != nil {
			return notFound(err, "session")
		}
		if !ownedBy(session.CreatedByUserID, userID) {
			return fmt.Errorf("%w: only the creator may delete a session", ErrForbidden)
		}

		if session.Purchase != nil && ownedBy(session.Purchase.LoggedByUserID, userID) {
			if err := s.refund(tx, session.PurchaseID); err != nil {
				return err
			}
		}

		return tx.Delete(&models.Session{}, session.ID).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	s.log.Info("Session deleted", zap.Uint("session_id", sessionID))
	return nil
}

// ListSessions returns sessions visible to userID, newest first, optionally
// restricted to session dates within [start, end]
func (s *SessionService) ListSessions(ctx context.Context, userID uint, start, end *time.Time) ([]SessionView, error) {
	q := s.db.WithContext(ctx).
		Scopes(VisibleSessions(userID), loadSessionParties)
	if start != nil {
		q = q.Where("sessions.session_date >= ?", start.UTC())
	}
	if end != nil {
		q = q.Where("sessions.session_date <= ?", end.UTC())
	}

	var sessions []models.Session
	if err := q.Order("sessions.session_date DESC").Order("sessions.id DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}

	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, AnnotateSession(session, userID))
	}
	return views, nil
}

// GetSession returns one session if userID may see it
func (s *SessionService) GetSession(ctx context.Context, sessionID, userID uint) (*SessionView, error) {
	return s.view(ctx, sessionID, userID)
}

func (s *SessionService) view(ctx context.Context, sessionID, userID uint) (*SessionView, error) {
	var session models.Session
	err := s.db.WithContext(ctx).
		Scopes(VisibleSessions(userID), loadSessionParties).
		Where("sessions.id = ?", sessionID).
		First(&session).Error
	if err != nil {
		return nil, notFound(err, "session")
	}
	view := AnnotateSession(session, userID)
	return &view, nil
}

func (s *SessionService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("Failed to invalidate report cache", zap.Error(err))
	}
}

// notFound maps a missing row to ErrNotFound and passes other errors through
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
