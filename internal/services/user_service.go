package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gym_tracker_echo/internal/models"
)

// Identity is what the identity provider tells us about a signed-in person
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	FullName      string
	AvatarURL     string
}

// UserService keeps local user rows in step with the identity provider
type UserService struct {
	db  *gorm.DB
	log *zap.Logger
	// allow gates sign-in by email. nil admits everyone.
	allow func(email string) bool
	now   func() time.Time
}

func NewUserService(db *gorm.DB, log *zap.Logger, allow func(email string) bool) *UserService {
	return &UserService{
		db:    db,
		log:   log,
		allow: allow,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// UpsertIdentity creates or refreshes the user for a verified identity and links
// any shared packs that were bought for this email before the first sign-in
func (s *UserService) UpsertIdentity(ctx context.Context, id Identity) (*models.User, error) {
	if strings.TrimSpace(id.Subject) == "" {
		return nil, fmt.Errorf("%w: identity subject is required", ErrValidation)
	}
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if s.allow != nil && !s.allow(email) {
		return nil, ErrEmailNotAllowed
	}

	var user models.User
	var linked int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("external_subject_id = ?", id.Subject).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				ExternalSubjectID: id.Subject,
				Role:              models.UserRoleClient,
				IsActive:          true,
			}
		case err != nil:
			return err
		}

		// Keep what we had when the provider leaves a claim out
		if email != "" {
			user.Email = email
		}
		if id.FullName != "" {
			user.FullName = id.FullName
		}
		if id.AvatarURL != "" {
			user.AvatarURL = id.AvatarURL
		}
		user.EmailVerified = user.EmailVerified || id.EmailVerified
		user.LastLoginAt = s.now()

		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		if user.Email == "" {
			return nil
		}
		res := tx.Model(&models.Purchase{}).
			Where("LOWER(partner_email) = ? AND partner_user_id IS NULL", user.Email).
			Where("(logged_by_user_id IS NULL OR logged_by_user_id <> ?)", user.ID).
			UpdateColumn("partner_user_id", user.ID)
		linked = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return nil, err
	}

	if linked > 0 {
		s.log.Info("Linked shared packs to user",
			zap.Uint("user_id", user.ID),
			zap.Int64("purchases", linked),
		)
	}
	return &user, nil
}

// Get returns the user with the given id
func (s *UserService) Get(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// GetBySubject returns the user for an identity provider subject
func (s *UserService) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("external_subject_id = ?", subject).First(&user).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// FindByEmail looks a user up by email, ignoring case
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findByEmail(s.db.WithContext(ctx), email)
}

func (s *UserService) findByEmail(tx *gorm.DB, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}

	var user models.User
	if err := tx.Where("LOWER(email) = ?", email).Order("id").First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// SetRole changes the role of the user with the given email
func (s *UserService) SetRole(ctx context.Context, email string, role models.UserRole) (*models.User, error) {
	if role != models.UserRoleAdmin && role != models.UserRoleClient {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
