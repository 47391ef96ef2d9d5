package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gym_tracker_echo/internal/models"
)

// Range presets offered by the history views
const (
	RangeCurrentMonth = "current_month"
	RangeLast6Months  = "last_6_months"
	RangeLast12Months = "last_12_months"
	RangeCurrentYear  = "current_year"
)

// ReportService answers read-only aggregate questions over a date window.
// Every aggregate honours the same visibility rules as the ledger listings.
type ReportService struct {
	db       *gorm.DB
	cache    *RedisCache
	log      *zap.Logger
	cacheTTL time.Duration
}

func NewReportService(db *gorm.DB, cache *RedisCache, log *zap.Logger, cacheTTL time.Duration) *ReportService {
	return &ReportService{
		db:       db,
		cache:    cache,
		log:      log,
		cacheTTL: cacheTTL,
	}
}

type TrainerMinutes struct {
	Trainer string `json:"trainer"`
	Minutes int    `json:"minutes"`
}

type DurationCost struct {
	DurationMinutes int     `json:"duration_minutes"`
	Cost            float64 `json:"cost"`
}

type DurationMinutes struct {
	DurationMinutes int `json:"duration_minutes"`
	Minutes         int `json:"minutes"`
}

type PartnerMinutes struct {
	Partner string `json:"partner"`
	Minutes int    `json:"minutes"`
}

// MonthMinutes is one calendar month of the timeline, keyed as YYYY-MM
type MonthMinutes struct {
	Month   string `json:"month"`
	Minutes int    `json:"minutes"`
}

// ResolveRange turns a preset name into a window ending with the current UTC
// day. Months start on the first day at midnight UTC. The window only moves once
// a day so cached reports keep their key.
func ResolveRange(name string, now time.Time) (time.Time, time.Time, error) {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := EndOfDay(now)

	switch name {
	case RangeCurrentMonth:
		return monthStart, end, nil
	case RangeLast6Months:
		return monthStart.AddDate(0, -5, 0), end, nil
	case RangeLast12Months:
		return monthStart.AddDate(0, -11, 0), end, nil
	case RangeCurrentYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown range %q", ErrValidation, name)
	}
}

// TrainingByTrainer sums session minutes per trainer
func (s *ReportService) TrainingByTrainer(ctx context.Context, userID uint, start, end time.Time) ([]TrainerMinutes, error) {
	return GetOrSet(s.cache, ctx, reportKey("trainers", userID, start, end), s.cacheTTL, func() ([]TrainerMinutes, error) {
		rows := []TrainerMinutes{}
		err := s.sessionsIn(ctx, userID, start, end).
			Select("sessions.trainer AS trainer, SUM(sessions.duration_minutes) AS minutes").
			Group("sessions.trainer").
			Order("sessions.trainer").
			Scan(&rows).Error
		return rows, err
	})
}

// CostByDuration sums what the user paid per pack duration. Only packs the user
// bought count; shared packs bought by someone else are excluded.
func (s *ReportService) CostByDuration(ctx context.Context, userID uint, start, end time.Time) ([]DurationCost, error) {
	return GetOrSet(s.cache, ctx, reportKey("cost", userID, start, end), s.cacheTTL, func() ([]DurationCost, error) {
		rows := []DurationCost{}
		err := s.purchasesIn(ctx, userID, start, end).
			Select("purchases.duration_minutes AS duration_minutes, SUM(purchases.cost) AS cost").
			Group("purchases.duration_minutes").
			Order("purchases.duration_minutes").
			Scan(&rows).Error
		return rows, err
	})
}

// TotalCost is what the user paid for packs bought in the window, 0 when none
func (s *ReportService) TotalCost(ctx context.Context, userID uint, start, end time.Time) (float64, error) {
	return GetOrSet(s.cache, ctx, reportKey("total-cost", userID, start, end), s.cacheTTL, func() (float64, error) {
		var total float64
		err := s.purchasesIn(ctx, userID, start, end).
			Select("COALESCE(SUM(purchases.cost), 0)").
			Scan(&total).Error
		return total, err
	})
}

// MinutesByDuration sums session minutes per session duration
func (s *ReportService) MinutesByDuration(ctx context.Context, userID uint, start, end time.Time) ([]DurationMinutes, error) {
	return GetOrSet(s.cache, ctx, reportKey("durations", userID, start, end), s.cacheTTL, func() ([]DurationMinutes, error) {
		rows := []DurationMinutes{}
		err := s.sessionsIn(ctx, userID, start, end).
			Select("sessions.duration_minutes AS duration_minutes, SUM(sessions.duration_minutes) AS minutes").
			Group("sessions.duration_minutes").
			Order("sessions.duration_minutes").
			Scan(&rows).Error
		return rows, err
	})
}

// MinutesByPartner sums session minutes per partner label as the user sees it.
// Single-person sessions fall into the Solo bucket.
func (s *ReportService) MinutesByPartner(ctx context.Context, userID uint, start, end time.Time) ([]PartnerMinutes, error) {
	return GetOrSet(s.cache, ctx, reportKey("partners", userID, start, end), s.cacheTTL, func() ([]PartnerMinutes, error) {
		var sessions []models.Session
		if err := s.sessionsIn(ctx, userID, start, end).Scopes(loadSessionParties).Find(&sessions).Error; err != nil {
			return nil, err
		}

		totals := map[string]int{}
		for _, session := range sessions {
			viewer := userID
			if viewer == 0 && session.CreatedByUserID != nil {
				// Unscoped reports label partners from the logger's side
				viewer = *session.CreatedByUserID
			}
			totals[SessionPartnerName(session, viewer)] += session.DurationMinutes
		}

		rows := make([]PartnerMinutes, 0, len(totals))
		for partner, minutes := range totals {
			rows = append(rows, PartnerMinutes{Partner: partner, Minutes: minutes})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Partner < rows[j].Partner })
		return rows, nil
	})
}

// MonthlyMinutes returns one bucket per calendar month touched by the window,
// zero-filled, oldest first
func (s *ReportService) MonthlyMinutes(ctx context.Context, userID uint, start, end time.Time) ([]MonthMinutes, error) {
	return GetOrSet(s.cache, ctx, reportKey("monthly", userID, start, end), s.cacheTTL, func() ([]MonthMinutes, error) {
		months, err := monthBuckets(start, end)
		if err != nil {
			return nil, err
		}

		var sessions []models.Session
		err = s.sessionsIn(ctx, userID, start, end).
			Select("sessions.session_date", "sessions.duration_minutes").
			Find(&sessions).Error
		if err != nil {
			return nil, err
		}

		index := make(map[string]int, len(months))
		for i, m := range months {
			index[m.Month] = i
		}
		for _, session := range sessions {
			if i, ok := index[session.SessionDate.UTC().Format("2006-01")]; ok {
				months[i].Minutes += session.DurationMinutes
			}
		}
		return months, nil
	})
}

// monthBuckets enumerates the first day of every month from start's month up to end
func monthBuckets(start, end time.Time) ([]MonthMinutes, error) {
	months := []MonthMinutes{}
	start, end = start.UTC(), end.UTC()
	if end.Before(start) {
		return months, nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.MONTHLY,
		Dtstart: time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC),
		Until:   end,
	})
	if err != nil {
		return nil, err
	}

	for _, t := range rule.All() {
		months = append(months, MonthMinutes{Month: t.Format("2006-01")})
	}
	return months, nil
}

// EndOfDay is the last second of t's UTC day
func EndOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

func (s *ReportService) sessionsIn(ctx context.Context, userID uint, start, end time.Time) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Session{}).
		Scopes(VisibleSessions(userID)).
		Where("sessions.session_date >= ? AND sessions.session_date <= ?", start.UTC(), end.UTC())
}

func (s *ReportService) purchasesIn(ctx context.Context, userID uint, start, end time.Time) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Scopes(OwnedBy(userID)).
		Where("purchases.purchase_date >= ? AND purchases.purchase_date <= ?", start.UTC(), end.UTC())
}

func reportKey(name string, userID uint, start, end time.Time) string {
	return fmt.Sprintf("report:%s:%d:%d:%d", name, userID, start.Unix(), end.Unix())
}
