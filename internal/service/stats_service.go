package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/phrazzld/lexibox/internal/platform/logger"
	"github.com/phrazzld/lexibox/internal/store"
)

const (
	// learnedBoxLevel is the lowest box at which a card counts as learned.
	learnedBoxLevel = 4

	averageWindowDays = 30
	streakWindowDays  = 365
)

// StatsService computes per-user overviews.
type StatsService interface {
	// GetStats returns the user's collection and review statistics as of now.
	// Days are UTC days.
	GetStats(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Stats, error)
}

type statsServiceImpl struct {
	cards   store.CardStore
	boxes   store.BoxStore
	reviews store.ReviewStore
	maxBox  int
	retry   store.RetryPolicy
	logger  *slog.Logger
}

// NewStatsService creates a new StatsService. maxBox is the number of boxes
// reported in the distribution.
func NewStatsService(
	cards store.CardStore,
	boxes store.BoxStore,
	reviews store.ReviewStore,
	maxBox int,
	retry store.RetryPolicy,
	logger *slog.Logger,
) (StatsService, error) {
	if cards == nil {
		return nil, domain.NewValidationError("cards", "cannot be nil")
	}
	if boxes == nil {
		return nil, domain.NewValidationError("boxes", "cannot be nil")
	}
	if reviews == nil {
		return nil, domain.NewValidationError("reviews", "cannot be nil")
	}
	if maxBox < 1 {
		return nil, domain.NewValidationError("maxBox", "must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &statsServiceImpl{
		cards:   cards,
		boxes:   boxes,
		reviews: reviews,
		maxBox:  maxBox,
		retry:   retry,
		logger:  logger.With(slog.String("component", "stats_service")),
	}, nil
}

// GetStats implements StatsService.GetStats
func (s *statsServiceImpl) GetStats(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Stats, error) {
	now = now.UTC()
	today := now.Truncate(24 * time.Hour)
	endOfToday := today.Add(24*time.Hour - time.Nanosecond)

	var (
		total        int
		dueToday     int
		distribution map[int]int
		daily        []store.DailyReviewCount
	)
	err := store.WithRetry(ctx, s.retry, "get_stats", func(ctx context.Context) error {
		var err error
		if total, err = s.cards.CountByUser(ctx, userID); err != nil {
			return err
		}
		if dueToday, err = s.boxes.CountDue(ctx, userID, endOfToday); err != nil {
			return err
		}
		if distribution, err = s.boxes.LevelDistribution(ctx, userID); err != nil {
			return err
		}
		daily, err = s.reviews.DailyCounts(ctx, userID, today.AddDate(0, 0, -streakWindowDays))
		return err
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to compute stats",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("stats", "get", "failed to compute stats", err)
	}

	stats := &domain.Stats{
		TotalCards:      total,
		CardsDueToday:   dueToday,
		BoxDistribution: make(map[int]int, s.maxBox),
	}
	for level := 1; level <= s.maxBox; level++ {
		count := distribution[level]
		stats.BoxDistribution[level] = count
		if level >= learnedBoxLevel {
			stats.CardsLearned += count
		}
	}

	windowStart := today.AddDate(0, 0, -(averageWindowDays - 1))
	for _, d := range daily {
		if !d.Day.Before(windowStart) {
			stats.ReviewsLast30Days += d.Count
		}
	}
	stats.AvgDailyReviews = math.Round(float64(stats.ReviewsLast30Days)/averageWindowDays*10) / 10
	stats.StudyStreakDays = studyStreak(daily, today)

	return stats, nil
}

// studyStreak counts consecutive days with reviews ending today, or ending
// yesterday when today has none yet. daily is ordered by day descending.
func studyStreak(daily []store.DailyReviewCount, today time.Time) int {
	active := make(map[time.Time]bool, len(daily))
	for _, d := range daily {
		if d.Count > 0 {
			active[d.Day.UTC().Truncate(24*time.Hour)] = true
		}
	}

	day := today
	if !active[day] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for active[day] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
