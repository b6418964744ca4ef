package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrBoxEntryNotFound is returned when a card has no scheduling state or the
// entry belongs to another user.
var ErrBoxEntryNotFound = fmt.Errorf("%w: box entry", ErrNotFound)

// BoxEntry is the scheduling state of one live card.
type BoxEntry struct {
	CardID         uuid.UUID `json:"card_id"`
	UserID         uuid.UUID `json:"user_id"`
	BoxLevel       int       `json:"box_level"`
	NextReviewDate time.Time `json:"next_review_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewBoxEntry returns the initial entry for a card: box 1, due at now.
func NewBoxEntry(userID, cardID uuid.UUID, now time.Time) (*BoxEntry, error) {
	now = now.UTC()
	entry := &BoxEntry{
		CardID:         cardID,
		UserID:         userID,
		BoxLevel:       1,
		NextReviewDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if entry.CardID == uuid.Nil || entry.UserID == uuid.Nil {
		return nil, ErrInvalidID
	}
	return entry, nil
}

// Due reports whether the entry is eligible for review at now.
func (b *BoxEntry) Due(now time.Time) bool {
	return !b.NextReviewDate.After(now)
}

// DueCard is a card surfaced by the due-card selector together with its
// scheduling state.
type DueCard struct {
	Card           *Card     `json:"card"`
	BoxLevel       int       `json:"box_level"`
	NextReviewDate time.Time `json:"next_review_date"`
}

// Stats is a per-user overview of the collection and review history.
type Stats struct {
	TotalCards        int         `json:"total_cards"`
	CardsDueToday     int         `json:"cards_due_today"`
	CardsLearned      int         `json:"cards_learned"`
	StudyStreakDays   int         `json:"study_streak_days"`
	AvgDailyReviews   float64     `json:"avg_daily_reviews"`
	BoxDistribution   map[int]int `json:"box_distribution"`
	ReviewsLast30Days int         `json:"reviews_last_30_days"`
}
