// Package services – daily quota tracking.
//
// Each user gets a fixed number of successful generations per UTC calendar
// day. Usage is recomputed fresh from the datastore on every check; nothing
// is cached across requests. The day boundary is computed in UTC regardless
// of the caller's local timezone.
package services

import (
	"context"
	"time"

	"github.com/dmanix/damix-10x-cards-sub000/internal/repo"
)

// DailyUsage is the derived, never-persisted view of a user's quota at a
// point in time. Remaining is clamped at zero.
type DailyUsage struct {
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

// utcStartOfDay returns 00:00:00.000 UTC of now's UTC calendar date.
func utcStartOfDay(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// nextUTCMidnight returns the first instant of the following UTC day.
func nextUTCMidnight(now time.Time) time.Time {
	return utcStartOfDay(now).Add(24 * time.Hour)
}

// EnsureInputLength validates that the normalized input length falls inside
// the configured closed range. Both bounds are themselves valid lengths.
func (s *GenerationService) EnsureInputLength(in NormalizedInput) error {
	if in.Length < s.MinInputLength || in.Length > s.MaxInputLength {
		return &InputLengthError{Length: in.Length, Min: s.MinInputLength, Max: s.MaxInputLength}
	}
	return nil
}

// GetDailyUsage computes the user's quota state for the UTC day containing
// now by counting succeeded attempts created at or after UTC midnight.
func (s *GenerationService) GetDailyUsage(ctx context.Context, userID string, now time.Time) (DailyUsage, error) {
	used, err := repo.CountSucceededSince(ctx, s.DB, userID, utcStartOfDay(now))
	if err != nil {
		return DailyUsage{}, err
	}
	return s.usageFromCount(int(used), now), nil
}

// AssertWithinDailyLimit returns the current usage, or a typed
// DailyLimitExceededError when no quota remains. The error carries the limit
// and reset time so the caller needs no second query.
func (s *GenerationService) AssertWithinDailyLimit(ctx context.Context, userID string, now time.Time) (DailyUsage, error) {
	usage, err := s.GetDailyUsage(ctx, userID, now)
	if err != nil {
		return DailyUsage{}, err
	}
	if usage.Remaining <= 0 {
		return DailyUsage{}, &DailyLimitExceededError{
			Limit:     usage.Limit,
			Remaining: usage.Remaining,
			ResetsAt:  usage.ResetsAt,
		}
	}
	return usage, nil
}

// usageFromCount derives a DailyUsage from a raw succeeded-attempt count.
func (s *GenerationService) usageFromCount(used int, now time.Time) DailyUsage {
	remaining := s.DailyLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return DailyUsage{
		Limit:     s.DailyLimit,
		Used:      used,
		Remaining: remaining,
		ResetsAt:  nextUTCMidnight(now),
	}
}
