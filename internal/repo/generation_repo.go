// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Generation
// model: the pending insert, the two terminal transitions, the quota count,
// acceptance counter updates, and the history queries.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a generation is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmanix/damix-10x-cards-sub000/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service layer
// and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateGeneration inserts a new pending Generation for userID, capturing the
// input fingerprint and length. The caller is expected to have verified the
// daily quota first; this function does not re-check it.
func CreateGeneration(ctx context.Context, db *gorm.DB, userID, inputHash string, inputLength int) (*domain.Generation, error) {
	g := &domain.Generation{
		ID:          uuid.NewString(),
		UserID:      userID,
		Status:      domain.GenerationStatusPending,
		InputHash:   inputHash,
		InputLength: inputLength,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, err
	}
	return g, nil
}

// MarkGenerationSucceeded transitions a pending generation to succeeded,
// recording the proposal count and the finish timestamp. The update is scoped
// to status=pending so a terminal row can never be transitioned twice; a
// zero-row update returns ErrNotFound, which callers treat as a
// data-integrity failure.
func MarkGenerationSucceeded(ctx context.Context, db *gorm.DB, id, userID string, generatedCount int) error {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Generation{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, domain.GenerationStatusPending).
		Updates(map[string]any{
			"status":          domain.GenerationStatusSucceeded,
			"generated_count": generatedCount,
			"finished_at":     now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkGenerationFailed transitions a pending generation to failed with an
// error code and message. Same single-transition semantics as
// MarkGenerationSucceeded.
func MarkGenerationFailed(ctx context.Context, db *gorm.DB, id, userID, errorCode, errorMessage string) error {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Generation{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, domain.GenerationStatusPending).
		Updates(map[string]any{
			"status":        domain.GenerationStatusFailed,
			"error_code":    errorCode,
			"error_message": errorMessage,
			"finished_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountSucceededSince returns the number of succeeded generations for userID
// created at or after the given instant. Used for the daily quota, with
// `since` set to the start of the current UTC day.
func CountSucceededSince(ctx context.Context, db *gorm.DB, userID string, since time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Generation{}).
		Where("user_id = ? AND status = ? AND created_at >= ?", userID, domain.GenerationStatusSucceeded, since).
		Count(&total).Error
	return total, err
}

// GetGeneration fetches a single generation by ID and owner. If the record
// does not exist (or belongs to another user), it returns ErrNotFound.
func GetGeneration(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Generation, error) {
	var g domain.Generation
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CountGenerations returns the total number of generations owned by userID.
func CountGenerations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Generation{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListGenerationsPage returns a paginated slice of generations for userID,
// ordered by creation time descending. Use CountGenerations to obtain the
// total for pagination metadata.
func ListGenerationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Generation, error) {
	var out []domain.Generation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// IncrementAcceptedCounts adds the given deltas to a generation's acceptance
// counters, scoped to the owning user. A zero-row update returns ErrNotFound
// so callers can reject references to generations the user does not own.
func IncrementAcceptedCounts(ctx context.Context, db *gorm.DB, id, userID string, original, edited int) error {
	res := db.WithContext(ctx).
		Model(&domain.Generation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"accepted_original_count": gorm.Expr("accepted_original_count + ?", original),
			"accepted_edited_count":   gorm.Expr("accepted_edited_count + ?", edited),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateErrorLog records a failed provider call. Callers invoke this best
// effort; a logging failure never blocks the request path.
func CreateErrorLog(ctx context.Context, db *gorm.DB, userID, inputHash string, inputLength int, errorCode, errorMessage string) error {
	l := &domain.GenerationErrorLog{
		ID:           uuid.NewString(),
		UserID:       userID,
		InputHash:    inputHash,
		InputLength:  inputLength,
		ErrorCode:    errorCode,
		ErrorMessage: errorMessage,
		CreatedAt:    time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(l).Error
}
