// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Flashcard
// model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmanix/damix-10x-cards-sub000/internal/domain"
)

// CreateFlashcard inserts a single flashcard row. GenerationID may be nil for
// manual cards.
func CreateFlashcard(ctx context.Context, db *gorm.DB, userID, front, back, source string, generationID *string) (*domain.Flashcard, error) {
	f := &domain.Flashcard{
		ID:           uuid.NewString(),
		UserID:       userID,
		Front:        front,
		Back:         back,
		Source:       source,
		GenerationID: generationID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(f).Error; err != nil {
		return nil, err
	}
	return f, nil
}

// GetFlashcard fetches a flashcard by ID and owner, or ErrNotFound.
func GetFlashcard(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Flashcard, error) {
	var f domain.Flashcard
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CountFlashcards returns the total number of flashcards owned by userID.
func CountFlashcards(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Flashcard{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListFlashcardsPage returns a paginated slice of flashcards for userID,
// ordered by creation time descending.
func ListFlashcardsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Flashcard, error) {
	var out []domain.Flashcard
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateFlashcard updates the text and source of a flashcard identified by id
// and owned by userID. If no rows are affected, it returns ErrNotFound.
func UpdateFlashcard(ctx context.Context, db *gorm.DB, id, userID, front, back, source string) error {
	res := db.WithContext(ctx).
		Model(&domain.Flashcard{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"front":  front,
			"back":   back,
			"source": source,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFlashcard soft-deletes a flashcard owned by userID, or ErrNotFound.
func DeleteFlashcard(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Flashcard{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
