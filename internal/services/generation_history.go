package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dmanix/damix-10x-cards-sub000/internal/domain"
	"github.com/dmanix/damix-10x-cards-sub000/internal/repo"
)

// ListPage returns a page of the user's generation history plus the total
// count, newest first.
func (s *GenerationService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Generation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountGenerations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Generation{}, 0, nil
	}

	items, err := repo.ListGenerationsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Get fetches one generation owned by userID.
func (s *GenerationService) Get(ctx context.Context, userID, id string) (*domain.Generation, error) {
	g, err := repo.GetGeneration(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGenerationNotFound
		}
		return nil, err
	}
	return g, nil
}
