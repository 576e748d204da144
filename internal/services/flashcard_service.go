// Package services – FlashcardService
//
// This file implements FlashcardService, which persists accepted proposals as
// flashcards and maintains the acceptance counters on their source
// generations. Saving is all-or-nothing: the inserts and the counter
// increments run in one transaction, and a reference to a generation the user
// does not own rejects the entire batch.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmanix/damix-10x-cards-sub000/internal/domain"
	"github.com/dmanix/damix-10x-cards-sub000/internal/repo"
)

// Reference bounds for card text, in runes.
const (
	maxFrontRunes = 200
	maxBackRunes  = 500
)

// FlashcardService implements the use-cases around flashcard persistence.
type FlashcardService struct {
	// DB is the GORM handle used for all flashcard operations.
	DB *gorm.DB
}

// NewFlashcardService constructs a FlashcardService.
func NewFlashcardService(db *gorm.DB) *FlashcardService {
	return &FlashcardService{DB: db}
}

// FlashcardInput is one card submitted for saving. GenerationID is required
// for ai-full and ai-edited cards and must be absent for manual ones.
type FlashcardInput struct {
	Front        string
	Back         string
	Source       string
	GenerationID *string
}

// validate checks a single input against the card rules.
func (in FlashcardInput) validate() error {
	front := strings.TrimSpace(in.Front)
	back := strings.TrimSpace(in.Back)
	if front == "" || back == "" {
		return ErrEmptyCard
	}
	if utf8.RuneCountInString(front) > maxFrontRunes || utf8.RuneCountInString(back) > maxBackRunes {
		return ErrCardTooLong
	}
	switch in.Source {
	case domain.FlashcardSourceAIFull, domain.FlashcardSourceAIEdited:
		if in.GenerationID == nil || strings.TrimSpace(*in.GenerationID) == "" {
			return ErrMissingGenerationID
		}
	case domain.FlashcardSourceManual:
	default:
		return ErrInvalidSource
	}
	return nil
}

// Save persists a batch of flashcards for userID and increments the
// acceptance counters on every referenced generation (ai-full counts as an
// original acceptance, ai-edited as an edited one).
//
// Semantics:
//   - Every input is validated up front; the first violation aborts the call.
//   - Inserts and counter updates are atomic. If any referenced generation
//     does not exist or belongs to another user, ErrForbiddenGeneration is
//     returned and nothing is persisted.
func (s *FlashcardService) Save(ctx context.Context, userID string, inputs []FlashcardInput) ([]domain.Flashcard, error) {
	tr := otel.Tracer("services/FlashcardService")
	ctx, span := tr.Start(ctx, "Save",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("batch.size", len(inputs)),
		),
	)
	defer span.End()

	if len(inputs) == 0 {
		return []domain.Flashcard{}, nil
	}
	for _, in := range inputs {
		if err := in.validate(); err != nil {
			return nil, err
		}
	}

	// Acceptance deltas per generation; applied once per generation so a
	// batch accepting several cards from one attempt does one update.
	type deltas struct{ original, edited int }
	perGen := make(map[string]*deltas)
	for _, in := range inputs {
		if in.GenerationID == nil {
			continue
		}
		d, ok := perGen[*in.GenerationID]
		if !ok {
			d = &deltas{}
			perGen[*in.GenerationID] = d
		}
		if in.Source == domain.FlashcardSourceAIEdited {
			d.edited++
		} else {
			d.original++
		}
	}

	var saved []domain.Flashcard
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, d := range perGen {
			if err := repo.IncrementAcceptedCounts(ctx, tx, id, userID, d.original, d.edited); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return ErrForbiddenGeneration
				}
				return err
			}
		}
		for _, in := range inputs {
			f, err := repo.CreateFlashcard(ctx, tx,
				userID,
				strings.TrimSpace(in.Front),
				strings.TrimSpace(in.Back),
				in.Source,
				in.GenerationID,
			)
			if err != nil {
				return err
			}
			saved = append(saved, *f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ListPage returns a page of the user's flashcards plus the total count.
// Invalid page/pageSize values fall back to defaults.
func (s *FlashcardService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Flashcard, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountFlashcards(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Flashcard{}, 0, nil
	}

	items, err := repo.ListFlashcardsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Update edits the front/back of a flashcard owned by userID. Editing an
// ai-full card reclassifies it as ai-edited; other sources are preserved.
func (s *FlashcardService) Update(ctx context.Context, userID, id, front, back string) (*domain.Flashcard, error) {
	front = strings.TrimSpace(front)
	back = strings.TrimSpace(back)
	if front == "" || back == "" {
		return nil, ErrEmptyCard
	}
	if utf8.RuneCountInString(front) > maxFrontRunes || utf8.RuneCountInString(back) > maxBackRunes {
		return nil, ErrCardTooLong
	}

	current, err := repo.GetFlashcard(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFlashcardNotFound
		}
		return nil, err
	}

	source := current.Source
	if source == domain.FlashcardSourceAIFull {
		source = domain.FlashcardSourceAIEdited
	}
	if err := repo.UpdateFlashcard(ctx, s.DB, id, userID, front, back, source); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrFlashcardNotFound
		}
		return nil, err
	}

	current.Front = front
	current.Back = back
	current.Source = source
	return current, nil
}

// Delete removes a flashcard owned by userID.
func (s *FlashcardService) Delete(ctx context.Context, userID, id string) error {
	if err := repo.DeleteFlashcard(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrFlashcardNotFound
		}
		return err
	}
	return nil
}
