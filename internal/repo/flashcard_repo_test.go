package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dmanix/damix-10x-cards-sub000/internal/domain"
)

func TestCreateAndGetFlashcard(t *testing.T) {
	db := newRepoDB(t, &domain.Generation{}, &domain.Flashcard{})
	ctx := context.Background()

	gen, _ := CreateGeneration(ctx, db, "u1", testHash(), 1000)
	f, err := CreateFlashcard(ctx, db, "u1", "Q", "A", domain.FlashcardSourceAIFull, &gen.ID)
	if err != nil {
		t.Fatalf("CreateFlashcard: %v", err)
	}

	got, err := GetFlashcard(ctx, db, f.ID, "u1")
	if err != nil {
		t.Fatalf("GetFlashcard: %v", err)
	}
	if got.Front != "Q" || got.Back != "A" || got.Source != domain.FlashcardSourceAIFull {
		t.Fatalf("card = %+v", got)
	}
	if got.GenerationID == nil || *got.GenerationID != gen.ID {
		t.Fatalf("generation_id = %v, want %s", got.GenerationID, gen.ID)
	}

	if _, err := GetFlashcard(ctx, db, f.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign get: got %v", err)
	}
}

func TestCreateFlashcard_ManualWithoutGeneration(t *testing.T) {
	db := newRepoDB(t, &domain.Generation{}, &domain.Flashcard{})
	f, err := CreateFlashcard(context.Background(), db, "u1", "Q", "A", domain.FlashcardSourceManual, nil)
	if err != nil {
		t.Fatalf("CreateFlashcard: %v", err)
	}
	if f.GenerationID != nil {
		t.Fatalf("manual card must not reference a generation")
	}
}

func TestUpdateFlashcard(t *testing.T) {
	db := newRepoDB(t, &domain.Generation{}, &domain.Flashcard{})
	ctx := context.Background()
	f, _ := CreateFlashcard(ctx, db, "u1", "Q", "A", domain.FlashcardSourceManual, nil)

	if err := UpdateFlashcard(ctx, db, f.ID, "u1", "Q2", "A2", domain.FlashcardSourceManual); err != nil {
		t.Fatalf("UpdateFlashcard: %v", err)
	}
	got, _ := GetFlashcard(ctx, db, f.ID, "u1")
	if got.Front != "Q2" || got.Back != "A2" {
		t.Fatalf("card = %+v", got)
	}

	if err := UpdateFlashcard(ctx, db, f.ID, "u2", "X", "Y", domain.FlashcardSourceManual); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update: got %v", err)
	}
	if err := UpdateFlashcard(ctx, db, uuid.NewString(), "u1", "X", "Y", domain.FlashcardSourceManual); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing update: got %v", err)
	}
}

func TestDeleteFlashcard_SoftDelete(t *testing.T) {
	db := newRepoDB(t, &domain.Generation{}, &domain.Flashcard{})
	ctx := context.Background()
	f, _ := CreateFlashcard(ctx, db, "u1", "Q", "A", domain.FlashcardSourceManual, nil)

	if err := DeleteFlashcard(ctx, db, f.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: got %v", err)
	}
	if err := DeleteFlashcard(ctx, db, f.ID, "u1"); err != nil {
		t.Fatalf("DeleteFlashcard: %v", err)
	}
	if _, err := GetFlashcard(ctx, db, f.ID, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted card still visible: %v", err)
	}

	// Soft delete: the row survives with deleted_at set.
	var raw domain.Flashcard
	if err := db.Unscoped().First(&raw, "id = ?", f.ID).Error; err != nil {
		t.Fatalf("unscoped lookup: %v", err)
	}
	if !raw.DeletedAt.Valid {
		t.Fatalf("deleted_at not set")
	}
}

func TestListFlashcardsPage(t *testing.T) {
	db := newRepoDB(t, &domain.Generation{}, &domain.Flashcard{})
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		f := &domain.Flashcard{
			ID: uuid.NewString(), UserID: "u1", Front: "Q", Back: "A",
			Source: domain.FlashcardSourceManual, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(f).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	total, err := CountFlashcards(ctx, db, "u1")
	if err != nil || total != 3 {
		t.Fatalf("CountFlashcards = %d, %v", total, err)
	}
	page, err := ListFlashcardsPage(ctx, db, "u1", 0, 2)
	if err != nil {
		t.Fatalf("ListFlashcardsPage: %v", err)
	}
	if len(page) != 2 || !page[0].CreatedAt.After(page[1].CreatedAt) {
		t.Fatalf("want 2 newest-first cards, got %d", len(page))
	}
}
