package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so constraints actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	if (Generation{}).TableName() != "generations" {
		t.Fatalf("Generation.TableName() = %q", (Generation{}).TableName())
	}
	if (Flashcard{}).TableName() != "flashcards" {
		t.Fatalf("Flashcard.TableName() = %q", (Flashcard{}).TableName())
	}
	if (GenerationErrorLog{}).TableName() != "generation_error_logs" {
		t.Fatalf("GenerationErrorLog.TableName() = %q", (GenerationErrorLog{}).TableName())
	}
	if (Idempotency{}).TableName() != "idempotency" {
		t.Fatalf("Idempotency.TableName() = %q", (Idempotency{}).TableName())
	}
}

func TestMigrations_Indexes_AndSetNull(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Generation{}, &Flashcard{}, &GenerationErrorLog{}, &Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, tbl := range []any{&Generation{}, &Flashcard{}, &GenerationErrorLog{}, &Idempotency{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	if !m.HasIndex(&Generation{}, "idx_user_generations") {
		t.Fatalf("expected index idx_user_generations on generations")
	}
	if !m.HasIndex(&Flashcard{}, "idx_user_flashcards") {
		t.Fatalf("expected index idx_user_flashcards on flashcards")
	}
	if !m.HasIndex(&Idempotency{}, "ux_user_key") {
		t.Fatalf("expected unique index ux_user_key on idempotency")
	}

	now := time.Now().UTC()
	hash := fmt.Sprintf("%064d", 0)

	g := &Generation{
		ID: "g1", UserID: "u1", Status: GenerationStatusSucceeded,
		InputHash: hash, InputLength: 1200, CreatedAt: now, UpdatedAt: now,
	}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("insert generation: %v", err)
	}

	genID := "g1"
	card := &Flashcard{
		ID: "f1", UserID: "u1", Front: "Q", Back: "A",
		Source: FlashcardSourceAIFull, GenerationID: &genID,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := db.Create(card).Error; err != nil {
		t.Fatalf("insert flashcard: %v", err)
	}

	// SET NULL: hard-deleting the generation orphans the card gracefully.
	if err := db.Unscoped().Delete(&Generation{}, "id = ?", "g1").Error; err != nil {
		t.Fatalf("delete generation: %v", err)
	}
	var got Flashcard
	if err := db.First(&got, "id = ?", "f1").Error; err != nil {
		t.Fatalf("reload flashcard: %v", err)
	}
	if got.GenerationID != nil {
		t.Fatalf("expected generation_id to be NULLed, got %v", *got.GenerationID)
	}
}

func TestStatusCheckConstraint(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Generation{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	bad := &Generation{
		ID: "g-bad", UserID: "u1", Status: "exploded",
		InputHash: fmt.Sprintf("%064d", 0), InputLength: 1200,
	}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected check constraint to reject unknown status")
	}
}
