// Package domain defines the persistence models for generations, flashcards,
// and generation error logs. These types are mapped with GORM and form the
// core data layer of the 10x Cards backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Generation statuses. A generation is created pending, then moves exactly
// once to succeeded or failed. Terminal states are final.
const (
	GenerationStatusPending   = "pending"
	GenerationStatusSucceeded = "succeeded"
	GenerationStatusFailed    = "failed"
)

// Flashcard sources. AI-derived cards keep a reference to the generation
// that produced them; manual cards do not.
const (
	FlashcardSourceAIFull   = "ai-full"
	FlashcardSourceAIEdited = "ai-edited"
	FlashcardSourceManual   = "manual"
)

// Generation represents one attempt to produce flashcard proposals from a
// piece of source text. The source text itself is never stored; only its
// length and SHA-256 fingerprint are kept for traceability.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owner; indexed, immutable after creation.
//   - Status: pending | succeeded | failed (enforced by DB constraint).
//   - InputHash / InputLength: captured from the normalized input at creation.
//   - GeneratedCount: number of proposals returned; nil until succeeded.
//   - AcceptedOriginalCount / AcceptedEditedCount: incremented when flashcards
//     referencing this generation are saved unmodified / edited.
//   - ErrorCode / ErrorMessage: set only on failed generations.
//   - FinishedAt: nil while pending; set exactly once on the terminal
//     transition.
type Generation struct {
	ID                    string         `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID                string         `json:"user_id"      gorm:"type:varchar(64);not null;index:idx_user_generations,priority:1"`
	Status                string         `json:"status"       gorm:"type:varchar(16);not null;check:status IN ('pending','succeeded','failed')"`
	InputHash             string         `json:"input_hash"   gorm:"type:char(64);not null"`
	InputLength           int            `json:"input_length" gorm:"not null"`
	GeneratedCount        *int           `json:"generated_count,omitempty"`
	AcceptedOriginalCount int            `json:"accepted_original_count" gorm:"not null;default:0"`
	AcceptedEditedCount   int            `json:"accepted_edited_count"   gorm:"not null;default:0"`
	ErrorCode             *string        `json:"error_code,omitempty"    gorm:"type:varchar(64)"`
	ErrorMessage          *string        `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt             time.Time      `json:"created_at" gorm:"index:idx_user_generations,priority:2"`
	UpdatedAt             time.Time      `json:"updated_at"`
	FinishedAt            *time.Time     `json:"finished_at,omitempty"`
	DeletedAt             gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Generation.
func (Generation) TableName() string { return "generations" }

// Flashcard is a persisted front/back pair owned by a user. AI-derived cards
// reference the generation they were accepted from; editing an ai-full card
// flips its source to ai-edited.
type Flashcard struct {
	ID           string         `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID       string         `json:"user_id" gorm:"type:varchar(64);not null;index:idx_user_flashcards"`
	Front        string         `json:"front"   gorm:"type:varchar(200);not null"`
	Back         string         `json:"back"    gorm:"type:varchar(500);not null"`
	Source       string         `json:"source"  gorm:"type:varchar(16);not null;check:source IN ('ai-full','ai-edited','manual')"`
	GenerationID *string        `json:"generation_id,omitempty" gorm:"type:char(36);index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Generation is the attempt this card was accepted from, when AI-derived.
	Generation *Generation `json:"-" gorm:"foreignKey:GenerationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Flashcard.
func (Flashcard) TableName() string { return "flashcards" }

// GenerationErrorLog records one failed provider call for later inspection.
// Rows are written best effort alongside the failed transition and are never
// read on the request path.
type GenerationErrorLog struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string    `json:"user_id"       gorm:"type:varchar(64);not null;index"`
	InputHash    string    `json:"input_hash"    gorm:"type:char(64);not null"`
	InputLength  int       `json:"input_length"  gorm:"not null"`
	ErrorCode    string    `json:"error_code"    gorm:"type:varchar(64);not null"`
	ErrorMessage string    `json:"error_message" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for GenerationErrorLog.
func (GenerationErrorLog) TableName() string { return "generation_error_logs" }
