// Package domain defines the core persistence models for the application.
package domain

import "time"

// Idempotency records the generation produced by a previously processed
// POST /generations request, keyed by (user_id, key). It enables safe client
// retries: a replayed key returns the original generation without consuming
// quota or calling the provider again.
type Idempotency struct {
	ID           string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_key,priority:1"`
	Key          string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_key,priority:2"`
	GenerationID string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt    time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt    time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
