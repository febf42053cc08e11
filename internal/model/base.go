package model

import (
	"time"

	"github.com/google/uuid"
)

// Base carries the identity and bookkeeping columns shared by all stored
// rows. DeletedAt implements soft deletion: a set value hides the row from
// every listing without losing its history.
type Base struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
