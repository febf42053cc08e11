package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a user-facing event derived from a token status change.
// Rows are created only by the generator, mutated only to flip IsRead, and
// deleted only by an explicit clear-all.
type Notification struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	RecipientID uuid.UUID  `db:"recipient_id" json:"recipient_id"`
	Message     string     `db:"message" json:"message"`
	IsRead      bool       `db:"is_read" json:"is_read"`
	TokenID     *uuid.UUID `db:"token_id" json:"token_id,omitempty"`
	BatchID     *uuid.UUID `db:"batch_id" json:"batch_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
