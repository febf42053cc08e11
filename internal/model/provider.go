package model

import (
	"time"

	"github.com/google/uuid"
)

// Provider is a hospital or institution owning one or more services. The
// directory is owned by the identity service; this API only reads it.
type Provider struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Location     string    `db:"location" json:"location,omitempty"`
	WorkingHours string    `db:"working_hours" json:"working_hours,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Service is a department or specialty with its own independent queue.
type Service struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ProviderID  uuid.UUID `db:"provider_id" json:"provider_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
