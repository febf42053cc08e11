package model

import (
	"time"

	"github.com/google/uuid"
)

type TokenStatus string

const (
	TokenStatusWaiting   TokenStatus = "waiting"
	TokenStatusCalling   TokenStatus = "calling"
	TokenStatusCompleted TokenStatus = "completed"
	TokenStatusSkipped   TokenStatus = "skipped"
	TokenStatusCancelled TokenStatus = "cancelled"
)

// Terminal reports whether no further transitions leave this status.
func (s TokenStatus) Terminal() bool {
	return s == TokenStatusCompleted || s == TokenStatusCancelled
}

// Token is a single visitor's queue entry for one service. TokenNumber is
// unique within (service_id, issue_date) and assigned by the allocator,
// never by client input.
type Token struct {
	Base
	ServiceID       uuid.UUID   `db:"service_id" json:"service_id"`
	UserID          *uuid.UUID  `db:"user_id" json:"user_id,omitempty"`
	TokenNumber     int         `db:"token_number" json:"token_number"`
	VisitorName     string      `db:"visitor_name" json:"visitor_name,omitempty"`
	Status          TokenStatus `db:"status" json:"status"`
	AppointmentDate *time.Time  `db:"appointment_date" json:"appointment_date,omitempty"`
	AppointmentTime *string     `db:"appointment_time" json:"appointment_time,omitempty"`
	Remarks         string      `db:"remarks" json:"remarks,omitempty"`
	IssuedAt        time.Time   `db:"issued_at" json:"issued_at"`
}

// Walkin reports whether the token has no appointment slot. Walk-ins queue
// after all scheduled tokens.
func (t *Token) Walkin() bool {
	return t.AppointmentTime == nil
}

type CreateTokenRequest struct {
	ServiceID       uuid.UUID  `json:"service_id" binding:"required"`
	VisitorName     string     `json:"visitor_name" binding:"max=150"`
	UserID          *uuid.UUID `json:"user_id"`
	AppointmentDate *time.Time `json:"appointment_date" binding:"omitempty,future_or_today"`
	AppointmentTime *string    `json:"appointment_time" binding:"omitempty,datetime=15:04"`
	Remarks         string     `json:"remarks" binding:"max=1000"`
}

type TransitionRequest struct {
	Status TokenStatus `json:"status" binding:"required,oneof=waiting calling completed skipped cancelled"`
}

type CancelAllRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type CancelAllResult struct {
	CancelledCount int `json:"cancelled_count"`
}

// QueueSnapshot is the poll contract payload: every token for the service's
// current issue date plus the advisory "now serving" token.
type QueueSnapshot struct {
	ServiceID uuid.UUID `json:"service_id"`
	Tokens    []*Token  `json:"tokens"`
	Current   *Token    `json:"current,omitempty"`
}
