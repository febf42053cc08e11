package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/qtrack-api/internal/model"
)

// All repository interfaces in one file
type (
	// TokenRepository is the durable token store. Transition serializes the
	// read-modify-write per token row; NextTokenNumber is the one true
	// atomic increment in the system.
	TokenRepository interface {
		Create(ctx context.Context, token *model.Token) error
		Get(ctx context.Context, id uuid.UUID) (*model.Token, error)
		ListForDate(ctx context.Context, serviceID uuid.UUID, date time.Time) ([]*model.Token, error)
		ListWaiting(ctx context.Context, serviceID uuid.UUID, date time.Time) ([]*model.Token, error)
		CurrentCalling(ctx context.Context, serviceID uuid.UUID, date time.Time) (*model.Token, error)
		Transition(ctx context.Context, id uuid.UUID, target model.TokenStatus) (*model.Token, bool, error)
		Delete(ctx context.Context, id uuid.UUID) error
		NextTokenNumber(ctx context.Context, serviceID uuid.UUID, issueDate time.Time) (int, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		CreateBatch(ctx context.Context, notifications []*model.Notification) error
		ListForRecipient(ctx context.Context, recipientID uuid.UUID) ([]*model.Notification, error)
		MarkRead(ctx context.Context, id uuid.UUID) error
		ClearAll(ctx context.Context, recipientID uuid.UUID) error
		DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	// DirectoryRepository reads provider/service records owned by the
	// identity service. No writes happen through this API.
	DirectoryRepository interface {
		GetService(ctx context.Context, id uuid.UUID) (*model.Service, error)
		GetProvider(ctx context.Context, id uuid.UUID) (*model.Provider, error)
		ListProviders(ctx context.Context) ([]*model.Provider, error)
		ListServices(ctx context.Context, providerID uuid.UUID) ([]*model.Service, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, entityID uuid.UUID) ([]*model.AuditLog, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	// OutboxRepository stores lifecycle events awaiting broker delivery.
	// GetPendingEvents claims its batch, so concurrent processors never
	// receive the same row.
	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}
)
