package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/qtrack-api/internal/model"
	"github.com/jwalitptl/qtrack-api/internal/repository"
)

// Service generates user-facing notifications from token state changes and
// serves their read side. Generation is driven by committed transitions, never
// by requests, so an idempotent re-apply can never fire a duplicate row.
type Service interface {
	TokenCalled(ctx context.Context, token *model.Token) error
	BatchCancelled(ctx context.Context, tokens []*model.Token, reason string) (uuid.UUID, error)
	List(ctx context.Context, recipientID uuid.UUID) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	ClearAll(ctx context.Context, recipientID uuid.UUID) error
}

type service struct {
	repo repository.NotificationRepository
}

func NewService(repo repository.NotificationRepository) Service {
	return &service{repo: repo}
}

// TokenCalled notifies the token's visitor that their number is up. Tokens
// issued to anonymous walk-ins have no recipient and produce nothing.
func (s *service) TokenCalled(ctx context.Context, token *model.Token) error {
	if token.UserID == nil {
		return nil
	}

	notification := &model.Notification{
		RecipientID: *token.UserID,
		Message:     fmt.Sprintf("Token #%d is now being served.", token.TokenNumber),
		TokenID:     &token.ID,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to create called notification: %w", err)
	}
	return nil
}

// BatchCancelled fans one cancellation message out to every affected
// visitor. All rows share a batch id correlating them to the cancel-all
// event.
func (s *service) BatchCancelled(ctx context.Context, tokens []*model.Token, reason string) (uuid.UUID, error) {
	batchID := uuid.New()

	notifications := make([]*model.Notification, 0, len(tokens))
	for _, token := range tokens {
		if token.UserID == nil {
			continue
		}
		notifications = append(notifications, &model.Notification{
			RecipientID: *token.UserID,
			Message:     fmt.Sprintf("Token #%d was cancelled: %s", token.TokenNumber, reason),
			TokenID:     &token.ID,
			BatchID:     &batchID,
		})
	}

	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create cancellation notifications: %w", err)
	}
	return batchID, nil
}

func (s *service) List(ctx context.Context, recipientID uuid.UUID) ([]*model.Notification, error) {
	return s.repo.ListForRecipient(ctx, recipientID)
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id)
}

func (s *service) ClearAll(ctx context.Context, recipientID uuid.UUID) error {
	return s.repo.ClearAll(ctx, recipientID)
}
