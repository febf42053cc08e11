package token

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/qtrack-api/internal/model"
	"github.com/jwalitptl/qtrack-api/internal/repository"
	"github.com/jwalitptl/qtrack-api/internal/service/audit"
	"github.com/jwalitptl/qtrack-api/internal/service/directory"
	"github.com/jwalitptl/qtrack-api/internal/service/notification"
	apperrors "github.com/jwalitptl/qtrack-api/pkg/errors"
	"github.com/jwalitptl/qtrack-api/pkg/metrics"
)

// maxAllocationRetries bounds the internal retry loop when a token number
// allocation loses a race. Conflicts are recovered here and never surface
// to callers.
const maxAllocationRetries = 5

type Service struct {
	repo     repository.TokenRepository
	outbox   repository.OutboxRepository
	notifSvc notification.Service
	dirSvc   *directory.Service
	auditor  *audit.Service
	metrics  *metrics.Metrics
}

func NewService(
	repo repository.TokenRepository,
	outbox repository.OutboxRepository,
	notifSvc notification.Service,
	dirSvc *directory.Service,
	auditor *audit.Service,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:     repo,
		outbox:   outbox,
		notifSvc: notifSvc,
		dirSvc:   dirSvc,
		auditor:  auditor,
		metrics:  metrics,
	}
}

// CreateToken issues the next token for a service. The allocator assigns the
// sequence number; a lost race on the (service, day) uniqueness constraint is
// retried with a fresh number.
func (s *Service) CreateToken(ctx context.Context, req *model.CreateTokenRequest) (*model.Token, error) {
	exists, err := s.dirSvc.ServiceExists(ctx, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check service: %w", err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("service", nil)
	}

	if req.AppointmentTime != nil && req.AppointmentDate == nil {
		return nil, apperrors.NewValidation("appointment_time requires appointment_date", nil)
	}

	token := &model.Token{
		ServiceID:       req.ServiceID,
		UserID:          req.UserID,
		VisitorName:     req.VisitorName,
		Status:          model.TokenStatusWaiting,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Remarks:         req.Remarks,
	}

	issueDate := time.Now()
	for attempt := 0; ; attempt++ {
		number, err := s.repo.NextTokenNumber(ctx, req.ServiceID, issueDate)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate token number: %w", err)
		}
		token.TokenNumber = number

		err = s.repo.Create(ctx, token)
		if err == nil {
			break
		}
		if !apperrors.IsCode(err, apperrors.ErrAllocationConflict) || attempt >= maxAllocationRetries {
			return nil, fmt.Errorf("failed to create token: %w", err)
		}
		s.metrics.AllocationRetries.Inc()
		log.Warn().Str("service_id", req.ServiceID.String()).Int("attempt", attempt+1).Msg("token number allocation conflict, retrying")
	}

	s.metrics.TokensIssued.WithLabelValues(req.ServiceID.String()).Inc()
	s.auditor.Log(ctx, req.UserID, "create", "token", token.ID, &audit.LogOptions{Details: token})
	s.emitEvent(ctx, model.EventTokenCreated, token)

	return token, nil
}

func (s *Service) GetToken(ctx context.Context, id uuid.UUID) (*model.Token, error) {
	return s.repo.Get(ctx, id)
}

// ApplyTransition moves a token to the target status. Legality is checked
// against the durably read state under a per-token lock; re-applying the
// already-reached target is a no-op success so racing staff retries never
// see spurious failures. Notifications fire only when the stored status
// actually changed.
func (s *Service) ApplyTransition(ctx context.Context, id uuid.UUID, target model.TokenStatus, actorID *uuid.UUID) (*model.Token, error) {
	token, changed, err := s.repo.Transition(ctx, id, target)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrIllegalTransition) {
			s.metrics.IllegalTransitions.Inc()
		}
		return nil, err
	}
	if !changed {
		return token, nil
	}
	s.metrics.TokenTransitions.WithLabelValues(string(target)).Inc()

	if target == model.TokenStatusCalling {
		if err := s.notifSvc.TokenCalled(ctx, token); err != nil {
			log.Error().Err(err).Str("token_id", token.ID.String()).Msg("failed to generate called notification")
		}
	}

	s.auditor.Log(ctx, actorID, "transition:"+string(target), "token", token.ID, nil)
	s.emitEvent(ctx, model.EventTokenTransition, token)

	return token, nil
}

// ListQueue is the poll contract: a side-effect-free snapshot of every token
// for the service's current issue date plus the advisory "now serving"
// token. Safe to call arbitrarily often.
func (s *Service) ListQueue(ctx context.Context, serviceID uuid.UUID) (*model.QueueSnapshot, error) {
	exists, err := s.dirSvc.ServiceExists(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check service: %w", err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("service", nil)
	}

	today := time.Now()
	tokens, err := s.repo.ListForDate(ctx, serviceID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}

	current, err := s.repo.CurrentCalling(ctx, serviceID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current token: %w", err)
	}

	return &model.QueueSnapshot{
		ServiceID: serviceID,
		Tokens:    tokens,
		Current:   current,
	}, nil
}

// CallNext calls the head of the ordered waiting list: scheduled tokens by
// appointment time, walk-ins last, token number breaking ties.
func (s *Service) CallNext(ctx context.Context, serviceID uuid.UUID, actorID *uuid.UUID) (*model.Token, error) {
	waiting, err := s.repo.ListWaiting(ctx, serviceID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting tokens: %w", err)
	}
	if len(waiting) == 0 {
		return nil, apperrors.NewNotFound("waiting token", nil)
	}

	return s.ApplyTransition(ctx, waiting[0].ID, model.TokenStatusCalling, actorID)
}

// CancelAllWaiting cancels every currently waiting token for the service.
// Each token's transition is independently atomic; a token that a concurrent
// staff action moved out of waiting is skipped and the rest proceed, so
// partial completion always leaves a valid state reconcilable by re-polling.
func (s *Service) CancelAllWaiting(ctx context.Context, serviceID uuid.UUID, reason string, actorID *uuid.UUID) (*model.CancelAllResult, error) {
	exists, err := s.dirSvc.ServiceExists(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check service: %w", err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("service", nil)
	}

	waiting, err := s.repo.ListWaiting(ctx, serviceID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting tokens: %w", err)
	}

	cancelled := make([]*model.Token, 0, len(waiting))
	for _, t := range waiting {
		token, changed, err := s.repo.Transition(ctx, t.ID, model.TokenStatusCancelled)
		if err != nil {
			if apperrors.IsCode(err, apperrors.ErrIllegalTransition) || apperrors.IsCode(err, apperrors.ErrNotFound) {
				// Lost a race with a concurrent transition; the token is no
				// longer ours to cancel.
				continue
			}
			return nil, fmt.Errorf("failed to cancel token %s: %w", t.ID, err)
		}
		if changed {
			cancelled = append(cancelled, token)
			s.metrics.TokenTransitions.WithLabelValues(string(model.TokenStatusCancelled)).Inc()
		}
	}

	batchID, err := s.notifSvc.BatchCancelled(ctx, cancelled, reason)
	if err != nil {
		log.Error().Err(err).Str("service_id", serviceID.String()).Msg("failed to generate cancellation notifications")
	}

	s.auditor.Log(ctx, actorID, "cancel_all", "service", serviceID, &audit.LogOptions{
		Details: map[string]interface{}{
			"reason":          reason,
			"batch_id":        batchID,
			"cancelled_count": len(cancelled),
		},
	})
	s.emitEvent(ctx, model.EventQueueCancelled, map[string]interface{}{
		"service_id":      serviceID,
		"batch_id":        batchID,
		"reason":          reason,
		"cancelled_count": len(cancelled),
	})

	return &model.CancelAllResult{CancelledCount: len(cancelled)}, nil
}

// DeleteToken removes a token from listings. Idempotent; distinct from
// cancellation, which is a status, not a removal.
func (s *Service) DeleteToken(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.Log(ctx, actorID, "delete", "token", id, nil)
	return nil
}

func (s *Service) emitEvent(ctx context.Context, eventType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal outbox payload")
		return
	}
	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   body,
	}
	if err := s.outbox.Create(ctx, event); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to enqueue outbox event")
	}
}
