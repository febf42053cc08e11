package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/qtrack-api/internal/model"
	"github.com/jwalitptl/qtrack-api/internal/repository"
)

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

type LogOptions struct {
	Details   interface{}
	IPAddress string
}

// Log creates an audit log entry. Audit failures are logged and swallowed;
// they never fail the operation they describe.
func (s *Service) Log(ctx context.Context, actorID *uuid.UUID, action, entityType string, entityID uuid.UUID, opts *LogOptions) {
	entry := &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Now(),
	}

	if opts != nil {
		entry.IPAddress = opts.IPAddress
		if opts.Details != nil {
			details, err := json.Marshal(opts.Details)
			if err != nil {
				log.Error().Err(err).Str("action", action).Msg("failed to marshal audit details")
			} else {
				entry.Details = details
			}
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", action).Str("entity_id", entityID.String()).Msg("failed to write audit log")
	}
}

func (s *Service) List(ctx context.Context, entityID uuid.UUID) ([]*model.AuditLog, error) {
	return s.repo.List(ctx, entityID)
}
