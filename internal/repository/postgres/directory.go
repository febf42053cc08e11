package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/qtrack-api/internal/model"
	apperrors "github.com/jwalitptl/qtrack-api/pkg/errors"
)

// Read-only access to the provider/service directory.

func (r *directoryRepository) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	query := `
		SELECT id, provider_id, name, description, status, created_at
		FROM services
		WHERE id = $1
	`
	var service model.Service
	err := r.db.GetContext(ctx, &service, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("service", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &service, nil
}

func (r *directoryRepository) GetProvider(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	query := `
		SELECT id, name, location, working_hours, created_at
		FROM providers
		WHERE id = $1
	`
	var provider model.Provider
	err := r.db.GetContext(ctx, &provider, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("provider", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return &provider, nil
}

func (r *directoryRepository) ListProviders(ctx context.Context) ([]*model.Provider, error) {
	query := `
		SELECT id, name, location, working_hours, created_at
		FROM providers
		ORDER BY name ASC
	`
	var providers []*model.Provider
	if err := r.db.SelectContext(ctx, &providers, query); err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}

func (r *directoryRepository) ListServices(ctx context.Context, providerID uuid.UUID) ([]*model.Service, error) {
	query := `
		SELECT id, provider_id, name, description, status, created_at
		FROM services
		WHERE provider_id = $1
		ORDER BY name ASC
	`
	var services []*model.Service
	if err := r.db.SelectContext(ctx, &services, query, providerID); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}
