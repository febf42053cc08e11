package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/qtrack-api/internal/model"
	"github.com/jwalitptl/qtrack-api/internal/repository"
	apperrors "github.com/jwalitptl/qtrack-api/pkg/errors"
)

// Service reads the provider/service directory owned by the identity
// service. Lookups are cached: directory rows change rarely and a short TTL
// is well within the staleness the poll contract already tolerates.
type Service struct {
	repo  repository.DirectoryRepository
	cache *cache.Cache
}

type Config struct {
	CacheDuration   time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		CacheDuration:   5 * time.Minute,
		CleanupInterval: 15 * time.Minute,
	}
}

func NewService(repo repository.DirectoryRepository, cfg Config) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cfg.CacheDuration, cfg.CleanupInterval),
	}
}

// ServiceExists reports whether the service id references a known service.
func (s *Service) ServiceExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.GetService(ctx, id)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	key := "service:" + id.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.Service), nil
	}

	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, svc)
	return svc, nil
}

// ProviderOf resolves the owning provider of a service.
func (s *Service) ProviderOf(ctx context.Context, serviceID uuid.UUID) (*model.Provider, error) {
	svc, err := s.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	key := "provider:" + svc.ProviderID.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.Provider), nil
	}

	provider, err := s.repo.GetProvider(ctx, svc.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve provider of service %s: %w", serviceID, err)
	}
	s.cache.SetDefault(key, provider)
	return provider, nil
}

func (s *Service) ListProviders(ctx context.Context) ([]*model.Provider, error) {
	return s.repo.ListProviders(ctx)
}

func (s *Service) ListServices(ctx context.Context, providerID uuid.UUID) ([]*model.Service, error) {
	return s.repo.ListServices(ctx, providerID)
}
