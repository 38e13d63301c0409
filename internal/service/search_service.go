package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"advisor-finder/internal/domain"
	"advisor-finder/internal/metrics"
	"advisor-finder/internal/repository"
)

// SearchService resuelve busquedas del directorio sobre la coleccion completa de perfiles.
type SearchService struct {
	logger   *zap.Logger
	profiles repository.ProfileRepository
	limits   SearchLimits
	metrics  *metrics.Metrics
}

func NewSearchService(logger *zap.Logger, profiles repository.ProfileRepository, limits SearchLimits, m *metrics.Metrics) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		logger:   logger,
		profiles: profiles,
		limits:   limits.withDefaults(),
		metrics:  m,
	}
}

// Search valida la consulta, carga los perfiles y devuelve las vistas publicas que coinciden.
// Devuelve *ValidationError si la consulta es invalida; en ese caso no se consulta el repositorio.
func (s *SearchService) Search(ctx context.Context, input SearchInput) ([]domain.PublicProfile, error) {
	spec, err := ParseSearchSpec(input, s.limits)
	if err != nil {
		s.metrics.IncSearch("invalid")
		return nil, err
	}
	return s.SearchSpec(ctx, spec)
}

// SearchSpec evalua un SearchSpec ya validado.
func (s *SearchService) SearchSpec(ctx context.Context, spec domain.SearchSpec) ([]domain.PublicProfile, error) {
	if s.profiles == nil {
		return nil, errors.New("search service not configured")
	}
	start := time.Now()

	profiles, err := s.profiles.ListAll(ctx)
	if err != nil {
		s.metrics.IncSearch("error")
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	matched := Evaluate(profiles, spec)
	s.metrics.IncSearch("ok")
	s.metrics.ObserveSearch(len(matched), time.Since(start))
	return toPublic(matched), nil
}

// ListPublic devuelve todos los perfiles sin campos restringidos.
func (s *SearchService) ListPublic(ctx context.Context) ([]domain.PublicProfile, error) {
	return s.SearchSpec(ctx, domain.SearchSpec{})
}

func (s *SearchService) GetPublic(ctx context.Context, id int64) (domain.PublicProfile, error) {
	if s.profiles == nil {
		return domain.PublicProfile{}, errors.New("search service not configured")
	}
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PublicProfile{}, ErrProfileNotFound
		}
		return domain.PublicProfile{}, err
	}
	return profile.Public(), nil
}

func toPublic(profiles []domain.Profile) []domain.PublicProfile {
	out := make([]domain.PublicProfile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Public())
	}
	return out
}
