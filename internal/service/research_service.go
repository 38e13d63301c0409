package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"advisor-finder/internal/domain"
	"advisor-finder/internal/repository"
)

// ResearchService expone el catalogo de categorias e intereses usado por los filtros.
type ResearchService struct {
	research repository.ResearchRepository
}

func NewResearchService(research repository.ResearchRepository) *ResearchService {
	return &ResearchService{research: research}
}

func (s *ResearchService) ListCategories(ctx context.Context) ([]domain.ResearchCategory, error) {
	if s.research == nil {
		return nil, errors.New("research service not configured")
	}
	return s.research.ListCategories(ctx)
}

func (s *ResearchService) ListInterests(ctx context.Context) ([]domain.ResearchInterest, error) {
	if s.research == nil {
		return nil, errors.New("research service not configured")
	}
	return s.research.ListInterests(ctx)
}

func (s *ResearchService) InterestsByCategory(ctx context.Context, categoryID int64) ([]domain.ResearchInterest, error) {
	if s.research == nil {
		return nil, errors.New("research service not configured")
	}
	return s.research.ListInterestsByCategory(ctx, categoryID)
}

// SearchInterests con keyword vacio devuelve todos los intereses.
func (s *ResearchService) SearchInterests(ctx context.Context, keyword string) ([]domain.ResearchInterest, error) {
	if s.research == nil {
		return nil, errors.New("research service not configured")
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.research.ListInterests(ctx)
	}
	return s.research.SearchInterests(ctx, keyword)
}

// Facets carga categorias e intereses en paralelo y los agrupa para los filtros.
func (s *ResearchService) Facets(ctx context.Context) ([]domain.FacetGroup, error) {
	if s.research == nil {
		return nil, errors.New("research service not configured")
	}

	var (
		categories []domain.ResearchCategory
		interests  []domain.ResearchInterest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.research.ListCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		interests, err = s.research.ListInterests(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return GroupFacets(categories, interests), nil
}

// GroupFacets agrupa intereses por categoria. Descarta categorias e intereses sin id,
// intereses sin categoria y los de categorias desconocidas. Respeta el orden de entrada.
func GroupFacets(categories []domain.ResearchCategory, interests []domain.ResearchInterest) []domain.FacetGroup {
	groups := make([]domain.FacetGroup, 0, len(categories))
	position := make(map[int64]int, len(categories))
	for _, c := range categories {
		if c.ID == 0 {
			continue
		}
		if _, dup := position[c.ID]; dup {
			continue
		}
		position[c.ID] = len(groups)
		groups = append(groups, domain.FacetGroup{Category: c, Interests: []domain.ResearchInterest{}})
	}

	for _, interest := range interests {
		if interest.ID == 0 || interest.CategoryID == 0 {
			continue
		}
		i, ok := position[interest.CategoryID]
		if !ok {
			continue
		}
		groups[i].Interests = append(groups[i].Interests, interest)
	}
	return groups
}
