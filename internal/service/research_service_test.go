package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"advisor-finder/internal/domain"
)

type mockResearchRepo struct {
	categories  []domain.ResearchCategory
	interests   []domain.ResearchInterest
	err         error
	searchCalls int
}

func (m *mockResearchRepo) ListCategories(_ context.Context) ([]domain.ResearchCategory, error) {
	return m.categories, m.err
}

func (m *mockResearchRepo) ListInterests(_ context.Context) ([]domain.ResearchInterest, error) {
	return m.interests, m.err
}

func (m *mockResearchRepo) ListInterestsByCategory(_ context.Context, categoryID int64) ([]domain.ResearchInterest, error) {
	var out []domain.ResearchInterest
	for _, i := range m.interests {
		if i.CategoryID == categoryID {
			out = append(out, i)
		}
	}
	return out, m.err
}

func (m *mockResearchRepo) SearchInterests(_ context.Context, keyword string) ([]domain.ResearchInterest, error) {
	m.searchCalls++
	var out []domain.ResearchInterest
	for _, i := range m.interests {
		if strings.Contains(strings.ToLower(i.Name), strings.ToLower(keyword)) {
			out = append(out, i)
		}
	}
	return out, m.err
}

func (m *mockResearchRepo) GetInterestsByIDs(_ context.Context, ids []int64) ([]domain.ResearchInterest, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.ResearchInterest
	for _, i := range m.interests {
		for _, id := range ids {
			if i.ID == id {
				out = append(out, i)
			}
		}
	}
	return out, nil
}

func (m *mockResearchRepo) UpsertCategory(_ context.Context, category domain.ResearchCategory) (domain.ResearchCategory, error) {
	for _, c := range m.categories {
		if c.Name == category.Name {
			return c, nil
		}
	}
	category.ID = int64(len(m.categories) + 1)
	m.categories = append(m.categories, category)
	return category, nil
}

func (m *mockResearchRepo) UpsertInterest(_ context.Context, interest domain.ResearchInterest) (domain.ResearchInterest, error) {
	for _, i := range m.interests {
		if i.Name == interest.Name {
			return i, nil
		}
	}
	interest.ID = int64(len(m.interests) + 1)
	m.interests = append(m.interests, interest)
	return interest, nil
}

func (m *mockResearchRepo) CountCategories(_ context.Context) (int64, error) {
	return int64(len(m.categories)), m.err
}

func catalogRepo() *mockResearchRepo {
	return &mockResearchRepo{
		categories: []domain.ResearchCategory{
			{ID: 1, Name: "Engineering"},
			{ID: 2, Name: "Computer Science"},
		},
		interests: []domain.ResearchInterest{
			{ID: 10, Name: "Robotics", CategoryID: 1},
			{ID: 20, Name: "Machine Learning", CategoryID: 2},
			{ID: 21, Name: "Databases", CategoryID: 2},
		},
	}
}

func TestGroupFacets_GroupsInInputOrder(t *testing.T) {
	repo := catalogRepo()
	groups := GroupFacets(repo.categories, repo.interests)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Category.ID != 1 || groups[1].Category.ID != 2 {
		t.Fatalf("expected category order preserved")
	}
	var names []string
	for _, i := range groups[1].Interests {
		names = append(names, i.Name)
	}
	if !reflect.DeepEqual(names, []string{"Machine Learning", "Databases"}) {
		t.Fatalf("unexpected interests: %v", names)
	}
}

func TestGroupFacets_DropsMalformedEntries(t *testing.T) {
	categories := []domain.ResearchCategory{
		{ID: 0, Name: "Sin id"},
		{ID: 1, Name: "Engineering"},
		{ID: 1, Name: "Engineering duplicada"},
		{ID: 3, Name: "Vacia"},
	}
	interests := []domain.ResearchInterest{
		{ID: 0, Name: "Sin id", CategoryID: 1},
		{ID: 5, Name: "Sin categoria"},
		{ID: 6, Name: "Categoria desconocida", CategoryID: 99},
		{ID: 7, Name: "Robotics", CategoryID: 1},
	}

	groups := GroupFacets(categories, interests)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Category.Name != "Engineering" || len(groups[0].Interests) != 1 || groups[0].Interests[0].ID != 7 {
		t.Fatalf("unexpected first group: %+v", groups[0])
	}
	if groups[1].Interests == nil || len(groups[1].Interests) != 0 {
		t.Fatalf("expected empty non-nil interests for empty category")
	}
}

func TestResearchService_Facets(t *testing.T) {
	svc := NewResearchService(catalogRepo())

	groups, err := svc.Facets(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(groups) != 2 || len(groups[0].Interests) != 1 || len(groups[1].Interests) != 2 {
		t.Fatalf("unexpected groups: %+v", groups)
	}
}

func TestResearchService_FacetsError(t *testing.T) {
	repo := catalogRepo()
	repo.err = errors.New("db down")
	svc := NewResearchService(repo)

	if _, err := svc.Facets(context.Background()); !errors.Is(err, repo.err) {
		t.Fatalf("expected repository error, got %v", err)
	}
}

func TestResearchService_SearchInterests(t *testing.T) {
	repo := catalogRepo()
	svc := NewResearchService(repo)

	all, err := svc.SearchInterests(context.Background(), "  ")
	if err != nil || len(all) != 3 {
		t.Fatalf("expected all interests for blank keyword, got %d %v", len(all), err)
	}
	if repo.searchCalls != 0 {
		t.Fatalf("expected blank keyword to skip search")
	}

	found, err := svc.SearchInterests(context.Background(), "learn")
	if err != nil || len(found) != 1 || found[0].ID != 20 {
		t.Fatalf("expected Machine Learning, got %v %v", found, err)
	}
}

func TestResearchService_InterestsByCategory(t *testing.T) {
	svc := NewResearchService(catalogRepo())

	got, err := svc.InterestsByCategory(context.Background(), 2)
	if err != nil || len(got) != 2 {
		t.Fatalf("expected 2 interests, got %d %v", len(got), err)
	}
}
