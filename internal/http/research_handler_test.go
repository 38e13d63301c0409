package http

import (
	"net/http"
	"testing"

	"advisor-finder/internal/domain"
)

func TestResearchHandlerCatalog(t *testing.T) {
	ts := newTestServer(t, nil)
	seedDirectory(ts)

	var categories []domain.ResearchCategory
	rec := performRequest(ts.router, http.MethodGet, "/api/research/categories", nil)
	decodeBody(t, rec, &categories)
	if rec.Code != http.StatusOK || len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d %d", rec.Code, len(categories))
	}

	var interests []domain.ResearchInterest
	rec = performRequest(ts.router, http.MethodGet, "/api/research/interests/category/200", nil)
	decodeBody(t, rec, &interests)
	if rec.Code != http.StatusOK || len(interests) != 1 || interests[0].Name != "Algebra" {
		t.Fatalf("unexpected interests by category: %d %+v", rec.Code, interests)
	}

	rec = performRequest(ts.router, http.MethodGet, "/api/research/interests/category/x", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid category id, got %d", rec.Code)
	}

	rec = performRequest(ts.router, http.MethodGet, "/api/research/interests/search?keyword=alg", nil)
	interests = nil
	decodeBody(t, rec, &interests)
	if len(interests) != 1 || interests[0].ID != 20 {
		t.Fatalf("unexpected search result: %+v", interests)
	}
}

func TestResearchHandlerEmptyListsAreArrays(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := performRequest(ts.router, http.MethodGet, "/api/research/interests/category/5", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "[]" {
		t.Fatalf("expected empty array, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestResearchHandlerFacets(t *testing.T) {
	ts := newTestServer(t, nil)
	seedDirectory(ts)

	var groups []domain.FacetGroup
	rec := performRequest(ts.router, http.MethodGet, "/api/research/facets", nil)
	decodeBody(t, rec, &groups)
	if rec.Code != http.StatusOK || len(groups) != 2 {
		t.Fatalf("expected 2 facet groups, got %d %d", rec.Code, len(groups))
	}
	if groups[0].Category.ID != 100 || len(groups[0].Interests) != 1 {
		t.Fatalf("unexpected first group: %+v", groups[0])
	}
}
