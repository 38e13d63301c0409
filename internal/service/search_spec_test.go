package service

import (
	"errors"
	"strings"
	"testing"
)

func TestParseSearchSpec_Valid(t *testing.T) {
	spec, err := ParseSearchSpec(SearchInput{
		Term:        "  machine learning ",
		CategoryIDs: []string{"1,2", "2", " 3 "},
		InterestIDs: []string{"10"},
	}, SearchLimits{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if spec.Term != "machine learning" {
		t.Fatalf("expected trimmed term, got %q", spec.Term)
	}
	if len(spec.CategoryIDs) != 3 {
		t.Fatalf("expected 3 unique categories, got %d", len(spec.CategoryIDs))
	}
	for _, id := range []int64{1, 2, 3} {
		if _, ok := spec.CategoryIDs[id]; !ok {
			t.Fatalf("expected category %d selected", id)
		}
	}
	if _, ok := spec.InterestIDs[10]; !ok {
		t.Fatalf("expected interest 10 selected")
	}
}

func TestParseSearchSpec_EmptyIsVacuous(t *testing.T) {
	spec, err := ParseSearchSpec(SearchInput{CategoryIDs: []string{"", " , "}}, SearchLimits{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if spec.Term != "" || len(spec.CategoryIDs) != 0 || len(spec.InterestIDs) != 0 {
		t.Fatalf("expected vacuous spec, got %+v", spec)
	}
}

func TestParseSearchSpec_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		input SearchInput
		field string
	}{
		{"utf8 invalido", SearchInput{Term: "ab\xffcd"}, "keyword"},
		{"termino largo", SearchInput{Term: strings.Repeat("a", 201)}, "keyword"},
		{"id no numerico", SearchInput{CategoryIDs: []string{"abc"}}, "categoryIds"},
		{"id cero", SearchInput{InterestIDs: []string{"0"}}, "interestIds"},
		{"id negativo", SearchInput{InterestIDs: []string{"-4"}}, "interestIds"},
		{"departamento utf8 invalido", SearchInput{Department: "c\xffs"}, "department"},
		{"departamento largo", SearchInput{Department: strings.Repeat("d", 201)}, "department"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSearchSpec(tc.input, SearchLimits{})
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, verr.Field)
			}
		})
	}
}

func TestParseSearchSpec_DepartmentTrimmed(t *testing.T) {
	spec, err := ParseSearchSpec(SearchInput{Department: "  Computer Science "}, SearchLimits{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if spec.Department != "Computer Science" || spec.Term != "" {
		t.Fatalf("expected trimmed department only, got %+v", spec)
	}
}

func TestParseSearchSpec_TermLengthCountsRunes(t *testing.T) {
	term := strings.Repeat("é", 200)
	if _, err := ParseSearchSpec(SearchInput{Term: term}, SearchLimits{}); err != nil {
		t.Fatalf("expected 200 runes accepted, got %v", err)
	}
	if _, err := ParseSearchSpec(SearchInput{Term: "abcd"}, SearchLimits{MaxTermLength: 3}); err == nil {
		t.Fatalf("expected custom limit enforced")
	}
}

func TestParseSearchSpec_FacetLimit(t *testing.T) {
	if _, err := ParseSearchSpec(SearchInput{CategoryIDs: []string{"1,2,3"}}, SearchLimits{MaxFacets: 2}); err == nil {
		t.Fatalf("expected facet limit enforced")
	}
	if _, err := ParseSearchSpec(SearchInput{CategoryIDs: []string{"1,1,1,2"}}, SearchLimits{MaxFacets: 2}); err != nil {
		t.Fatalf("expected duplicates not counted, got %v", err)
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID(" 42 "); err != nil || id != 42 {
		t.Fatalf("expected 42, got %d %v", id, err)
	}
	for _, raw := range []string{"", "0", "-1", "1.5", "x"} {
		if _, err := ParseID(raw); err == nil {
			t.Fatalf("expected %q rejected", raw)
		}
	}
}
