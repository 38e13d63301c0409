package service

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"advisor-finder/internal/domain"
)

const (
	defaultMaxTermLength = 200
	defaultMaxFacets     = 100
)

// SearchLimits acota el tamaño de una consulta.
type SearchLimits struct {
	MaxTermLength int
	MaxFacets     int
}

func (l SearchLimits) withDefaults() SearchLimits {
	if l.MaxTermLength <= 0 {
		l.MaxTermLength = defaultMaxTermLength
	}
	if l.MaxFacets <= 0 {
		l.MaxFacets = defaultMaxFacets
	}
	return l
}

// SearchInput es la consulta tal como llega desde la frontera HTTP o CLI.
type SearchInput struct {
	Term        string
	Department  string
	CategoryIDs []string
	InterestIDs []string
}

// ValidationError indica una consulta malformada. Se rechaza antes de evaluar.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ParseSearchSpec valida input y construye el SearchSpec correspondiente.
func ParseSearchSpec(input SearchInput, limits SearchLimits) (domain.SearchSpec, error) {
	limits = limits.withDefaults()

	term, err := parseText("keyword", input.Term, limits.MaxTermLength)
	if err != nil {
		return domain.SearchSpec{}, err
	}
	department, err := parseText("department", input.Department, limits.MaxTermLength)
	if err != nil {
		return domain.SearchSpec{}, err
	}

	categoryIDs, err := parseIDs("categoryIds", input.CategoryIDs, limits.MaxFacets)
	if err != nil {
		return domain.SearchSpec{}, err
	}
	interestIDs, err := parseIDs("interestIds", input.InterestIDs, limits.MaxFacets)
	if err != nil {
		return domain.SearchSpec{}, err
	}

	spec := domain.NewSearchSpec(term, categoryIDs, interestIDs)
	spec.Department = department
	return spec, nil
}

func parseText(field, raw string, max int) (string, error) {
	if !utf8.ValidString(raw) {
		return "", &ValidationError{Field: field, Reason: "must be valid UTF-8"}
	}
	text := strings.TrimSpace(raw)
	if utf8.RuneCountInString(text) > max {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("must be at most %d characters", max)}
	}
	return text, nil
}

// parseIDs acepta valores repetidos o separados por comas; ignora entradas vacias.
func parseIDs(field string, raw []string, max int) ([]int64, error) {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := ParseID(part)
			if err != nil {
				return nil, &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a valid id", part)}
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			if len(ids) > max {
				return nil, &ValidationError{Field: field, Reason: fmt.Sprintf("at most %d values allowed", max)}
			}
		}
	}
	return ids, nil
}

// ParseID interpreta un identificador positivo en base 10.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive: %d", id)
	}
	return id, nil
}
