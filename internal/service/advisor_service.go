package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"advisor-finder/internal/domain"
	"advisor-finder/internal/repository"
)

// AdvisorService registra perfiles de asesores en el directorio.
type AdvisorService struct {
	logger   *zap.Logger
	profiles repository.ProfileRepository
	research repository.ResearchRepository
}

func NewAdvisorService(logger *zap.Logger, profiles repository.ProfileRepository, research repository.ResearchRepository) *AdvisorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisorService{
		logger:   logger,
		profiles: profiles,
		research: research,
	}
}

type RegisterAdvisorInput struct {
	FirstName       string
	LastName        string
	Email           string
	Title           string
	Department      string
	Bio             string
	Phone           string
	OfficeLocation  string
	OfficeHours     string
	ProfileImageURL string
	InterestIDs     []int64
}

var (
	ErrAdvisorEmailTaken = errors.New("advisor email already exists")
	ErrUnknownInterest   = errors.New("unknown research interest")
)

// Longitudes maximas por campo, alineadas con el esquema.
var advisorFieldLimits = []struct {
	field string
	max   int
	value func(RegisterAdvisorInput) string
}{
	{"first_name", 50, func(in RegisterAdvisorInput) string { return in.FirstName }},
	{"last_name", 50, func(in RegisterAdvisorInput) string { return in.LastName }},
	{"title", 50, func(in RegisterAdvisorInput) string { return in.Title }},
	{"department", 100, func(in RegisterAdvisorInput) string { return in.Department }},
	{"phone", 20, func(in RegisterAdvisorInput) string { return in.Phone }},
	{"office_location", 100, func(in RegisterAdvisorInput) string { return in.OfficeLocation }},
	{"office_hours", 100, func(in RegisterAdvisorInput) string { return in.OfficeHours }},
}

// Register valida los datos, resuelve los intereses y crea el perfil.
func (s *AdvisorService) Register(ctx context.Context, input RegisterAdvisorInput) (domain.Profile, error) {
	if s.profiles == nil || s.research == nil {
		return domain.Profile{}, errors.New("advisor service not configured")
	}

	if err := validateAdvisor(input); err != nil {
		return domain.Profile{}, err
	}
	emailAddr := normalizeEmail(input.Email)

	exists, err := s.profiles.ExistsByEmail(ctx, emailAddr)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("check advisor email: %w", err)
	}
	if exists {
		return domain.Profile{}, ErrAdvisorEmailTaken
	}

	interests, err := s.resolveInterests(ctx, input.InterestIDs)
	if err != nil {
		return domain.Profile{}, err
	}

	profile := domain.Profile{
		FirstName:       strings.TrimSpace(input.FirstName),
		LastName:        strings.TrimSpace(input.LastName),
		Title:           strings.TrimSpace(input.Title),
		Department:      strings.TrimSpace(input.Department),
		Bio:             optionalString(input.Bio),
		ProfileImageURL: strings.TrimSpace(input.ProfileImageURL),
		Interests:       interests,
		Contact: domain.ContactDetails{
			Email:          emailAddr,
			Phone:          optionalString(input.Phone),
			OfficeLocation: optionalString(input.OfficeLocation),
			OfficeHours:    optionalString(input.OfficeHours),
		},
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.profiles.Create(ctx, profile)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.Profile{}, ErrAdvisorEmailTaken
		}
		return domain.Profile{}, err
	}
	s.logger.Info("advisor registered", zap.Int64("profile_id", created.ID), zap.Int("interests", len(created.Interests)))
	return created, nil
}

func validateAdvisor(input RegisterAdvisorInput) error {
	if strings.TrimSpace(input.FirstName) == "" {
		return &ValidationError{Field: "first_name", Reason: "is required"}
	}
	if strings.TrimSpace(input.LastName) == "" {
		return &ValidationError{Field: "last_name", Reason: "is required"}
	}
	emailAddr := normalizeEmail(input.Email)
	if !isValidEmail(emailAddr) {
		return &ValidationError{Field: "email", Reason: "must be a valid email"}
	}
	if err := checkEmailLength(emailAddr); err != nil {
		return err
	}
	for _, limit := range advisorFieldLimits {
		if utf8.RuneCountInString(strings.TrimSpace(limit.value(input))) > limit.max {
			return &ValidationError{Field: limit.field, Reason: fmt.Sprintf("must be at most %d characters", limit.max)}
		}
	}
	return nil
}

// resolveInterests conserva el orden de ids y rechaza ids inexistentes.
func (s *AdvisorService) resolveInterests(ctx context.Context, ids []int64) ([]domain.ResearchInterest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := s.research.GetInterestsByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("load interests: %w", err)
	}
	byID := make(map[int64]domain.ResearchInterest, len(found))
	for _, interest := range found {
		byID[interest.ID] = interest
	}

	interests := make([]domain.ResearchInterest, 0, len(unique))
	for _, id := range unique {
		interest, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownInterest, id)
		}
		interests = append(interests, interest)
	}
	return interests, nil
}
