package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"advisor-finder/internal/domain"
	"advisor-finder/internal/metrics"
	"advisor-finder/internal/repository"
)

var (
	// ErrNotEnrolled es el rechazo de autorizacion: el solicitante debe inscribirse.
	ErrNotEnrolled = errors.New("not-enrolled")
	// ErrIdentityMissing se reporta igual que ErrNotEnrolled.
	ErrIdentityMissing = fmt.Errorf("%w: identity missing", ErrNotEnrolled)
	ErrProfileNotFound = errors.New("profile-not-found")
)

// RefusalReason devuelve el motivo publico de un error de divulgacion, o "" si no es un rechazo.
func RefusalReason(err error) string {
	switch {
	case errors.Is(err, ErrNotEnrolled):
		return metrics.DisclosureNotEnrolled
	case errors.Is(err, ErrProfileNotFound):
		return metrics.DisclosureNotFound
	default:
		return ""
	}
}

// DisclosureService decide si una identidad puede ver los datos de contacto de un perfil.
// No guarda estado: la inscripcion se consulta en cada llamada.
type DisclosureService struct {
	logger     *zap.Logger
	enrollment repository.EnrollmentRepository
	profiles   repository.ProfileRepository
	metrics    *metrics.Metrics
}

func NewDisclosureService(
	logger *zap.Logger,
	enrollment repository.EnrollmentRepository,
	profiles repository.ProfileRepository,
	m *metrics.Metrics,
) *DisclosureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DisclosureService{
		logger:     logger,
		enrollment: enrollment,
		profiles:   profiles,
		metrics:    m,
	}
}

// Disclose devuelve los datos de contacto del perfil si identity esta inscrita.
// La inscripcion se verifica antes de leer el perfil.
func (s *DisclosureService) Disclose(ctx context.Context, profileID int64, identity string) (domain.ContactDetails, error) {
	if s.enrollment == nil || s.profiles == nil {
		return domain.ContactDetails{}, errors.New("disclosure service not configured")
	}

	identity = normalizeEmail(identity)
	if identity == "" {
		s.metrics.IncDisclosure(metrics.DisclosureNotEnrolled)
		return domain.ContactDetails{}, ErrIdentityMissing
	}

	enrolled, err := s.enrollment.IsEnrolled(ctx, identity)
	if err != nil {
		s.metrics.IncDisclosure(metrics.DisclosureError)
		return domain.ContactDetails{}, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		s.logger.Info("contact disclosure refused", zap.Int64("profile_id", profileID), zap.String("reason", "not-enrolled"))
		s.metrics.IncDisclosure(metrics.DisclosureNotEnrolled)
		return domain.ContactDetails{}, ErrNotEnrolled
	}

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.IncDisclosure(metrics.DisclosureNotFound)
			return domain.ContactDetails{}, ErrProfileNotFound
		}
		s.metrics.IncDisclosure(metrics.DisclosureError)
		return domain.ContactDetails{}, fmt.Errorf("get profile: %w", err)
	}

	s.metrics.IncDisclosure(metrics.DisclosureGranted)
	return profile.Contact, nil
}
