package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDisabled indica que el API arranco sin un servidor de correo configurado.
var ErrDisabled = errors.New("email delivery disabled")

// EnrollmentCode es el correo que completa la inscripcion de un estudiante.
type EnrollmentCode struct {
	StudentID string
	Email     string
	Name      string
	Code      string
	ExpiresAt time.Time
}

// Sender entrega codigos de inscripcion.
type Sender interface {
	SendEnrollmentCode(ctx context.Context, msg EnrollmentCode) error
}

type disabledSender struct {
	reason string
}

// NewDisabledSender rechaza todos los envios con ErrDisabled.
func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: strings.TrimSpace(reason)}
}

func (s *disabledSender) SendEnrollmentCode(_ context.Context, _ EnrollmentCode) error {
	if s.reason == "" {
		return ErrDisabled
	}
	return fmt.Errorf("%w: %s", ErrDisabled, s.reason)
}
