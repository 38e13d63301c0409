package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	enrollmentSubject = "Your advisor directory enrollment code"
	defaultSMTPPort   = 587
	smtpDialTimeout   = 10 * time.Second
)

// SMTPConfig son los parametros del servidor de salida.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// ImplicitTLS abre la conexion con TLS (puerto 465); si es false se usa STARTTLS cuando el servidor lo ofrece.
	ImplicitTLS bool
}

type deliverFunc func(ctx context.Context, from, to string, msg []byte) error

// SMTPSender entrega codigos de inscripcion por SMTP.
type SMTPSender struct {
	logger  *zap.Logger
	cfg     SMTPConfig
	deliver deliverFunc
	now     func() time.Time
}

func NewSMTPSender(logger *zap.Logger, cfg SMTPConfig) (*SMTPSender, error) {
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.From = strings.TrimSpace(cfg.From)
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from is required")
	}
	if cfg.Port == 0 {
		cfg.Port = defaultSMTPPort
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SMTPSender{logger: logger, cfg: cfg, now: time.Now}
	s.deliver = s.dialAndSend
	return s, nil
}

// SendEnrollmentCode arma el mensaje y lo entrega. El codigo nunca se registra en logs.
func (s *SMTPSender) SendEnrollmentCode(ctx context.Context, code EnrollmentCode) error {
	to := strings.TrimSpace(code.Email)
	if to == "" {
		return errors.New("enrollment code recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := composeEnrollmentMessage(s.cfg, code, s.now())
	if err := s.deliver(ctx, s.cfg.From, to, msg); err != nil {
		return fmt.Errorf("deliver enrollment code: %w", err)
	}
	s.logger.Info("enrollment code sent",
		zap.String("student_id", code.StudentID),
		zap.Time("expires_at", code.ExpiresAt),
	)
	return nil
}

func (s *SMTPSender) dialAndSend(ctx context.Context, from, to string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	dialer := &net.Dialer{Timeout: smtpDialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if s.cfg.ImplicitTLS {
		conn = tls.Client(conn, &tls.Config{ServerName: s.cfg.Host})
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if !s.cfg.ImplicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				return err
			}
		}
	}
	if s.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func composeEnrollmentMessage(cfg SMTPConfig, code EnrollmentCode, now time.Time) []byte {
	from := cfg.From
	if name := strings.TrimSpace(cfg.FromName); name != "" {
		from = fmt.Sprintf("%s <%s>", name, cfg.From)
	}
	headers := []string{
		"From: " + from,
		"To: " + strings.TrimSpace(code.Email),
		"Subject: " + enrollmentSubject,
		"Date: " + now.UTC().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + enrollmentBody(code, now))
}

func enrollmentBody(code EnrollmentCode, now time.Time) string {
	greeting := "Hello,"
	if name := strings.TrimSpace(code.Name); name != "" {
		greeting = "Hello " + name + ","
	}
	validFor := code.ExpiresAt.Sub(now).Round(time.Minute)
	if validFor < time.Minute {
		validFor = time.Minute
	}
	return fmt.Sprintf(
		"%s\r\n\r\nYour enrollment code is %s.\r\nIt is valid for %d min (until %s UTC).\r\n\r\n"+
			"Enter it in the advisor directory to unlock lecturer contact details.\r\n",
		greeting,
		code.Code,
		int(validFor/time.Minute),
		code.ExpiresAt.UTC().Format("2006-01-02 15:04"),
	)
}
