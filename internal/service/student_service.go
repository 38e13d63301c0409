package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"advisor-finder/internal/domain"
	"advisor-finder/internal/email"
	"advisor-finder/internal/repository"
)

// StudentService coordina el registro e inscripcion de estudiantes.
type StudentService struct {
	logger      *zap.Logger
	students    repository.StudentRepository
	emailSender email.Sender
	otpLimiter  OTPRateLimiter
}

func NewStudentService(logger *zap.Logger, students repository.StudentRepository, emailSender email.Sender, otpLimiter OTPRateLimiter) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if otpLimiter == nil {
		otpLimiter = NewOTPRateLimiter(otpTTL, 3)
	}
	return &StudentService{
		logger:      logger,
		students:    students,
		emailSender: emailSender,
		otpLimiter:  otpLimiter,
	}
}

type RegisterStudentInput struct {
	FirstName     string
	LastName      string
	Email         string
	Password      string
	Phone         string
	StudentNumber string
	Program       string
	YearOfStudy   *int
	Interests     string
}

var (
	ErrStudentNotFound    = errors.New("student not found")
	ErrEmailTaken         = errors.New("email already exists")
	ErrStudentNumberTaken = errors.New("student id already exists")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidName        = errors.New("first and last name are required")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrAlreadyEnrolled    = errors.New("student already enrolled")
	ErrOTPNotRequested    = errors.New("otp not requested")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPInvalid         = errors.New("otp invalid")
	ErrEmailSendFailure   = errors.New("email send failed")
	ErrRateLimited        = errors.New("rate limited")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// CodeRateLimitError indica cuanto falta para poder pedir otro codigo. Envuelve ErrRateLimited.
type CodeRateLimitError struct {
	RetryAfter time.Duration
}

func (e *CodeRateLimitError) Error() string {
	return fmt.Sprintf("%s: retry in %s", ErrRateLimited, e.RetryAfter.Round(time.Second))
}

func (e *CodeRateLimitError) Unwrap() error { return ErrRateLimited }

const (
	otpTTL            = 10 * time.Minute
	minPasswordLength = 8
	maxNameLength     = 50
	maxEmailLength    = 255
)

// Register valida y guarda un estudiante nuevo. Queda inscrito al verificar su email.
func (s *StudentService) Register(ctx context.Context, input RegisterStudentInput) (domain.Student, error) {
	if s.students == nil {
		return domain.Student{}, errors.New("student service not configured")
	}

	emailAddr := normalizeEmail(input.Email)
	if !isValidEmail(emailAddr) {
		return domain.Student{}, ErrInvalidEmail
	}
	if err := checkEmailLength(emailAddr); err != nil {
		return domain.Student{}, err
	}
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" || lastName == "" ||
		utf8.RuneCountInString(firstName) > maxNameLength || utf8.RuneCountInString(lastName) > maxNameLength {
		return domain.Student{}, ErrInvalidName
	}
	password := strings.TrimSpace(input.Password)
	if password != "" && len(password) < minPasswordLength {
		return domain.Student{}, ErrWeakPassword
	}

	exists, err := s.students.ExistsByEmail(ctx, emailAddr)
	if err != nil {
		return domain.Student{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.Student{}, ErrEmailTaken
	}

	studentNumber := optionalString(input.StudentNumber)
	if studentNumber != nil {
		taken, err := s.students.ExistsByStudentNumber(ctx, *studentNumber)
		if err != nil {
			return domain.Student{}, fmt.Errorf("check student id: %w", err)
		}
		if taken {
			return domain.Student{}, ErrStudentNumberTaken
		}
	}

	var passwordHash string
	if password != "" {
		hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return domain.Student{}, err
		}
		passwordHash = string(hashBytes)
	}

	student := domain.Student{
		ID:            uuid.NewString(),
		FirstName:     firstName,
		LastName:      lastName,
		Email:         emailAddr,
		Phone:         optionalString(input.Phone),
		StudentNumber: studentNumber,
		Program:       strings.TrimSpace(input.Program),
		YearOfStudy:   input.YearOfStudy,
		Interests:     strings.TrimSpace(input.Interests),
		PasswordHash:  passwordHash,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.students.Create(ctx, student); err != nil {
		// Otro registro concurrente pudo ganar entre ExistsByEmail y el INSERT.
		if constraint, ok := uniqueViolation(err); ok {
			if strings.Contains(constraint, "student_number") {
				return domain.Student{}, ErrStudentNumberTaken
			}
			return domain.Student{}, ErrEmailTaken
		}
		return domain.Student{}, err
	}

	s.logger.Info("student registered", zap.String("student_id", student.ID))
	return student, nil
}

// EmailRegistered indica si existe un estudiante con ese email, verificado o no.
func (s *StudentService) EmailRegistered(ctx context.Context, emailAddr string) (bool, error) {
	if s.students == nil {
		return false, errors.New("student service not configured")
	}
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return false, nil
	}
	return s.students.ExistsByEmail(ctx, emailAddr)
}

func (s *StudentService) GetByEmail(ctx context.Context, emailAddr string) (domain.Student, error) {
	if s.students == nil {
		return domain.Student{}, errors.New("student service not configured")
	}
	student, err := s.students.GetByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Student{}, ErrStudentNotFound
		}
		return domain.Student{}, err
	}
	return student, nil
}

func (s *StudentService) Authenticate(ctx context.Context, emailAddr, password string) (domain.Student, error) {
	if s.students == nil {
		return domain.Student{}, errors.New("student service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.Student{}, ErrInvalidCredentials
	}
	student, err := s.students.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Student{}, ErrInvalidCredentials
		}
		return domain.Student{}, err
	}
	if student.PasswordHash == "" {
		return domain.Student{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(password)); err != nil {
		return domain.Student{}, ErrInvalidCredentials
	}
	return student, nil
}

// RequestOTP envia un codigo de inscripcion a un estudiante registrado y aun no verificado.
func (s *StudentService) RequestOTP(ctx context.Context, emailAddr string) (domain.Student, error) {
	if s.students == nil {
		return domain.Student{}, errors.New("student service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.Student{}, ErrInvalidEmail
	}

	student, err := s.students.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Student{}, ErrStudentNotFound
		}
		return domain.Student{}, err
	}
	if student.Enrolled() {
		return student, ErrAlreadyEnrolled
	}

	if s.otpLimiter != nil {
		if quota := s.otpLimiter.Allow(ctx, student.ID); !quota.Allowed {
			return domain.Student{}, &CodeRateLimitError{RetryAfter: quota.RetryAfter}
		}
	}

	code, hash, expiresAt, err := generateOTP()
	if err != nil {
		return domain.Student{}, err
	}

	if err := s.students.UpdateOTP(ctx, student.ID, hash, expiresAt); err != nil {
		return domain.Student{}, err
	}

	if s.emailSender == nil {
		return domain.Student{}, ErrEmailSendFailure
	}
	err = s.emailSender.SendEnrollmentCode(ctx, email.EnrollmentCode{
		StudentID: student.ID,
		Email:     emailAddr,
		Name:      student.DisplayName(),
		Code:      code,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		if errors.Is(err, email.ErrDisabled) {
			s.logger.Warn("enrollment code not sent: email disabled", zap.String("student_id", student.ID))
		} else {
			s.logger.Error("send enrollment code failed", zap.Error(err), zap.String("student_id", student.ID))
		}
		return domain.Student{}, fmt.Errorf("%w: %v", ErrEmailSendFailure, err)
	}

	student.OtpExpiresAt = &expiresAt
	return student, nil
}

// VerifyOTP completa la inscripcion si el codigo es valido y no expiro.
func (s *StudentService) VerifyOTP(ctx context.Context, emailAddr, code string) (domain.Student, error) {
	if s.students == nil {
		return domain.Student{}, errors.New("student service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	if emailAddr == "" {
		return domain.Student{}, ErrInvalidEmail
	}
	if !isValidOTPCode(code) {
		return domain.Student{}, ErrOTPInvalid
	}

	student, err := s.students.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Student{}, ErrStudentNotFound
		}
		return domain.Student{}, err
	}

	if student.OtpCodeHash == "" || student.OtpExpiresAt == nil {
		return domain.Student{}, ErrOTPNotRequested
	}
	if time.Now().UTC().After(*student.OtpExpiresAt) {
		return domain.Student{}, ErrOTPExpired
	}
	if !verifyOTP(code, student.OtpCodeHash) {
		return domain.Student{}, ErrOTPInvalid
	}

	verifiedAt := time.Now().UTC()
	if err := s.students.VerifyEmail(ctx, student.ID, verifiedAt); err != nil {
		return domain.Student{}, err
	}

	student.EmailVerifiedAt = &verifiedAt
	student.OtpCodeHash = ""
	student.OtpExpiresAt = nil
	s.logger.Info("student enrolled", zap.String("student_id", student.ID))
	return student, nil
}

func generateOTP() (string, string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", time.Time{}, err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", time.Time{}, err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])

	expiresAt := time.Now().UTC().Add(otpTTL)
	return code, saltStr + ":" + hash, expiresAt, nil
}

func verifyOTP(code, stored string) bool {
	saltStr, expectedHash, ok := strings.Cut(stored, ":")
	if !ok {
		return false
	}
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])
	return subtle.ConstantTimeCompare([]byte(hash), []byte(expectedHash)) == 1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmailLength(email string) error {
	if utf8.RuneCountInString(email) > maxEmailLength {
		return &ValidationError{Field: "email", Reason: fmt.Sprintf("must be at most %d characters", maxEmailLength)}
	}
	return nil
}

// uniqueViolation reporta si err es una violacion de unicidad de Postgres y sobre que constraint.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}

const uniqueViolationCode = "23505"

// isValidEmail exige un "@" que no este al inicio ni al final y ningun espacio.
func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\r\n")
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
