package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"advisor-finder/internal/domain"
	"advisor-finder/internal/email"
)

type mockStudentRepo struct {
	studentsByID    map[string]domain.Student
	studentsByEmail map[string]string
	enrollmentErr   error
	enrollmentCalls int
	createErr       error
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{
		studentsByID:    make(map[string]domain.Student),
		studentsByEmail: make(map[string]string),
	}
}

func (m *mockStudentRepo) Create(_ context.Context, student domain.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.studentsByID[student.ID] = student
	if student.Email != "" {
		m.studentsByEmail[student.Email] = student.ID
	}
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (domain.Student, error) {
	student, ok := m.studentsByID[id]
	if !ok {
		return domain.Student{}, pgx.ErrNoRows
	}
	return student, nil
}

func (m *mockStudentRepo) GetByEmail(ctx context.Context, email string) (domain.Student, error) {
	id, ok := m.studentsByEmail[email]
	if !ok {
		return domain.Student{}, pgx.ErrNoRows
	}
	return m.GetByID(ctx, id)
}

func (m *mockStudentRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := m.studentsByEmail[email]
	return ok, nil
}

func (m *mockStudentRepo) ExistsByStudentNumber(_ context.Context, studentNumber string) (bool, error) {
	for _, s := range m.studentsByID {
		if s.StudentNumber != nil && *s.StudentNumber == studentNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) UpdateOTP(_ context.Context, id, otpHash string, otpExpiresAt time.Time) error {
	student, ok := m.studentsByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	student.OtpCodeHash = otpHash
	student.OtpExpiresAt = &otpExpiresAt
	m.studentsByID[id] = student
	return nil
}

func (m *mockStudentRepo) VerifyEmail(_ context.Context, id string, verifiedAt time.Time) error {
	student, ok := m.studentsByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	student.EmailVerifiedAt = &verifiedAt
	student.OtpCodeHash = ""
	student.OtpExpiresAt = nil
	m.studentsByID[id] = student
	return nil
}

func (m *mockStudentRepo) IsEnrolled(_ context.Context, identity string) (bool, error) {
	m.enrollmentCalls++
	if m.enrollmentErr != nil {
		return false, m.enrollmentErr
	}
	id, ok := m.studentsByEmail[identity]
	if !ok {
		return false, nil
	}
	return m.studentsByID[id].Enrolled(), nil
}

type mockEmailSender struct {
	lastTo      string
	lastName    string
	lastCode    string
	lastStudent string
	lastExpires time.Time
	err         error
}

func (m *mockEmailSender) SendEnrollmentCode(_ context.Context, msg email.EnrollmentCode) error {
	m.lastTo = msg.Email
	m.lastName = msg.Name
	m.lastCode = msg.Code
	m.lastStudent = msg.StudentID
	m.lastExpires = msg.ExpiresAt
	return m.err
}

type mockLimiter struct {
	allow      bool
	retryAfter time.Duration
	studentIDs []string
}

func (m *mockLimiter) Allow(_ context.Context, studentID string) EnrollmentQuota {
	m.studentIDs = append(m.studentIDs, studentID)
	return EnrollmentQuota{Allowed: m.allow, RetryAfter: m.retryAfter}
}

func registerTestStudent(t *testing.T, svc *StudentService, email string) domain.Student {
	t.Helper()
	student, err := svc.Register(context.Background(), RegisterStudentInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "supersecret",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return student
}

func TestStudentServiceRegister_Success(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(zap.NewNop(), repo, &mockEmailSender{}, nil)

	student, err := svc.Register(context.Background(), RegisterStudentInput{
		FirstName:     " Ada ",
		LastName:      "Lovelace",
		Email:         " Ada@Example.com ",
		Password:      "supersecret",
		StudentNumber: "S-001",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if student.ID == "" {
		t.Fatalf("expected id to be generated")
	}
	if student.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %s", student.Email)
	}
	if student.FirstName != "Ada" {
		t.Fatalf("expected trimmed first name, got %q", student.FirstName)
	}
	if student.PasswordHash == "" || student.PasswordHash == "supersecret" {
		t.Fatalf("expected hashed password")
	}
	if student.Enrolled() {
		t.Fatalf("expected new student not enrolled")
	}
	if _, err := repo.GetByEmail(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("expected student stored, got %v", err)
	}
}

func TestStudentServiceRegister_Validation(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(zap.NewNop(), repo, &mockEmailSender{}, nil)

	cases := []struct {
		name  string
		input RegisterStudentInput
		want  error
	}{
		{"email invalido", RegisterStudentInput{FirstName: "A", LastName: "B", Email: "nope"}, ErrInvalidEmail},
		{"sin nombre", RegisterStudentInput{LastName: "B", Email: "a@b.c"}, ErrInvalidName},
		{"password corto", RegisterStudentInput{FirstName: "A", LastName: "B", Email: "a@b.c", Password: "short"}, ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestStudentServiceRegister_Duplicates(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(zap.NewNop(), repo, &mockEmailSender{}, nil)

	_, err := svc.Register(context.Background(), RegisterStudentInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", StudentNumber: "S-1",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterStudentInput{
		FirstName: "Ada", LastName: "Byron", Email: "ADA@example.com",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterStudentInput{
		FirstName: "Bob", LastName: "Byron", Email: "bob@example.com", StudentNumber: "S-1",
	})
	if !errors.Is(err, ErrStudentNumberTaken) {
		t.Fatalf("expected ErrStudentNumberTaken, got %v", err)
	}
}

func TestStudentServiceRegister_EmailTooLong(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(zap.NewNop(), repo, &mockEmailSender{}, nil)

	_, err := svc.Register(context.Background(), RegisterStudentInput{
		FirstName: "Ada", LastName: "Lovelace", Email: strings.Repeat("a", 250) + "@example.com",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "email" {
		t.Fatalf("expected ValidationError on email, got %v", err)
	}
	if len(repo.studentsByID) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestStudentServiceRegister_CreateConflict(t *testing.T) {
	cases := []struct {
		name      string
		createErr error
		want      error
	}{
		{"email", &pgconn.PgError{Code: "23505", ConstraintName: "students_email_key"}, ErrEmailTaken},
		{"numero de estudiante", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "students_student_number_key"}), ErrStudentNumberTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockStudentRepo()
			repo.createErr = tc.createErr
			svc := NewStudentService(zap.NewNop(), repo, &mockEmailSender{}, nil)

			_, err := svc.Register(context.Background(), RegisterStudentInput{
				FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", StudentNumber: "S-1",
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	repo := newMockStudentRepo()
	repo.createErr = errors.New("db down")
	svc := NewStudentService(zap.NewNop(), repo, &mockEmailSender{}, nil)
	_, err := svc.Register(context.Background(), RegisterStudentInput{FirstName: "A", LastName: "B", Email: "a@b.c"})
	if !errors.Is(err, repo.createErr) {
		t.Fatalf("expected repository error to pass through, got %v", err)
	}
}

func TestStudentServiceRequestOTP_SendsCode(t *testing.T) {
	repo := newMockStudentRepo()
	sender := &mockEmailSender{}
	svc := NewStudentService(zap.NewNop(), repo, sender, nil)
	registerTestStudent(t, svc, "ada@example.com")

	start := time.Now().UTC()
	student, err := svc.RequestOTP(context.Background(), "Ada@Example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if student.Email != "ada@example.com" {
		t.Fatalf("expected email ada@example.com, got %s", student.Email)
	}
	if sender.lastTo != "ada@example.com" {
		t.Fatalf("expected email to be sent to ada@example.com, got %s", sender.lastTo)
	}
	if sender.lastStudent != student.ID {
		t.Fatalf("expected message tagged with student %s, got %q", student.ID, sender.lastStudent)
	}
	if sender.lastName != "Ada Lovelace" {
		t.Fatalf("expected recipient name Ada Lovelace, got %q", sender.lastName)
	}
	if len(sender.lastCode) != 6 {
		t.Fatalf("expected 6 digit code, got %q", sender.lastCode)
	}
	if sender.lastExpires.Before(start.Add(9*time.Minute)) || sender.lastExpires.After(start.Add(11*time.Minute)) {
		t.Fatalf("expected otp expiry around 10 minutes, got %v", sender.lastExpires)
	}

	stored, err := repo.GetByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("expected student stored, got %v", err)
	}
	if stored.OtpCodeHash == "" || stored.OtpExpiresAt == nil {
		t.Fatalf("expected otp to be stored")
	}
}

func TestStudentServiceRequestOTP_UnknownStudent(t *testing.T) {
	repo := newMockStudentRepo()
	sender := &mockEmailSender{}
	svc := NewStudentService(zap.NewNop(), repo, sender, nil)

	_, err := svc.RequestOTP(context.Background(), "ghost@example.com")
	if !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound, got %v", err)
	}
	if sender.lastTo != "" {
		t.Fatalf("expected no email sent")
	}
}

func TestStudentServiceVerifyOTP_Success(t *testing.T) {
	repo := newMockStudentRepo()
	sender := &mockEmailSender{}
	svc := NewStudentService(zap.NewNop(), repo, sender, nil)
	registerTestStudent(t, svc, "ada@example.com")

	if _, err := svc.RequestOTP(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("expected request otp success, got %v", err)
	}

	student, err := svc.VerifyOTP(context.Background(), "ada@example.com", sender.lastCode)
	if err != nil {
		t.Fatalf("expected verify success, got %v", err)
	}
	if !student.Enrolled() {
		t.Fatalf("expected student enrolled")
	}

	enrolled, err := repo.IsEnrolled(context.Background(), "ada@example.com")
	if err != nil || !enrolled {
		t.Fatalf("expected stored enrollment, got %v %v", enrolled, err)
	}

	_, err = svc.RequestOTP(context.Background(), "ada@example.com")
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
}

func TestStudentServiceVerifyOTP_Failures(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(zap.NewNop(), repo, &mockEmailSender{}, nil)

	code, hash, _, err := generateOTP()
	if err != nil {
		t.Fatalf("generate otp failed: %v", err)
	}
	expiredAt := time.Now().UTC().Add(-1 * time.Minute)
	validUntil := time.Now().UTC().Add(5 * time.Minute)
	_ = repo.Create(context.Background(), domain.Student{ID: "s1", Email: "expired@example.com", OtpCodeHash: hash, OtpExpiresAt: &expiredAt})
	_ = repo.Create(context.Background(), domain.Student{ID: "s2", Email: "pending@example.com", OtpCodeHash: hash, OtpExpiresAt: &validUntil})
	_ = repo.Create(context.Background(), domain.Student{ID: "s3", Email: "fresh@example.com"})

	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}

	cases := []struct {
		name  string
		email string
		code  string
		want  error
	}{
		{"expirado", "expired@example.com", code, ErrOTPExpired},
		{"codigo incorrecto", "pending@example.com", wrong, ErrOTPInvalid},
		{"codigo malformado", "pending@example.com", "12ab56", ErrOTPInvalid},
		{"sin solicitud", "fresh@example.com", code, ErrOTPNotRequested},
		{"desconocido", "ghost@example.com", code, ErrStudentNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.VerifyOTP(context.Background(), tc.email, tc.code)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestStudentServiceRequestOTP_EmailSendFailure(t *testing.T) {
	repo := newMockStudentRepo()
	sender := &mockEmailSender{err: errors.New("smtp down")}
	svc := NewStudentService(zap.NewNop(), repo, sender, nil)
	registerTestStudent(t, svc, "ada@example.com")

	_, err := svc.RequestOTP(context.Background(), "ada@example.com")
	if !errors.Is(err, ErrEmailSendFailure) {
		t.Fatalf("expected ErrEmailSendFailure, got %v", err)
	}
}

func TestStudentServiceRequestOTP_DisabledSender(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(zap.NewNop(), repo, email.NewDisabledSender("smtp not configured"), nil)
	registerTestStudent(t, svc, "ada@example.com")

	_, err := svc.RequestOTP(context.Background(), "ada@example.com")
	if !errors.Is(err, ErrEmailSendFailure) {
		t.Fatalf("expected ErrEmailSendFailure, got %v", err)
	}
}

func TestStudentServiceRequestOTP_RateLimited(t *testing.T) {
	repo := newMockStudentRepo()
	sender := &mockEmailSender{}
	limiter := &mockLimiter{allow: false, retryAfter: 4 * time.Minute}
	svc := NewStudentService(zap.NewNop(), repo, sender, limiter)
	student := registerTestStudent(t, svc, "ada@example.com")

	_, err := svc.RequestOTP(context.Background(), "ada@example.com")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	var limited *CodeRateLimitError
	if !errors.As(err, &limited) || limited.RetryAfter != 4*time.Minute {
		t.Fatalf("expected retry-after of 4m, got %v", err)
	}
	if len(limiter.studentIDs) != 1 || limiter.studentIDs[0] != student.ID {
		t.Fatalf("expected limiter keyed by student id, got %v", limiter.studentIDs)
	}
	if sender.lastTo != "" {
		t.Fatalf("expected no email sent when rate limited")
	}

	if _, err := svc.RequestOTP(context.Background(), "ghost@example.com"); !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound for unknown email, got %v", err)
	}
	if len(limiter.studentIDs) != 1 {
		t.Fatalf("expected unknown email not to consume quota")
	}
}

func TestStudentServiceAuthenticate(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(zap.NewNop(), repo, &mockEmailSender{}, nil)
	registerTestStudent(t, svc, "ada@example.com")

	if _, err := svc.Authenticate(context.Background(), "ADA@example.com", "supersecret"); err != nil {
		t.Fatalf("expected authentication success, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ada@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ghost@example.com", "supersecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestStudentServiceEmailRegistered(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(zap.NewNop(), repo, &mockEmailSender{}, nil)
	registerTestStudent(t, svc, "ada@example.com")

	ok, err := svc.EmailRegistered(context.Background(), " Ada@example.com")
	if err != nil || !ok {
		t.Fatalf("expected registered, got %v %v", ok, err)
	}
	ok, err = svc.EmailRegistered(context.Background(), "")
	if err != nil || ok {
		t.Fatalf("expected empty email not registered, got %v %v", ok, err)
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.c", "ada@example.com"}
	invalid := []string{"", "@b.c", "a@", "a b@c.d", "plain"}
	for _, v := range valid {
		if !isValidEmail(v) {
			t.Fatalf("expected %q valid", v)
		}
	}
	for _, v := range invalid {
		if isValidEmail(v) {
			t.Fatalf("expected %q invalid", v)
		}
	}
}
