package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"advisor-finder/internal/domain"
)

// StudentRepository define el contrato de persistencia para estudiantes.
type StudentRepository interface {
	Create(ctx context.Context, student domain.Student) error
	GetByID(ctx context.Context, id string) (domain.Student, error)
	GetByEmail(ctx context.Context, email string) (domain.Student, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByStudentNumber(ctx context.Context, studentNumber string) (bool, error)
	UpdateOTP(ctx context.Context, id, otpHash string, otpExpiresAt time.Time) error
	VerifyEmail(ctx context.Context, id string, verifiedAt time.Time) error
}

// EnrollmentRepository responde si una identidad completo su inscripcion.
type EnrollmentRepository interface {
	IsEnrolled(ctx context.Context, identity string) (bool, error)
}

// PgStudentRepository implementa StudentRepository y EnrollmentRepository usando pgxpool.
type PgStudentRepository struct {
	pool *pgxpool.Pool
}

func NewPgStudentRepository(pool *pgxpool.Pool) *PgStudentRepository {
	return &PgStudentRepository{pool: pool}
}

const studentColumns = `
	id, first_name, last_name, email, phone, student_number, program, year_of_study,
	interests, password_hash, email_verified_at, otp_code_hash, otp_expires_at, created_at
`

func (r *PgStudentRepository) Create(ctx context.Context, student domain.Student) error {
	const query = `
		INSERT INTO students (
			id, first_name, last_name, email, phone, student_number, program,
			year_of_study, interests, password_hash, email_verified_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		student.ID,
		student.FirstName,
		student.LastName,
		student.Email,
		student.Phone,
		student.StudentNumber,
		student.Program,
		student.YearOfStudy,
		student.Interests,
		student.PasswordHash,
		student.EmailVerifiedAt,
		student.CreatedAt,
	)
	return err
}

func (r *PgStudentRepository) GetByID(ctx context.Context, id string) (domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return scanStudent(r.pool.QueryRow(ctx, query, id))
}

func (r *PgStudentRepository) GetByEmail(ctx context.Context, email string) (domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE email = $1`
	return scanStudent(r.pool.QueryRow(ctx, query, email))
}

func scanStudent(row pgx.Row) (domain.Student, error) {
	var s domain.Student
	err := row.Scan(
		&s.ID,
		&s.FirstName,
		&s.LastName,
		&s.Email,
		&s.Phone,
		&s.StudentNumber,
		&s.Program,
		&s.YearOfStudy,
		&s.Interests,
		&s.PasswordHash,
		&s.EmailVerifiedAt,
		&s.OtpCodeHash,
		&s.OtpExpiresAt,
		&s.CreatedAt,
	)
	if err != nil {
		return domain.Student{}, err
	}
	return s, nil
}

func (r *PgStudentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE email = $1)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, email).Scan(&exists)
	return exists, err
}

func (r *PgStudentRepository) ExistsByStudentNumber(ctx context.Context, studentNumber string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE student_number = $1)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, studentNumber).Scan(&exists)
	return exists, err
}

func (r *PgStudentRepository) UpdateOTP(ctx context.Context, id, otpHash string, otpExpiresAt time.Time) error {
	const query = `
		UPDATE students
		SET otp_code_hash = $2, otp_expires_at = $3
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, otpHash, otpExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgStudentRepository) VerifyEmail(ctx context.Context, id string, verifiedAt time.Time) error {
	const query = `
		UPDATE students
		SET email_verified_at = $2, otp_code_hash = '', otp_expires_at = NULL
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, verifiedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// IsEnrolled es verdadero solo si el estudiante existe y verifico su email.
func (r *PgStudentRepository) IsEnrolled(ctx context.Context, identity string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM students
			WHERE email = $1 AND email_verified_at IS NOT NULL
		)
	`
	var enrolled bool
	err := r.pool.QueryRow(ctx, query, identity).Scan(&enrolled)
	return enrolled, err
}
