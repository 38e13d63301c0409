package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"advisor-finder/internal/domain"
)

// ProfileRepository define el contrato de persistencia para perfiles de asesores.
type ProfileRepository interface {
	ListAll(ctx context.Context) ([]domain.Profile, error)
	GetByID(ctx context.Context, id int64) (domain.Profile, error)
	Create(ctx context.Context, profile domain.Profile) (domain.Profile, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// PgProfileRepository implementa ProfileRepository usando pgxpool.
type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

const profileColumns = `
	l.id, l.first_name, l.last_name, l.title, l.department, l.bio, l.profile_image_url,
	l.email, l.phone, l.office_location, l.office_hours, l.created_at
`

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Title,
		&p.Department,
		&p.Bio,
		&p.ProfileImageURL,
		&p.Contact.Email,
		&p.Contact.Phone,
		&p.Contact.OfficeLocation,
		&p.Contact.OfficeHours,
		&p.CreatedAt,
	)
	return p, err
}

// ListAll devuelve todos los perfiles ordenados por id, con sus intereses.
func (r *PgProfileRepository) ListAll(ctx context.Context) ([]domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM lecturers l ORDER BY l.id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	index := make(map[int64]int)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(profiles)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return profiles, nil
	}

	interests, err := r.interestsFor(ctx, nil)
	if err != nil {
		return nil, err
	}
	for lecturerID, list := range interests {
		if i, ok := index[lecturerID]; ok {
			profiles[i].Interests = list
		}
	}
	return profiles, nil
}

func (r *PgProfileRepository) GetByID(ctx context.Context, id int64) (domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM lecturers l WHERE l.id = $1`

	p, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Profile{}, err
	}

	interests, err := r.interestsFor(ctx, &id)
	if err != nil {
		return domain.Profile{}, err
	}
	p.Interests = interests[id]
	return p, nil
}

// interestsFor carga los intereses agrupados por asesor. Con lecturerID nil carga todos.
func (r *PgProfileRepository) interestsFor(ctx context.Context, lecturerID *int64) (map[int64][]domain.ResearchInterest, error) {
	const query = `
		SELECT lri.lecturer_id, ri.id, ri.name, ri.description, rc.id, rc.name
		FROM lecturer_research_interests lri
		JOIN research_interests ri ON ri.id = lri.research_interest_id
		JOIN research_categories rc ON rc.id = ri.category_id
		WHERE $1::BIGINT IS NULL OR lri.lecturer_id = $1
		ORDER BY lri.lecturer_id, ri.name, ri.id
	`
	rows, err := r.pool.Query(ctx, query, lecturerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.ResearchInterest)
	for rows.Next() {
		var owner int64
		var ri domain.ResearchInterest
		if err := rows.Scan(
			&owner,
			&ri.ID,
			&ri.Name,
			&ri.Description,
			&ri.CategoryID,
			&ri.CategoryName,
		); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], ri)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserta el perfil y sus intereses en una transaccion y devuelve el perfil con id.
func (r *PgProfileRepository) Create(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Profile{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertLecturer = `
		INSERT INTO lecturers (
			first_name, last_name, email, phone, office_location, title,
			department, bio, profile_image_url, office_hours, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err = tx.QueryRow(ctx, insertLecturer,
		profile.FirstName,
		profile.LastName,
		profile.Contact.Email,
		profile.Contact.Phone,
		profile.Contact.OfficeLocation,
		profile.Title,
		profile.Department,
		profile.Bio,
		profile.ProfileImageURL,
		profile.Contact.OfficeHours,
		profile.CreatedAt,
	).Scan(&profile.ID)
	if err != nil {
		return domain.Profile{}, err
	}

	const insertInterest = `
		INSERT INTO lecturer_research_interests (lecturer_id, research_interest_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	for _, interest := range profile.Interests {
		if _, err := tx.Exec(ctx, insertInterest, profile.ID, interest.ID); err != nil {
			return domain.Profile{}, fmt.Errorf("link interest %d: %w", interest.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

func (r *PgProfileRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM lecturers WHERE email = $1)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, email).Scan(&exists)
	return exists, err
}

func (r *PgProfileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lecturers`).Scan(&n)
	return n, err
}
