package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"advisor-finder/internal/domain"
)

// ResearchRepository define el contrato de persistencia del catalogo de investigacion.
type ResearchRepository interface {
	ListCategories(ctx context.Context) ([]domain.ResearchCategory, error)
	ListInterests(ctx context.Context) ([]domain.ResearchInterest, error)
	ListInterestsByCategory(ctx context.Context, categoryID int64) ([]domain.ResearchInterest, error)
	SearchInterests(ctx context.Context, keyword string) ([]domain.ResearchInterest, error)
	GetInterestsByIDs(ctx context.Context, ids []int64) ([]domain.ResearchInterest, error)
	UpsertCategory(ctx context.Context, category domain.ResearchCategory) (domain.ResearchCategory, error)
	UpsertInterest(ctx context.Context, interest domain.ResearchInterest) (domain.ResearchInterest, error)
	CountCategories(ctx context.Context) (int64, error)
}

// PgResearchRepository implementa ResearchRepository usando pgxpool.
type PgResearchRepository struct {
	pool *pgxpool.Pool
}

func NewPgResearchRepository(pool *pgxpool.Pool) *PgResearchRepository {
	return &PgResearchRepository{pool: pool}
}

const interestSelect = `
	SELECT ri.id, ri.name, ri.description, rc.id, rc.name
	FROM research_interests ri
	JOIN research_categories rc ON rc.id = ri.category_id
`

func (r *PgResearchRepository) ListCategories(ctx context.Context) ([]domain.ResearchCategory, error) {
	const query = `
		SELECT id, name, description
		FROM research_categories
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.ResearchCategory
	for rows.Next() {
		var c domain.ResearchCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *PgResearchRepository) ListInterests(ctx context.Context) ([]domain.ResearchInterest, error) {
	return r.queryInterests(ctx, interestSelect+` ORDER BY ri.name`)
}

func (r *PgResearchRepository) ListInterestsByCategory(ctx context.Context, categoryID int64) ([]domain.ResearchInterest, error) {
	return r.queryInterests(ctx, interestSelect+` WHERE ri.category_id = $1 ORDER BY ri.name`, categoryID)
}

// SearchInterests busca por nombre o descripcion, sin distinguir mayusculas.
// El keyword se compara literalmente: % y _ no actuan como comodines.
func (r *PgResearchRepository) SearchInterests(ctx context.Context, keyword string) ([]domain.ResearchInterest, error) {
	const where = ` WHERE ri.name ILIKE $1 ESCAPE '\' OR ri.description ILIKE $1 ESCAPE '\' ORDER BY ri.name`
	return r.queryInterests(ctx, interestSelect+where, containsPattern(keyword))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern arma un patron LIKE que busca keyword como subcadena literal.
func containsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}

func (r *PgResearchRepository) GetInterestsByIDs(ctx context.Context, ids []int64) ([]domain.ResearchInterest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryInterests(ctx, interestSelect+` WHERE ri.id = ANY($1) ORDER BY ri.name`, ids)
}

func (r *PgResearchRepository) queryInterests(ctx context.Context, query string, args ...any) ([]domain.ResearchInterest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interests []domain.ResearchInterest
	for rows.Next() {
		var ri domain.ResearchInterest
		if err := rows.Scan(
			&ri.ID,
			&ri.Name,
			&ri.Description,
			&ri.CategoryID,
			&ri.CategoryName,
		); err != nil {
			return nil, err
		}
		interests = append(interests, ri)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return interests, nil
}

func (r *PgResearchRepository) UpsertCategory(ctx context.Context, category domain.ResearchCategory) (domain.ResearchCategory, error) {
	const query = `
		INSERT INTO research_categories (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name)
		DO UPDATE SET description = EXCLUDED.description
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query, category.Name, category.Description).Scan(&category.ID)
	return category, err
}

func (r *PgResearchRepository) UpsertInterest(ctx context.Context, interest domain.ResearchInterest) (domain.ResearchInterest, error) {
	const query = `
		INSERT INTO research_interests (name, description, category_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (name)
		DO UPDATE SET
			description = EXCLUDED.description,
			category_id = EXCLUDED.category_id
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query, interest.Name, interest.Description, interest.CategoryID).Scan(&interest.ID)
	return interest, err
}

func (r *PgResearchRepository) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM research_categories`).Scan(&n)
	return n, err
}
