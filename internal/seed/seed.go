// Package seed carga el catalogo inicial de categorias, intereses y asesores.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"advisor-finder/internal/domain"
	"advisor-finder/internal/repository"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type InterestSeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type CategorySeed struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Interests   []InterestSeed `yaml:"interests"`
}

// LecturerSeed referencia sus intereses por nombre.
type LecturerSeed struct {
	Title          string   `yaml:"title"`
	FirstName      string   `yaml:"first_name"`
	LastName       string   `yaml:"last_name"`
	Department     string   `yaml:"department"`
	Email          string   `yaml:"email"`
	Phone          string   `yaml:"phone"`
	Bio            string   `yaml:"bio"`
	OfficeLocation string   `yaml:"office_location"`
	OfficeHours    string   `yaml:"office_hours"`
	Interests      []string `yaml:"interests"`
}

type Catalog struct {
	Categories []CategorySeed `yaml:"categories"`
	Lecturers  []LecturerSeed `yaml:"lecturers"`
}

// Result resume lo que Apply inserto.
type Result struct {
	Categories int
	Interests  int
	Lecturers  int
}

// DefaultCatalog devuelve el catalogo embebido en el binario.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalog))
}

func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCatalog(f)
}

func LoadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate exige nombres unicos y que cada asesor referencie intereses del catalogo.
func (c *Catalog) Validate() error {
	categories := make(map[string]struct{})
	interests := make(map[string]struct{})
	for _, cat := range c.Categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return errors.New("catalog: category without name")
		}
		if _, dup := categories[name]; dup {
			return fmt.Errorf("catalog: duplicate category %q", name)
		}
		categories[name] = struct{}{}
		for _, in := range cat.Interests {
			iname := strings.TrimSpace(in.Name)
			if iname == "" {
				return fmt.Errorf("catalog: interest without name in %q", name)
			}
			if _, dup := interests[iname]; dup {
				return fmt.Errorf("catalog: duplicate interest %q", iname)
			}
			interests[iname] = struct{}{}
		}
	}

	emails := make(map[string]struct{})
	for _, l := range c.Lecturers {
		if strings.TrimSpace(l.FirstName) == "" || strings.TrimSpace(l.LastName) == "" {
			return errors.New("catalog: lecturer without name")
		}
		email := strings.ToLower(strings.TrimSpace(l.Email))
		if email == "" {
			return fmt.Errorf("catalog: lecturer %s %s without email", l.FirstName, l.LastName)
		}
		if _, dup := emails[email]; dup {
			return fmt.Errorf("catalog: duplicate lecturer email %q", email)
		}
		emails[email] = struct{}{}
		for _, name := range l.Interests {
			if _, ok := interests[strings.TrimSpace(name)]; !ok {
				return fmt.Errorf("catalog: lecturer %s references unknown interest %q", email, name)
			}
		}
	}
	return nil
}

// Seeder aplica un Catalog sobre los repositorios.
type Seeder struct {
	logger   *zap.Logger
	research repository.ResearchRepository
	profiles repository.ProfileRepository
}

func NewSeeder(logger *zap.Logger, research repository.ResearchRepository, profiles repository.ProfileRepository) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{logger: logger, research: research, profiles: profiles}
}

// Apply siembra categorias e intereses si no hay categorias, y asesores si no hay perfiles.
// Es idempotente: una segunda ejecucion no inserta nada.
func (s *Seeder) Apply(ctx context.Context, catalog *Catalog) (Result, error) {
	var res Result
	if catalog == nil {
		return res, errors.New("nil catalog")
	}

	categoryCount, err := s.research.CountCategories(ctx)
	if err != nil {
		return res, fmt.Errorf("count categories: %w", err)
	}
	if categoryCount == 0 {
		for _, cat := range catalog.Categories {
			created, err := s.research.UpsertCategory(ctx, domain.ResearchCategory{
				Name:        strings.TrimSpace(cat.Name),
				Description: strings.TrimSpace(cat.Description),
			})
			if err != nil {
				return res, fmt.Errorf("upsert category %q: %w", cat.Name, err)
			}
			res.Categories++
			for _, in := range cat.Interests {
				if _, err := s.research.UpsertInterest(ctx, domain.ResearchInterest{
					Name:        strings.TrimSpace(in.Name),
					Description: strings.TrimSpace(in.Description),
					CategoryID:  created.ID,
				}); err != nil {
					return res, fmt.Errorf("upsert interest %q: %w", in.Name, err)
				}
				res.Interests++
			}
		}
		s.logger.Info("research catalog seeded", zap.Int("categories", res.Categories), zap.Int("interests", res.Interests))
	}

	profileCount, err := s.profiles.Count(ctx)
	if err != nil {
		return res, fmt.Errorf("count profiles: %w", err)
	}
	if profileCount > 0 || len(catalog.Lecturers) == 0 {
		return res, nil
	}

	all, err := s.research.ListInterests(ctx)
	if err != nil {
		return res, fmt.Errorf("list interests: %w", err)
	}
	byName := make(map[string]domain.ResearchInterest, len(all))
	for _, in := range all {
		byName[in.Name] = in
	}

	for _, l := range catalog.Lecturers {
		interests := make([]domain.ResearchInterest, 0, len(l.Interests))
		for _, name := range l.Interests {
			in, ok := byName[strings.TrimSpace(name)]
			if !ok {
				return res, fmt.Errorf("lecturer %s: unknown interest %q", l.Email, name)
			}
			interests = append(interests, in)
		}
		if _, err := s.profiles.Create(ctx, domain.Profile{
			FirstName:  strings.TrimSpace(l.FirstName),
			LastName:   strings.TrimSpace(l.LastName),
			Title:      strings.TrimSpace(l.Title),
			Department: strings.TrimSpace(l.Department),
			Bio:        optional(l.Bio),
			Interests:  interests,
			Contact: domain.ContactDetails{
				Email:          strings.ToLower(strings.TrimSpace(l.Email)),
				Phone:          optional(l.Phone),
				OfficeLocation: optional(l.OfficeLocation),
				OfficeHours:    optional(l.OfficeHours),
			},
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return res, fmt.Errorf("create lecturer %s: %w", l.Email, err)
		}
		res.Lecturers++
	}
	s.logger.Info("sample lecturers seeded", zap.Int("lecturers", res.Lecturers))
	return res, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
