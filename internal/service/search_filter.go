package service

import (
	"strings"

	"golang.org/x/text/cases"

	"advisor-finder/internal/domain"
)

// Evaluate devuelve los perfiles que cumplen todos los filtros activos de spec,
// conservando el orden relativo de profiles. No modifica la entrada.
//
// Filtros (AND entre grupos, OR dentro de cada grupo):
//   - texto: el termino aparece en nombre, apellido, departamento o en el nombre de algun interes.
//   - departamento: el texto aparece en el departamento.
//   - categorias: algun interes pertenece a una categoria seleccionada.
//   - intereses: algun interes esta seleccionado.
//
// Un filtro vacio no restringe. La comparacion de texto usa case folding Unicode.
func Evaluate(profiles []domain.Profile, spec domain.SearchSpec) []domain.Profile {
	m := newProfileMatcher(spec)
	out := make([]domain.Profile, 0, len(profiles))
	for _, p := range profiles {
		if m.match(p) {
			out = append(out, p)
		}
	}
	return out
}

// profileMatcher no es seguro para uso concurrente: cases.Caser mantiene estado.
type profileMatcher struct {
	fold       cases.Caser
	term       string
	department string
	categories map[int64]struct{}
	interests  map[int64]struct{}
}

func newProfileMatcher(spec domain.SearchSpec) *profileMatcher {
	m := &profileMatcher{
		fold:       cases.Fold(),
		categories: spec.CategoryIDs,
		interests:  spec.InterestIDs,
	}
	if term := strings.TrimSpace(spec.Term); term != "" {
		m.term = m.fold.String(term)
	}
	if dept := strings.TrimSpace(spec.Department); dept != "" {
		m.department = m.fold.String(dept)
	}
	return m
}

func (m *profileMatcher) match(p domain.Profile) bool {
	return m.matchText(p) && m.matchDepartment(p) && m.matchCategory(p) && m.matchInterest(p)
}

func (m *profileMatcher) matchDepartment(p domain.Profile) bool {
	if m.department == "" {
		return true
	}
	return p.Department != "" && strings.Contains(m.fold.String(p.Department), m.department)
}

func (m *profileMatcher) matchText(p domain.Profile) bool {
	if m.term == "" {
		return true
	}
	if m.contains(p.FirstName) || m.contains(p.LastName) || m.contains(p.Department) {
		return true
	}
	for _, interest := range p.Interests {
		if m.contains(interest.Name) {
			return true
		}
	}
	return false
}

func (m *profileMatcher) matchCategory(p domain.Profile) bool {
	if len(m.categories) == 0 {
		return true
	}
	for _, interest := range p.Interests {
		if _, ok := m.categories[interest.CategoryID]; ok {
			return true
		}
	}
	return false
}

func (m *profileMatcher) matchInterest(p domain.Profile) bool {
	if len(m.interests) == 0 {
		return true
	}
	for _, interest := range p.Interests {
		if _, ok := m.interests[interest.ID]; ok {
			return true
		}
	}
	return false
}

func (m *profileMatcher) contains(field string) bool {
	if field == "" {
		return false
	}
	return strings.Contains(m.fold.String(field), m.term)
}
