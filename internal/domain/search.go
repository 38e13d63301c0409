package domain

// SearchSpec describe una consulta: termino libre mas facetas seleccionadas.
// Department restringe solo el departamento, sin mirar nombres ni intereses.
// El valor cero coincide con todos los perfiles.
type SearchSpec struct {
	Term        string
	Department  string
	CategoryIDs map[int64]struct{}
	InterestIDs map[int64]struct{}
}

// NewSearchSpec construye un SearchSpec a partir de listas de ids; los duplicados se colapsan.
func NewSearchSpec(term string, categoryIDs, interestIDs []int64) SearchSpec {
	return SearchSpec{
		Term:        term,
		CategoryIDs: idSet(categoryIDs),
		InterestIDs: idSet(interestIDs),
	}
}

func idSet(ids []int64) map[int64]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
