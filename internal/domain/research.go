package domain

// ResearchCategory agrupa intereses de investigacion.
type ResearchCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ResearchInterest pertenece a exactamente una categoria.
type ResearchInterest struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name,omitempty"`
}

// FacetGroup es una categoria con sus intereses, tal como se presentan en los filtros.
type FacetGroup struct {
	Category  ResearchCategory   `json:"category"`
	Interests []ResearchInterest `json:"interests"`
}
