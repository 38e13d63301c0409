package domain

import "time"

// Profile representa a un asesor del directorio.
// Los datos de contacto viven en Contact y nunca se serializan junto al perfil.
type Profile struct {
	ID              int64              `json:"id"`
	FirstName       string             `json:"first_name"`
	LastName        string             `json:"last_name"`
	Title           string             `json:"title,omitempty"`
	Department      string             `json:"department"`
	Bio             *string            `json:"bio,omitempty"`
	ProfileImageURL string             `json:"profile_image_url,omitempty"`
	Interests       []ResearchInterest `json:"research_interests"`
	Contact         ContactDetails     `json:"-"`
	CreatedAt       time.Time          `json:"created_at"`
}

// ContactDetails agrupa los campos restringidos de un perfil.
type ContactDetails struct {
	Email          string  `json:"email"`
	Phone          *string `json:"phone,omitempty"`
	OfficeLocation *string `json:"office_location,omitempty"`
	OfficeHours    *string `json:"office_hours,omitempty"`
}

// PublicProfile es la vista de un perfil sin campos restringidos.
type PublicProfile struct {
	ID              int64              `json:"id"`
	FirstName       string             `json:"first_name"`
	LastName        string             `json:"last_name"`
	Title           string             `json:"title,omitempty"`
	Department      string             `json:"department"`
	Bio             *string            `json:"bio,omitempty"`
	ProfileImageURL string             `json:"profile_image_url,omitempty"`
	Interests       []ResearchInterest `json:"research_interests"`
}

// Public proyecta el perfil a su vista publica.
func (p Profile) Public() PublicProfile {
	interests := make([]ResearchInterest, len(p.Interests))
	copy(interests, p.Interests)
	return PublicProfile{
		ID:              p.ID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Title:           p.Title,
		Department:      p.Department,
		Bio:             p.Bio,
		ProfileImageURL: p.ProfileImageURL,
		Interests:       interests,
	}
}

