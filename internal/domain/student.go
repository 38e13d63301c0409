package domain

import "time"

// Student es un buscador registrado. Esta inscrito cuando su email fue verificado.
type Student struct {
	ID              string     `json:"id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Email           string     `json:"email"`
	Phone           *string    `json:"phone,omitempty"`
	StudentNumber   *string    `json:"student_number,omitempty"`
	Program         string     `json:"program,omitempty"`
	YearOfStudy     *int       `json:"year_of_study,omitempty"`
	Interests       string     `json:"interests,omitempty"`
	PasswordHash    string     `json:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	OtpCodeHash     string     `json:"-"`
	OtpExpiresAt    *time.Time `json:"otp_expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Enrolled indica si el estudiante puede recibir datos de contacto.
func (s Student) Enrolled() bool {
	return s.EmailVerifiedAt != nil
}

func (s Student) DisplayName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}
