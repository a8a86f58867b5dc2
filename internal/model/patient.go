package model

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	Base
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Gender       string    `db:"gender" json:"gender"`
	DateOfBirth  time.Time `db:"date_of_birth" json:"date_of_birth"`
	Email        string    `db:"email" json:"email"`
	Mobile       string    `db:"mobile" json:"mobile"`
	ImgURL       string    `db:"img_url" json:"img_url"`
	PasswordHash string    `db:"password_hash" json:"-"`
}

// PatientProfile is the restricted projection returned to doctors in
// appointment and session listings: no credentials, email, mobile or
// record timestamps.
type PatientProfile struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Gender      string    `json:"gender"`
	DateOfBirth time.Time `json:"date_of_birth"`
	ImgURL      string    `json:"img_url"`
}

func (p *Patient) Profile() PatientProfile {
	return PatientProfile{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Gender:      p.Gender,
		DateOfBirth: p.DateOfBirth,
		ImgURL:      p.ImgURL,
	}
}

type RegisterPatientRequest struct {
	FirstName   string    `json:"first_name" binding:"required"`
	LastName    string    `json:"last_name" binding:"required"`
	Gender      string    `json:"gender" binding:"required,oneof=male female other"`
	DateOfBirth time.Time `json:"date_of_birth" binding:"required"`
	Email       string    `json:"email" binding:"required,email"`
	Mobile      string    `json:"mobile"`
	Password    string    `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	UserID      uuid.UUID `json:"user_id"`
	Role        string    `json:"role"`
}
