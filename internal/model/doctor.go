package model

import (
	"github.com/google/uuid"
)

type Doctor struct {
	Base
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	Designation  string `db:"designation" json:"designation"`
	Gender       string `db:"gender" json:"gender"`
	Email        string `db:"email" json:"email"`
	ImgURL       string `db:"img_url" json:"img_url"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// DoctorProfile is the projection exposed to other principals. Credentials
// and contact details never leave through this view.
type DoctorProfile struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Designation string    `json:"designation"`
	Gender      string    `json:"gender"`
	Email       string    `json:"email"`
	ImgURL      string    `json:"img_url"`
}

func (d *Doctor) Profile() DoctorProfile {
	return DoctorProfile{
		ID:          d.ID,
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Designation: d.Designation,
		Gender:      d.Gender,
		Email:       d.Email,
		ImgURL:      d.ImgURL,
	}
}

type RegisterDoctorRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Designation string `json:"designation"`
	Gender      string `json:"gender" binding:"required,oneof=male female other"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
}
