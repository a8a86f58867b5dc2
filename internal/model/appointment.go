package model

import (
	"time"

	"github.com/google/uuid"
)

// Appointment is a patient's claim on one numbered slot within an
// availability block.
type Appointment struct {
	Base
	PatientID         uuid.UUID          `db:"patient_id" json:"patient_id"`
	AvailabilityID    uuid.UUID          `db:"availability_id" json:"availability_id"`
	AppointmentNumber int                `db:"appointment_number" json:"appointment_number"`
	Status            AvailabilityStatus `db:"status" json:"status"`
}

type BookAppointmentRequest struct {
	AppointmentNumber int `json:"appointment_number" binding:"required,gt=0"`
}

type UpdateAppointmentStatusRequest struct {
	Status AvailabilityStatus `json:"status" binding:"required,oneof=pending done cancelled cancelled_by_doctor"`
}

// BookingConfirmation echoes the booked slot with its derived time.
type BookingConfirmation struct {
	AppointmentID     uuid.UUID `json:"appointment_id"`
	AvailabilityID    uuid.UUID `json:"availability_id"`
	PatientID         uuid.UUID `json:"patient_id"`
	AppointmentNumber int       `json:"appointment_number"`
	AppointmentTime   time.Time `json:"appointment_time"`
}

// DoctorAppointmentEntry is one pending appointment in a doctor's listing,
// annotated with computed session time and the block's location.
type DoctorAppointmentEntry struct {
	AppointmentID     uuid.UUID      `json:"appointment_id"`
	AppointmentNumber int            `json:"appointment_number"`
	SessionTime       time.Time      `json:"session_time"`
	Location          string         `json:"location"`
	Patient           PatientProfile `json:"patient"`
}

// DoctorAppointmentGroup groups a block's pending appointments under its
// date and location.
type DoctorAppointmentGroup struct {
	AvailabilityID uuid.UUID                 `json:"availability_id"`
	Date           time.Time                 `json:"date"`
	Location       string                    `json:"location"`
	Appointments   []*DoctorAppointmentEntry `json:"appointments"`
}

// PatientAppointmentEntry is the symmetric view for a patient.
type PatientAppointmentEntry struct {
	AppointmentID     uuid.UUID     `json:"appointment_id"`
	AppointmentNumber int           `json:"appointment_number"`
	SessionTime       time.Time     `json:"session_time"`
	Location          string        `json:"location"`
	Doctor            DoctorProfile `json:"doctor"`
}

type PatientAppointmentGroup struct {
	AvailabilityID uuid.UUID                  `json:"availability_id"`
	Date           time.Time                  `json:"date"`
	Location       string                     `json:"location"`
	Appointments   []*PatientAppointmentEntry `json:"appointments"`
}

// DayAppointmentEntry is one row of the doctor's by-date view.
type DayAppointmentEntry struct {
	AppointmentNumber int       `json:"appointment_number"`
	AppointmentTime   time.Time `json:"appointment_time"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	ImgURL            string    `json:"img_url"`
}
