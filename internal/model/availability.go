package model

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityStatus is shared by availability blocks and appointments:
// both move through the same Pending/terminal lifecycle.
type AvailabilityStatus string

const (
	StatusPending           AvailabilityStatus = "pending"
	StatusDone              AvailabilityStatus = "done"
	StatusCancelled         AvailabilityStatus = "cancelled"
	StatusCancelledByDoctor AvailabilityStatus = "cancelled_by_doctor"
)

// Availability is a doctor-published block of bookable time, subdivided
// into NumberOfAppointments fixed-duration numbered slots.
type Availability struct {
	Base
	DoctorID             uuid.UUID          `db:"doctor_id" json:"doctor_id"`
	Date                 time.Time          `db:"date" json:"date"`
	StartTime            time.Time          `db:"start_time" json:"start_time"`
	SessionDuration      int                `db:"session_duration" json:"session_duration"`
	NumberOfAppointments int                `db:"number_of_appointments" json:"number_of_appointments"`
	Location             string             `db:"location" json:"location"`
	Status               AvailabilityStatus `db:"status" json:"status"`
}

// EndTime is the instant the last slot of the block finishes.
func (a *Availability) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.SessionDuration*a.NumberOfAppointments) * time.Minute)
}

// SlotTime derives the allocated time shown by the public slot listing
// and the booking response: startTime + number x duration, with no
// (number-1) offset. Do not swap this for SessionTime; clients depend
// on both variants as-is.
func (a *Availability) SlotTime(number int) time.Time {
	return a.StartTime.Add(time.Duration(number*a.SessionDuration) * time.Minute)
}

// SessionTime derives the session start for a booked slot:
// startTime + (number-1) x duration.
func (a *Availability) SessionTime(number int) time.Time {
	return a.StartTime.Add(time.Duration((number-1)*a.SessionDuration) * time.Minute)
}

type CreateAvailabilityRequest struct {
	Date                 time.Time `json:"date" binding:"required"`
	StartTime            time.Time `json:"start_time" binding:"required"`
	SessionDuration      int       `json:"session_duration" binding:"required,gt=0"`
	NumberOfAppointments int       `json:"number_of_appointments" binding:"required,gt=0"`
	Location             string    `json:"location" binding:"required"`
}

// UpdateAvailabilityRequest carries the only fields mutable after
// creation. Status moves through UpdateAvailabilityStatusRequest;
// doctor, date and start time are immutable.
type UpdateAvailabilityRequest struct {
	SessionDuration      *int    `json:"session_duration" binding:"omitempty,gt=0"`
	NumberOfAppointments *int    `json:"number_of_appointments" binding:"omitempty,gt=0"`
	Location             *string `json:"location"`
}

type UpdateAvailabilityStatusRequest struct {
	Status AvailabilityStatus `json:"status" binding:"required,oneof=done cancelled"`
}

// AvailableSlot pairs a free slot number with its derived allocated time.
type AvailableSlot struct {
	AppointmentNumber int       `json:"appointment_number"`
	AllocatedTime     time.Time `json:"allocated_time"`
}

// DoctorAvailabilityList is the public listing response: doctor profile
// plus the pending blocks.
type DoctorAvailabilityList struct {
	Doctor         DoctorProfile   `json:"doctor"`
	Availabilities []*Availability `json:"availabilities"`
}
