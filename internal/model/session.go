package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionConnected    SessionStatus = "connected"
	SessionDisconnected SessionStatus = "disconnected"
)

// Session is the durable doctor-patient relationship. Prescription entries
// and delegated access grants hang off it.
type Session struct {
	Base
	PatientID              uuid.UUID     `db:"patient_id" json:"patient_id"`
	DoctorID               uuid.UUID     `db:"doctor_id" json:"doctor_id"`
	Status                 SessionStatus `db:"status" json:"status"`
	DoctorLastAccessedDate *time.Time    `db:"doctor_last_accessed_date" json:"doctor_last_accessed_date"`
}

// Medicine is one prescribed item within a clinical entry.
type Medicine struct {
	Name string `json:"name"`
	Dose string `json:"dose,omitempty"`
	Time string `json:"time,omitempty"`
}

// RequestedReport is a report the doctor asked the patient to take.
type RequestedReport struct {
	Name       string     `json:"name"`
	DateToTake *time.Time `json:"date_to_take,omitempty"`
}

// PrescriptionEntry is one dated clinical consultation record.
type PrescriptionEntry struct {
	ID            uuid.UUID         `db:"id" json:"id"`
	SessionID     uuid.UUID         `db:"session_id" json:"session_id"`
	SessionDate   time.Time         `db:"session_date" json:"session_date"`
	Symptoms      string            `db:"symptoms" json:"symptoms"`
	Diseases      string            `db:"diseases" json:"diseases"`
	Stage         string            `db:"stage" json:"stage"`
	Medicines     []Medicine        `db:"-" json:"medicines"`
	Reports       []RequestedReport `db:"-" json:"reports"`
	Weight        *float64          `db:"weight" json:"weight,omitempty"`
	Height        *float64          `db:"height" json:"height,omitempty"`
	NextVisitDate *time.Time        `db:"next_visit_date" json:"next_visit_date,omitempty"`
	Other         string            `db:"other" json:"other,omitempty"`
}

// AccessGrant is one delegated read grant: a doctor allowed to view, and
// when they last did.
type AccessGrant struct {
	DoctorID                  uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	InformationLastAccessDate *time.Time `db:"information_last_access_date" json:"information_last_access_date"`
}

type AddPrescriptionRequest struct {
	SessionDate   time.Time         `json:"session_date" binding:"required"`
	Symptoms      string            `json:"symptoms"`
	Diseases      string            `json:"diseases"`
	Stage         string            `json:"stage"`
	Medicines     []Medicine        `json:"medicines"`
	Reports       []RequestedReport `json:"reports"`
	Weight        *float64          `json:"weight"`
	Height        *float64          `json:"height"`
	NextVisitDate *time.Time        `json:"next_visit_date"`
	Other         string            `json:"other"`
}

// SessionDetail is the full view returned to an authorized requester:
// prescription history sorted by session date descending.
type SessionDetail struct {
	SessionID              uuid.UUID            `json:"session_id"`
	PatientID              uuid.UUID            `json:"patient_id"`
	DoctorID               uuid.UUID            `json:"doctor_id"`
	Status                 SessionStatus        `json:"status"`
	DoctorLastAccessedDate *time.Time           `json:"doctor_last_accessed_date"`
	Prescription           []*PrescriptionEntry `json:"prescription"`
}

// ConnectedPatient is one row of a doctor's connected-patient listing.
type ConnectedPatient struct {
	SessionID uuid.UUID      `json:"session_id"`
	Patient   PatientProfile `json:"patient"`
}

// ConnectedDoctor is one row of a patient's connected-doctor listing.
type ConnectedDoctor struct {
	SessionID              uuid.UUID     `json:"session_id"`
	Doctor                 DoctorProfile `json:"doctor"`
	DoctorLastAccessedDate *time.Time    `json:"doctor_last_accessed_date"`
}

// GrantCandidate is one doctor in the reconciliation candidate list.
type GrantCandidate struct {
	DoctorID                  uuid.UUID  `json:"doctor_id"`
	FirstName                 string     `json:"first_name"`
	LastName                  string     `json:"last_name"`
	Designation               string     `json:"designation"`
	ImgURL                    string     `json:"img_url"`
	InformationLastAccessDate *time.Time `json:"information_last_access_date"`
	Allowed                   bool       `json:"allowed"`
}

// GrantUpdate is the caller-supplied desired state for one doctor.
type GrantUpdate struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
	Allowed  bool      `json:"allowed"`
}

type ReconcileGrantsRequest struct {
	DoctorsAllowed []GrantUpdate `json:"doctors_allowed" binding:"required"`
}

// SharedSession is a session owned by another doctor that the requesting
// doctor has been delegated into.
type SharedSession struct {
	SessionID uuid.UUID     `json:"session_id"`
	Doctor    DoctorProfile `json:"doctor"`
}

// Dashboard aggregates a doctor's day at a glance.
type Dashboard struct {
	ConnectedPatientCount int                       `json:"connected_patient_count"`
	TodayAvailabilities   []*Availability           `json:"today_availabilities"`
	TodayAppointments     []*DoctorAppointmentEntry `json:"today_appointments"`
	PatientsByGender      map[string]int            `json:"patients_by_gender"`
	PatientsByBirthYear   map[int]int               `json:"patients_by_birth_year"`
}
