package model

import (
	"time"

	"github.com/google/uuid"
)

// Report is a patient-uploaded medical document with its own per-doctor
// visibility list.
type Report struct {
	Base
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	ReportType string    `db:"report_type" json:"report_type"`
	TookDate   time.Time `db:"took_date" json:"took_date"`
	ReportURL  string    `db:"report_url" json:"report_url"`
}

// ReportMeta is the URL-stripped projection returned to doctors in
// listings; the URL is only released through the view operation.
type ReportMeta struct {
	ID         uuid.UUID `json:"id"`
	PatientID  uuid.UUID `json:"patient_id"`
	ReportType string    `json:"report_type"`
	TookDate   time.Time `json:"took_date"`
}

func (r *Report) Meta() ReportMeta {
	return ReportMeta{
		ID:         r.ID,
		PatientID:  r.PatientID,
		ReportType: r.ReportType,
		TookDate:   r.TookDate,
	}
}

type AttachReportRequest struct {
	ReportType string    `json:"report_type" binding:"required"`
	ReportURL  string    `json:"report_url" binding:"required,url"`
	TookDate   time.Time `json:"took_date" binding:"required"`
}

type ReconcileReportAccessRequest struct {
	DoctorsAllowed []GrantUpdate `json:"doctors_allowed" binding:"required"`
}
