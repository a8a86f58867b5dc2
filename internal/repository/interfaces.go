package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medilink/care-api/internal/model"
)

// All repository interfaces in one file
type (
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByEmail(ctx context.Context, email string) (*model.Doctor, error)
		ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Doctor, error)
		UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByEmail(ctx context.Context, email string) (*model.Patient, error)
		ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Patient, error)
		UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	}

	AvailabilityRepository interface {
		Create(ctx context.Context, availability *model.Availability) error
		Get(ctx context.Context, id uuid.UUID) (*model.Availability, error)
		Update(ctx context.Context, availability *model.Availability) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AvailabilityStatus) error
		ListPendingByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Availability, error)
		ListByDoctorInRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.Availability, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AvailabilityStatus) error
		// BulkUpdateStatusByAvailability flips every appointment under the
		// availability, regardless of current status.
		BulkUpdateStatusByAvailability(ctx context.Context, availabilityID uuid.UUID, status model.AvailabilityStatus) error
		ListByAvailability(ctx context.Context, availabilityID uuid.UUID) ([]*model.Appointment, error)
		ListPendingByAvailability(ctx context.Context, availabilityID uuid.UUID) ([]*model.Appointment, error)
		// ListActiveNumbers returns the appointment numbers of non-cancelled
		// appointments on the availability.
		ListActiveNumbers(ctx context.Context, availabilityID uuid.UUID) ([]int, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
		ListPendingByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
		ListPending(ctx context.Context) ([]*model.Appointment, error)
	}

	SessionRepository interface {
		Create(ctx context.Context, session *model.Session) error
		Get(ctx context.Context, id uuid.UUID) (*model.Session, error)
		GetByPair(ctx context.Context, patientID, doctorID uuid.UUID) (*model.Session, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.SessionStatus) error
		TouchDoctorAccess(ctx context.Context, id uuid.UUID, at time.Time) error
		ListByDoctor(ctx context.Context, doctorID uuid.UUID, status model.SessionStatus) ([]*model.Session, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID, status model.SessionStatus) ([]*model.Session, error)
		CountConnectedByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)

		AddPrescription(ctx context.Context, entry *model.PrescriptionEntry) error
		// ListPrescriptions returns entries sorted by session date descending.
		ListPrescriptions(ctx context.Context, sessionID uuid.UUID) ([]*model.PrescriptionEntry, error)

		ListGrants(ctx context.Context, sessionID uuid.UUID) ([]*model.AccessGrant, error)
		// ReplaceGrants overwrites the grant set wholesale.
		ReplaceGrants(ctx context.Context, sessionID uuid.UUID, grants []*model.AccessGrant) error
		TouchGrantAccess(ctx context.Context, sessionID, doctorID uuid.UUID, at time.Time) error
		// ListSharedWithDoctor returns the patient's sessions owned by other
		// doctors whose grant set contains doctorID.
		ListSharedWithDoctor(ctx context.Context, patientID, doctorID uuid.UUID) ([]*model.Session, error)
	}

	ReportRepository interface {
		Create(ctx context.Context, report *model.Report) error
		Get(ctx context.Context, id uuid.UUID) (*model.Report, error)
		Delete(ctx context.Context, id uuid.UUID) error
		// ListByPatient returns reports sorted by took date descending.
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Report, error)
		ListByPatientGrantedTo(ctx context.Context, patientID, doctorID uuid.UUID) ([]*model.Report, error)

		ListGrants(ctx context.Context, reportID uuid.UUID) ([]*model.AccessGrant, error)
		ReplaceGrants(ctx context.Context, reportID uuid.UUID, grants []*model.AccessGrant) error
		TouchGrantAccess(ctx context.Context, reportID, doctorID uuid.UUID, at time.Time) error
	}
)
