// Package memory holds map-backed repository implementations used by the
// service test suites. Semantics mirror the postgres repositories:
// identifiers are assigned on create, misses return NotFound, listings
// come back in the same order the SQL queries produce.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/medilink/care-api/pkg/errors"

	"github.com/medilink/care-api/internal/model"
)

type DoctorRepository struct {
	mu      sync.Mutex
	doctors map[uuid.UUID]*model.Doctor
}

func NewDoctorRepository() *DoctorRepository {
	return &DoctorRepository{doctors: make(map[uuid.UUID]*model.Doctor)}
}

func (r *DoctorRepository) Create(_ context.Context, doctor *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doctor.ID = uuid.New()
	doctor.CreatedAt = time.Now()
	doctor.UpdatedAt = time.Now()
	cp := *doctor
	r.doctors[doctor.ID] = &cp
	return nil
}

func (r *DoctorRepository) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doctor, ok := r.doctors[id]
	if !ok {
		return nil, apperrors.NotFoundMsg("doctor not found", "doctor")
	}
	cp := *doctor
	return &cp, nil
}

func (r *DoctorRepository) GetByEmail(_ context.Context, email string) (*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doctor := range r.doctors {
		if doctor.Email == email {
			cp := *doctor
			return &cp, nil
		}
	}
	return nil, apperrors.NotFoundMsg("doctor not found", "doctor")
}

func (r *DoctorRepository) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doctor, ok := r.doctors[id]
	if !ok {
		return apperrors.NotFoundMsg("doctor not found", "doctor")
	}
	doctor.PasswordHash = passwordHash
	doctor.UpdatedAt = time.Now()
	return nil
}

func (r *DoctorRepository) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Doctor, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if doctor, ok := r.doctors[id]; ok {
			cp := *doctor
			out = append(out, &cp)
		}
	}
	return out, nil
}

type PatientRepository struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*model.Patient
}

func NewPatientRepository() *PatientRepository {
	return &PatientRepository{patients: make(map[uuid.UUID]*model.Patient)}
}

func (r *PatientRepository) Create(_ context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()
	cp := *patient
	r.patients[patient.ID] = &cp
	return nil
}

func (r *PatientRepository) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	patient, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NotFoundMsg("patient not found", "patient")
	}
	cp := *patient
	return &cp, nil
}

func (r *PatientRepository) GetByEmail(_ context.Context, email string) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, patient := range r.patients {
		if patient.Email == email {
			cp := *patient
			return &cp, nil
		}
	}
	return nil, apperrors.NotFoundMsg("patient not found", "patient")
}

func (r *PatientRepository) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	patient, ok := r.patients[id]
	if !ok {
		return apperrors.NotFoundMsg("patient not found", "patient")
	}
	patient.PasswordHash = passwordHash
	patient.UpdatedAt = time.Now()
	return nil
}

func (r *PatientRepository) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Patient, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if patient, ok := r.patients[id]; ok {
			cp := *patient
			out = append(out, &cp)
		}
	}
	return out, nil
}

type AvailabilityRepository struct {
	mu     sync.Mutex
	blocks map[uuid.UUID]*model.Availability
}

func NewAvailabilityRepository() *AvailabilityRepository {
	return &AvailabilityRepository{blocks: make(map[uuid.UUID]*model.Availability)}
}

func (r *AvailabilityRepository) Create(_ context.Context, availability *model.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	availability.ID = uuid.New()
	availability.CreatedAt = time.Now()
	availability.UpdatedAt = time.Now()
	cp := *availability
	r.blocks[availability.ID] = &cp
	return nil
}

func (r *AvailabilityRepository) Get(_ context.Context, id uuid.UUID) (*model.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	availability, ok := r.blocks[id]
	if !ok {
		return nil, apperrors.NotFoundMsg("availability not found", "availability")
	}
	cp := *availability
	return &cp, nil
}

func (r *AvailabilityRepository) Update(_ context.Context, availability *model.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blocks[availability.ID]; !ok {
		return apperrors.NotFoundMsg("availability not found", "availability")
	}
	availability.UpdatedAt = time.Now()
	cp := *availability
	r.blocks[availability.ID] = &cp
	return nil
}

func (r *AvailabilityRepository) UpdateStatus(_ context.Context, id uuid.UUID, status model.AvailabilityStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	availability, ok := r.blocks[id]
	if !ok {
		return apperrors.NotFoundMsg("availability not found", "availability")
	}
	availability.Status = status
	availability.UpdatedAt = time.Now()
	return nil
}

func (r *AvailabilityRepository) ListPendingByDoctor(_ context.Context, doctorID uuid.UUID) ([]*model.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Availability
	for _, availability := range r.blocks {
		if availability.DoctorID == doctorID && availability.Status == model.StatusPending {
			cp := *availability
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (r *AvailabilityRepository) ListByDoctorInRange(_ context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Availability
	for _, availability := range r.blocks {
		if availability.DoctorID != doctorID {
			continue
		}
		if availability.Date.Before(start) || !availability.Date.Before(end) {
			continue
		}
		cp := *availability
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

type AppointmentRepository struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*model.Appointment
}

func NewAppointmentRepository() *AppointmentRepository {
	return &AppointmentRepository{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *AppointmentRepository) Create(_ context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()
	cp := *appointment
	r.appointments[appointment.ID] = &cp
	return nil
}

func (r *AppointmentRepository) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appointment, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NotFoundMsg("appointment not found", "appointment")
	}
	cp := *appointment
	return &cp, nil
}

func (r *AppointmentRepository) UpdateStatus(_ context.Context, id uuid.UUID, status model.AvailabilityStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	appointment, ok := r.appointments[id]
	if !ok {
		return apperrors.NotFoundMsg("appointment not found", "appointment")
	}
	appointment.Status = status
	appointment.UpdatedAt = time.Now()
	return nil
}

func (r *AppointmentRepository) BulkUpdateStatusByAvailability(_ context.Context, availabilityID uuid.UUID, status model.AvailabilityStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, appointment := range r.appointments {
		if appointment.AvailabilityID == availabilityID {
			appointment.Status = status
			appointment.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *AppointmentRepository) list(filter func(*model.Appointment) bool) []*model.Appointment {
	var out []*model.Appointment
	for _, appointment := range r.appointments {
		if filter(appointment) {
			cp := *appointment
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentNumber < out[j].AppointmentNumber })
	return out
}

func (r *AppointmentRepository) ListByAvailability(_ context.Context, availabilityID uuid.UUID) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(a *model.Appointment) bool { return a.AvailabilityID == availabilityID }), nil
}

func (r *AppointmentRepository) ListPendingByAvailability(_ context.Context, availabilityID uuid.UUID) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(a *model.Appointment) bool {
		return a.AvailabilityID == availabilityID && a.Status == model.StatusPending
	}), nil
}

func (r *AppointmentRepository) ListActiveNumbers(_ context.Context, availabilityID uuid.UUID) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	// Only a patient cancellation frees the number; cancelled_by_doctor
	// keeps the slot taken, matching the postgres filter.
	for _, a := range r.list(func(a *model.Appointment) bool {
		return a.AvailabilityID == availabilityID && a.Status != model.StatusCancelled
	}) {
		out = append(out, a.AppointmentNumber)
	}
	return out, nil
}

func (r *AppointmentRepository) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(a *model.Appointment) bool { return a.PatientID == patientID }), nil
}

func (r *AppointmentRepository) ListPendingByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(a *model.Appointment) bool {
		return a.PatientID == patientID && a.Status == model.StatusPending
	}), nil
}

func (r *AppointmentRepository) ListPending(_ context.Context) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(a *model.Appointment) bool { return a.Status == model.StatusPending }), nil
}

type sessionRecord struct {
	session       model.Session
	prescriptions []*model.PrescriptionEntry
	grants        []*model.AccessGrant
}

type SessionRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*sessionRecord
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[uuid.UUID]*sessionRecord)}
}

func (r *SessionRepository) Create(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()
	r.sessions[session.ID] = &sessionRecord{session: *session}
	return nil
}

func (r *SessionRepository) Get(_ context.Context, id uuid.UUID) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.NotFoundMsg("session not found", "session")
	}
	cp := rec.session
	return &cp, nil
}

func (r *SessionRepository) GetByPair(_ context.Context, patientID, doctorID uuid.UUID) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.sessions {
		if rec.session.PatientID == patientID && rec.session.DoctorID == doctorID {
			cp := rec.session
			return &cp, nil
		}
	}
	return nil, apperrors.NotFoundMsg("session not found", "session")
}

func (r *SessionRepository) UpdateStatus(_ context.Context, id uuid.UUID, status model.SessionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[id]
	if !ok {
		return apperrors.NotFoundMsg("session not found", "session")
	}
	rec.session.Status = status
	rec.session.UpdatedAt = time.Now()
	return nil
}

func (r *SessionRepository) TouchDoctorAccess(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[id]
	if !ok {
		return apperrors.NotFoundMsg("session not found", "session")
	}
	rec.session.DoctorLastAccessedDate = &at
	return nil
}

func (r *SessionRepository) ListByDoctor(_ context.Context, doctorID uuid.UUID, status model.SessionStatus) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Session
	for _, rec := range r.sessions {
		if rec.session.DoctorID == doctorID && rec.session.Status == status {
			cp := rec.session
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *SessionRepository) ListByPatient(_ context.Context, patientID uuid.UUID, status model.SessionStatus) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Session
	for _, rec := range r.sessions {
		if rec.session.PatientID == patientID && rec.session.Status == status {
			cp := rec.session
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *SessionRepository) CountConnectedByDoctor(_ context.Context, doctorID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, rec := range r.sessions {
		if rec.session.DoctorID == doctorID && rec.session.Status == model.SessionConnected {
			count++
		}
	}
	return count, nil
}

func (r *SessionRepository) AddPrescription(_ context.Context, entry *model.PrescriptionEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[entry.SessionID]
	if !ok {
		return apperrors.NotFoundMsg("session not found", "session")
	}
	entry.ID = uuid.New()
	cp := *entry
	rec.prescriptions = append(rec.prescriptions, &cp)
	return nil
}

func (r *SessionRepository) ListPrescriptions(_ context.Context, sessionID uuid.UUID) ([]*model.PrescriptionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperrors.NotFoundMsg("session not found", "session")
	}
	out := make([]*model.PrescriptionEntry, 0, len(rec.prescriptions))
	for _, entry := range rec.prescriptions {
		cp := *entry
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionDate.After(out[j].SessionDate) })
	return out, nil
}

func (r *SessionRepository) ListGrants(_ context.Context, sessionID uuid.UUID) ([]*model.AccessGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperrors.NotFoundMsg("session not found", "session")
	}
	out := make([]*model.AccessGrant, 0, len(rec.grants))
	for _, grant := range rec.grants {
		cp := *grant
		out = append(out, &cp)
	}
	return out, nil
}

func (r *SessionRepository) ReplaceGrants(_ context.Context, sessionID uuid.UUID, grants []*model.AccessGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[sessionID]
	if !ok {
		return apperrors.NotFoundMsg("session not found", "session")
	}
	rec.grants = nil
	for _, grant := range grants {
		cp := *grant
		rec.grants = append(rec.grants, &cp)
	}
	return nil
}

func (r *SessionRepository) TouchGrantAccess(_ context.Context, sessionID, doctorID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[sessionID]
	if !ok {
		return apperrors.NotFoundMsg("session not found", "session")
	}
	for _, grant := range rec.grants {
		if grant.DoctorID == doctorID {
			grant.InformationLastAccessDate = &at
			return nil
		}
	}
	return apperrors.NotFoundMsg("grant not found", "grant")
}

func (r *SessionRepository) ListSharedWithDoctor(_ context.Context, patientID, doctorID uuid.UUID) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Session
	for _, rec := range r.sessions {
		if rec.session.PatientID != patientID || rec.session.DoctorID == doctorID {
			continue
		}
		for _, grant := range rec.grants {
			if grant.DoctorID == doctorID {
				cp := rec.session
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type reportRecord struct {
	report model.Report
	grants []*model.AccessGrant
}

type ReportRepository struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*reportRecord
}

func NewReportRepository() *ReportRepository {
	return &ReportRepository{reports: make(map[uuid.UUID]*reportRecord)}
}

func (r *ReportRepository) Create(_ context.Context, report *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report.ID = uuid.New()
	report.CreatedAt = time.Now()
	report.UpdatedAt = time.Now()
	r.reports[report.ID] = &reportRecord{report: *report}
	return nil
}

func (r *ReportRepository) Get(_ context.Context, id uuid.UUID) (*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.reports[id]
	if !ok {
		return nil, apperrors.NotFoundMsg("report not found", "report")
	}
	cp := rec.report
	return &cp, nil
}

func (r *ReportRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reports[id]; !ok {
		return apperrors.NotFoundMsg("report not found", "report")
	}
	delete(r.reports, id)
	return nil
}

func (r *ReportRepository) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Report
	for _, rec := range r.reports {
		if rec.report.PatientID == patientID {
			cp := rec.report
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TookDate.After(out[j].TookDate) })
	return out, nil
}

func (r *ReportRepository) ListByPatientGrantedTo(_ context.Context, patientID, doctorID uuid.UUID) ([]*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Report
	for _, rec := range r.reports {
		if rec.report.PatientID != patientID {
			continue
		}
		for _, grant := range rec.grants {
			if grant.DoctorID == doctorID {
				cp := rec.report
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TookDate.After(out[j].TookDate) })
	return out, nil
}

func (r *ReportRepository) ListGrants(_ context.Context, reportID uuid.UUID) ([]*model.AccessGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.reports[reportID]
	if !ok {
		return nil, apperrors.NotFoundMsg("report not found", "report")
	}
	out := make([]*model.AccessGrant, 0, len(rec.grants))
	for _, grant := range rec.grants {
		cp := *grant
		out = append(out, &cp)
	}
	return out, nil
}

func (r *ReportRepository) ReplaceGrants(_ context.Context, reportID uuid.UUID, grants []*model.AccessGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.reports[reportID]
	if !ok {
		return apperrors.NotFoundMsg("report not found", "report")
	}
	rec.grants = nil
	for _, grant := range grants {
		cp := *grant
		rec.grants = append(rec.grants, &cp)
	}
	return nil
}

func (r *ReportRepository) TouchGrantAccess(_ context.Context, reportID, doctorID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.reports[reportID]
	if !ok {
		return apperrors.NotFoundMsg("report not found", "report")
	}
	for _, grant := range rec.grants {
		if grant.DoctorID == doctorID {
			grant.InformationLastAccessDate = &at
			return nil
		}
	}
	return apperrors.NotFoundMsg("grant not found", "grant")
}
