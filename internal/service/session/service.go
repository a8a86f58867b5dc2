package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medilink/care-api/pkg/auth"
	apperrors "github.com/medilink/care-api/pkg/errors"

	"github.com/medilink/care-api/internal/model"
	"github.com/medilink/care-api/internal/repository"
)

type Service struct {
	repo        repository.SessionRepository
	doctorRepo  repository.DoctorRepository
	patientRepo repository.PatientRepository
	availRepo   repository.AvailabilityRepository
	apptRepo    repository.AppointmentRepository
}

func NewService(
	repo repository.SessionRepository,
	doctorRepo repository.DoctorRepository,
	patientRepo repository.PatientRepository,
	availRepo repository.AvailabilityRepository,
	apptRepo repository.AppointmentRepository,
) *Service {
	return &Service{
		repo:        repo,
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		availRepo:   availRepo,
		apptRepo:    apptRepo,
	}
}

// Connect establishes the doctor-patient relationship. A previously
// disconnected pair is reconnected in place; a second connect on a live
// pair is a conflict.
func (s *Service) Connect(ctx context.Context, patientID, doctorID uuid.UUID) (*model.Session, error) {
	if _, err := s.doctorRepo.Get(ctx, doctorID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByPair(ctx, patientID, doctorID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
		session := &model.Session{
			PatientID: patientID,
			DoctorID:  doctorID,
			Status:    model.SessionConnected,
		}
		if err := s.repo.Create(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		return session, nil
	}

	if existing.Status == model.SessionConnected {
		return nil, apperrors.Conflict("you are already connected with this doctor", "session")
	}

	if err := s.repo.UpdateStatus(ctx, existing.ID, model.SessionConnected); err != nil {
		return nil, fmt.Errorf("failed to reconnect session: %w", err)
	}
	existing.Status = model.SessionConnected
	return existing, nil
}

// Disconnect requires a live session for the pair.
func (s *Service) Disconnect(ctx context.Context, patientID, doctorID uuid.UUID) error {
	session, err := s.repo.GetByPair(ctx, patientID, doctorID)
	if err != nil {
		return err
	}
	if session.Status != model.SessionConnected {
		return apperrors.NotFoundMsg("no connected session with this doctor", "session")
	}
	if err := s.repo.UpdateStatus(ctx, session.ID, model.SessionDisconnected); err != nil {
		return fmt.Errorf("failed to disconnect session: %w", err)
	}
	return nil
}

// AddPrescription appends a dated clinical entry to the pair's session.
// Only the session's own doctor writes, and only while connected.
func (s *Service) AddPrescription(ctx context.Context, doctorID, patientID uuid.UUID, req *model.AddPrescriptionRequest) (*model.PrescriptionEntry, error) {
	session, err := s.repo.GetByPair(ctx, patientID, doctorID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionConnected {
		return nil, apperrors.NotFoundMsg("no connected session with this patient", "session")
	}

	entry := &model.PrescriptionEntry{
		SessionID:     session.ID,
		SessionDate:   req.SessionDate,
		Symptoms:      req.Symptoms,
		Diseases:      req.Diseases,
		Stage:         req.Stage,
		Medicines:     req.Medicines,
		Reports:       req.Reports,
		Weight:        req.Weight,
		Height:        req.Height,
		NextVisitDate: req.NextVisitDate,
		Other:         req.Other,
	}
	if err := s.repo.AddPrescription(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to add prescription: %w", err)
	}
	return entry, nil
}

// GetDetail returns the full session view. Reading leaves a trace: the
// owning doctor's read bumps doctorLastAccessedDate, a delegated doctor's
// read bumps their grant's informationLastAccessDate.
func (s *Service) GetDetail(ctx context.Context, sessionID, requesterID uuid.UUID, role auth.Role) (*model.SessionDetail, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch role {
	case auth.RolePatient:
		if session.PatientID != requesterID {
			return nil, apperrors.Forbidden("you can't view this session", "session")
		}
	case auth.RoleDoctor:
		if session.DoctorID == requesterID {
			now := time.Now()
			if err := s.repo.TouchDoctorAccess(ctx, sessionID, now); err != nil {
				return nil, fmt.Errorf("failed to record access: %w", err)
			}
			session.DoctorLastAccessedDate = &now
		} else {
			granted, err := s.hasGrant(ctx, sessionID, requesterID)
			if err != nil {
				return nil, err
			}
			if !granted {
				return nil, apperrors.Forbidden("you can't view this session", "session")
			}
			if err := s.repo.TouchGrantAccess(ctx, sessionID, requesterID, time.Now()); err != nil {
				return nil, fmt.Errorf("failed to record access: %w", err)
			}
		}
	default:
		return nil, apperrors.Forbidden("you can't view this session", "session")
	}

	prescription, err := s.repo.ListPrescriptions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}

	return &model.SessionDetail{
		SessionID:              session.ID,
		PatientID:              session.PatientID,
		DoctorID:               session.DoctorID,
		Status:                 session.Status,
		DoctorLastAccessedDate: session.DoctorLastAccessedDate,
		Prescription:           prescription,
	}, nil
}

func (s *Service) hasGrant(ctx context.Context, sessionID, doctorID uuid.UUID) (bool, error) {
	grants, err := s.repo.ListGrants(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to list grants: %w", err)
	}
	for _, grant := range grants {
		if grant.DoctorID == doctorID {
			return true, nil
		}
	}
	return false, nil
}

// GetPatientProfile releases a patient's restricted profile to a doctor,
// gated on a live session between the two.
func (s *Service) GetPatientProfile(ctx context.Context, doctorID, patientID uuid.UUID) (*model.PatientProfile, error) {
	session, err := s.repo.GetByPair(ctx, patientID, doctorID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Forbidden("you are not connected with this patient", "patient")
		}
		return nil, err
	}
	if session.Status != model.SessionConnected {
		return nil, apperrors.Forbidden("you are not connected with this patient", "patient")
	}

	patient, err := s.patientRepo.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	profile := patient.Profile()
	return &profile, nil
}

// GetDoctorProfile is the patient-side mirror of GetPatientProfile.
func (s *Service) GetDoctorProfile(ctx context.Context, patientID, doctorID uuid.UUID) (*model.DoctorProfile, error) {
	session, err := s.repo.GetByPair(ctx, patientID, doctorID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Forbidden("you are not connected with this doctor", "doctor")
		}
		return nil, err
	}
	if session.Status != model.SessionConnected {
		return nil, apperrors.Forbidden("you are not connected with this doctor", "doctor")
	}

	doctor, err := s.doctorRepo.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	profile := doctor.Profile()
	return &profile, nil
}

// ListConnectedPatients returns the doctor's live sessions with restricted
// patient projections.
func (s *Service) ListConnectedPatients(ctx context.Context, doctorID uuid.UUID) ([]*model.ConnectedPatient, error) {
	sessions, err := s.repo.ListByDoctor(ctx, doctorID, model.SessionConnected)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := make([]*model.ConnectedPatient, 0, len(sessions))
	for _, session := range sessions {
		patient, err := s.patientRepo.Get(ctx, session.PatientID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, &model.ConnectedPatient{
			SessionID: session.ID,
			Patient:   patient.Profile(),
		})
	}
	return out, nil
}

// ListConnectedDoctors is the patient-side mirror, annotated with when the
// doctor last opened the record.
func (s *Service) ListConnectedDoctors(ctx context.Context, patientID uuid.UUID) ([]*model.ConnectedDoctor, error) {
	sessions, err := s.repo.ListByPatient(ctx, patientID, model.SessionConnected)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := make([]*model.ConnectedDoctor, 0, len(sessions))
	for _, session := range sessions {
		doctor, err := s.doctorRepo.Get(ctx, session.DoctorID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, &model.ConnectedDoctor{
			SessionID:              session.ID,
			Doctor:                 doctor.Profile(),
			DoctorLastAccessedDate: session.DoctorLastAccessedDate,
		})
	}
	return out, nil
}

// ListSharedSessions returns the patient's sessions owned by other doctors
// that this doctor has been delegated into.
func (s *Service) ListSharedSessions(ctx context.Context, doctorID, patientID uuid.UUID) ([]*model.SharedSession, error) {
	sessions, err := s.repo.ListSharedWithDoctor(ctx, patientID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared sessions: %w", err)
	}

	out := make([]*model.SharedSession, 0, len(sessions))
	for _, session := range sessions {
		owner, err := s.doctorRepo.Get(ctx, session.DoctorID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, &model.SharedSession{
			SessionID: session.ID,
			Doctor:    owner.Profile(),
		})
	}
	return out, nil
}

// ComputeGrantCandidates builds the patient's delegation picker for one
// session: every connected doctor except the session's own, flagged with
// their current grant state.
func (s *Service) ComputeGrantCandidates(ctx context.Context, patientID, sessionID uuid.UUID) ([]*model.GrantCandidate, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.PatientID != patientID {
		return nil, apperrors.Forbidden("you can't manage access for this session", "session")
	}

	grants, err := s.repo.ListGrants(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	grantsByDoctor := make(map[uuid.UUID]*model.AccessGrant, len(grants))
	for _, grant := range grants {
		grantsByDoctor[grant.DoctorID] = grant
	}

	connected, err := s.repo.ListByPatient(ctx, patientID, model.SessionConnected)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	candidates := make([]*model.GrantCandidate, 0, len(connected))
	for _, other := range connected {
		if other.DoctorID == session.DoctorID {
			continue
		}
		doctor, err := s.doctorRepo.Get(ctx, other.DoctorID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		candidate := &model.GrantCandidate{
			DoctorID:    doctor.ID,
			FirstName:   doctor.FirstName,
			LastName:    doctor.LastName,
			Designation: doctor.Designation,
			ImgURL:      doctor.ImgURL,
		}
		if grant, ok := grantsByDoctor[doctor.ID]; ok {
			candidate.Allowed = true
			candidate.InformationLastAccessDate = grant.InformationLastAccessDate
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// ReconcileGrants applies the patient's desired delegation state and
// replaces the grant set wholesale. Entries naming the session's own
// doctor are skipped; entries naming a doctor the patient is not connected
// to fail the whole call.
func (s *Service) ReconcileGrants(ctx context.Context, patientID, sessionID uuid.UUID, desired []model.GrantUpdate) ([]*model.AccessGrant, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.PatientID != patientID {
		return nil, apperrors.Forbidden("you can't manage access for this session", "session")
	}

	connected, err := s.repo.ListByPatient(ctx, patientID, model.SessionConnected)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	connectedSet := make(map[uuid.UUID]bool, len(connected))
	for _, other := range connected {
		connectedSet[other.DoctorID] = true
	}

	grants, err := s.repo.ListGrants(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	result := make(map[uuid.UUID]*model.AccessGrant, len(grants))
	order := make([]uuid.UUID, 0, len(grants))
	for _, grant := range grants {
		result[grant.DoctorID] = grant
		order = append(order, grant.DoctorID)
	}

	for _, update := range desired {
		if update.DoctorID == session.DoctorID {
			continue
		}
		if !connectedSet[update.DoctorID] {
			return nil, apperrors.Validation("doctor is not connected with the patient", "doctors_allowed")
		}
		_, present := result[update.DoctorID]
		switch {
		case update.Allowed && !present:
			// Fresh grants start with no recorded access.
			result[update.DoctorID] = &model.AccessGrant{DoctorID: update.DoctorID}
			order = append(order, update.DoctorID)
		case !update.Allowed && present:
			delete(result, update.DoctorID)
		}
	}

	reconciled := make([]*model.AccessGrant, 0, len(result))
	for _, doctorID := range order {
		if grant, ok := result[doctorID]; ok {
			reconciled = append(reconciled, grant)
		}
	}
	if err := s.repo.ReplaceGrants(ctx, sessionID, reconciled); err != nil {
		return nil, fmt.Errorf("failed to replace grants: %w", err)
	}
	return reconciled, nil
}

// GetDashboard aggregates the doctor's day: connected-patient count,
// today's blocks and pending appointments, and demographics over the
// connected panel.
func (s *Service) GetDashboard(ctx context.Context, doctorID uuid.UUID) (*model.Dashboard, error) {
	count, err := s.repo.CountConnectedByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	availabilities, err := s.availRepo.ListByDoctorInRange(ctx, doctorID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to list availabilities: %w", err)
	}

	var todayAppointments []*model.DoctorAppointmentEntry
	for _, availability := range availabilities {
		appointments, err := s.apptRepo.ListPendingByAvailability(ctx, availability.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list appointments: %w", err)
		}
		for _, appointment := range appointments {
			patient, err := s.patientRepo.Get(ctx, appointment.PatientID)
			if err != nil {
				if apperrors.IsNotFound(err) {
					continue
				}
				return nil, err
			}
			todayAppointments = append(todayAppointments, &model.DoctorAppointmentEntry{
				AppointmentID:     appointment.ID,
				AppointmentNumber: appointment.AppointmentNumber,
				SessionTime:       availability.SessionTime(appointment.AppointmentNumber),
				Location:          availability.Location,
				Patient:           patient.Profile(),
			})
		}
	}

	sessions, err := s.repo.ListByDoctor(ctx, doctorID, model.SessionConnected)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	patientIDs := make([]uuid.UUID, 0, len(sessions))
	for _, session := range sessions {
		patientIDs = append(patientIDs, session.PatientID)
	}
	patients, err := s.patientRepo.ListByIDs(ctx, patientIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve patients: %w", err)
	}

	byGender := make(map[string]int)
	byBirthYear := make(map[int]int)
	for _, patient := range patients {
		byGender[patient.Gender]++
		byBirthYear[patient.DateOfBirth.Year()]++
	}

	return &model.Dashboard{
		ConnectedPatientCount: count,
		TodayAvailabilities:   availabilities,
		TodayAppointments:     todayAppointments,
		PatientsByGender:      byGender,
		PatientsByBirthYear:   byBirthYear,
	}, nil
}
