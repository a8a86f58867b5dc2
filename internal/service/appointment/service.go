package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/medilink/care-api/pkg/errors"
	"github.com/medilink/care-api/pkg/messaging"
	"github.com/medilink/care-api/pkg/metrics"

	"github.com/medilink/care-api/internal/model"
	"github.com/medilink/care-api/internal/repository"
)

type Service struct {
	repo        repository.AppointmentRepository
	availRepo   repository.AvailabilityRepository
	doctorRepo  repository.DoctorRepository
	patientRepo repository.PatientRepository
	broker      messaging.Broker
	metrics     *metrics.Metrics
}

func NewService(
	repo repository.AppointmentRepository,
	availRepo repository.AvailabilityRepository,
	doctorRepo repository.DoctorRepository,
	patientRepo repository.PatientRepository,
	broker messaging.Broker,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:        repo,
		availRepo:   availRepo,
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		broker:      broker,
		metrics:     m,
	}
}

// Book claims a numbered slot on an availability block. The slot number is
// not re-checked against concurrent bookings; exclusivity is enforced on
// the read side by the slot listing.
func (s *Service) Book(ctx context.Context, patientID, availabilityID uuid.UUID, number int) (*model.BookingConfirmation, error) {
	availability, err := s.availRepo.Get(ctx, availabilityID)
	if err != nil {
		return nil, err
	}
	if availability.Status == model.StatusCancelled || availability.Status == model.StatusDone {
		return nil, apperrors.NotFoundMsg("doctor schedule is not available", "availability")
	}
	if number < 1 || number > availability.NumberOfAppointments {
		return nil, apperrors.Validation("appointment number is out of range", "appointment_number")
	}

	appointment := &model.Appointment{
		PatientID:         patientID,
		AvailabilityID:    availabilityID,
		AppointmentNumber: number,
		Status:            model.StatusPending,
	}
	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}

	s.metrics.AppointmentsBooked.Inc()
	if err := s.broker.Publish(ctx, messaging.ChannelAppointments, messaging.Message{
		Type: messaging.EventAppointmentBooked,
		Payload: map[string]interface{}{
			"appointment_id":  appointment.ID,
			"availability_id": availabilityID,
			"patient_id":      patientID,
		},
	}); err != nil {
		log.Warn().Err(err).Msg("failed to publish booking event")
	}

	return &model.BookingConfirmation{
		AppointmentID:     appointment.ID,
		AvailabilityID:    availabilityID,
		PatientID:         patientID,
		AppointmentNumber: number,
		AppointmentTime:   availability.SlotTime(number),
	}, nil
}

// Cancel lets the owning patient withdraw their appointment.
func (s *Service) Cancel(ctx context.Context, appointmentID, requesterID uuid.UUID) error {
	appointment, err := s.repo.Get(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appointment.PatientID != requesterID {
		return apperrors.Forbidden("you can't cancel this appointment", "appointment")
	}

	if err := s.repo.UpdateStatus(ctx, appointmentID, model.StatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.metrics.AppointmentsCancelled.WithLabelValues("patient").Inc()
	if err := s.broker.Publish(ctx, messaging.ChannelAppointments, messaging.Message{
		Type: messaging.EventAppointmentCancelled,
		Payload: map[string]interface{}{
			"appointment_id": appointmentID,
			"patient_id":     requesterID,
		},
	}); err != nil {
		log.Warn().Err(err).Msg("failed to publish cancellation event")
	}
	return nil
}

// UpdateStatus is the doctor-side status transition. Ownership is checked
// through the parent availability: appointment -> availability -> doctor.
func (s *Service) UpdateStatus(ctx context.Context, appointmentID, requesterID uuid.UUID, status model.AvailabilityStatus) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	availability, err := s.availRepo.Get(ctx, appointment.AvailabilityID)
	if err != nil {
		return nil, err
	}
	if availability.DoctorID != requesterID {
		return nil, apperrors.Forbidden("you can't update this appointment", "appointment")
	}

	if err := s.repo.UpdateStatus(ctx, appointmentID, status); err != nil {
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}
	appointment.Status = status
	return appointment, nil
}

// ListForDoctor returns the doctor's pending appointments grouped under
// their availability blocks. Patient fields come back as the restricted
// projection.
func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.DoctorAppointmentGroup, error) {
	availabilities, err := s.availRepo.ListPendingByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availabilities: %w", err)
	}

	groups := make([]*model.DoctorAppointmentGroup, 0, len(availabilities))
	for _, availability := range availabilities {
		appointments, err := s.repo.ListPendingByAvailability(ctx, availability.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list appointments: %w", err)
		}
		if len(appointments) == 0 {
			continue
		}

		patientsByID, err := s.resolvePatients(ctx, appointments)
		if err != nil {
			return nil, err
		}

		group := &model.DoctorAppointmentGroup{
			AvailabilityID: availability.ID,
			Date:           availability.Date,
			Location:       availability.Location,
		}
		for _, appointment := range appointments {
			patient, ok := patientsByID[appointment.PatientID]
			if !ok {
				continue
			}
			group.Appointments = append(group.Appointments, &model.DoctorAppointmentEntry{
				AppointmentID:     appointment.ID,
				AppointmentNumber: appointment.AppointmentNumber,
				SessionTime:       availability.SessionTime(appointment.AppointmentNumber),
				Location:          availability.Location,
				Patient:           patient.Profile(),
			})
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// ListForPatient returns the patient's pending appointments grouped by
// availability block, annotated with the doctor's public profile.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.PatientAppointmentGroup, error) {
	appointments, err := s.repo.ListPendingByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return s.groupForPatient(ctx, appointments)
}

// ListAllForPatient covers every status. With todayOnly set only
// appointments whose computed session time falls on the current UTC
// calendar day come back.
func (s *Service) ListAllForPatient(ctx context.Context, patientID uuid.UUID, todayOnly bool) ([]*model.PatientAppointmentGroup, error) {
	appointments, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	groups, err := s.groupForPatient(ctx, appointments)
	if err != nil {
		return nil, err
	}
	if !todayOnly {
		return groups, nil
	}

	now := time.Now().UTC()
	filtered := make([]*model.PatientAppointmentGroup, 0, len(groups))
	for _, group := range groups {
		kept := group.Appointments[:0]
		for _, entry := range group.Appointments {
			st := entry.SessionTime.UTC()
			if st.Year() == now.Year() && st.Month() == now.Month() && st.Day() == now.Day() {
				kept = append(kept, entry)
			}
		}
		if len(kept) > 0 {
			group.Appointments = kept
			filtered = append(filtered, group)
		}
	}
	return filtered, nil
}

func (s *Service) groupForPatient(ctx context.Context, appointments []*model.Appointment) ([]*model.PatientAppointmentGroup, error) {
	byAvailability := make(map[uuid.UUID][]*model.Appointment)
	var order []uuid.UUID
	for _, appointment := range appointments {
		if _, seen := byAvailability[appointment.AvailabilityID]; !seen {
			order = append(order, appointment.AvailabilityID)
		}
		byAvailability[appointment.AvailabilityID] = append(byAvailability[appointment.AvailabilityID], appointment)
	}

	groups := make([]*model.PatientAppointmentGroup, 0, len(order))
	for _, availabilityID := range order {
		availability, err := s.availRepo.Get(ctx, availabilityID)
		if err != nil {
			return nil, err
		}
		doctor, err := s.doctorRepo.Get(ctx, availability.DoctorID)
		if err != nil {
			return nil, err
		}

		group := &model.PatientAppointmentGroup{
			AvailabilityID: availability.ID,
			Date:           availability.Date,
			Location:       availability.Location,
		}
		for _, appointment := range byAvailability[availabilityID] {
			group.Appointments = append(group.Appointments, &model.PatientAppointmentEntry{
				AppointmentID:     appointment.ID,
				AppointmentNumber: appointment.AppointmentNumber,
				SessionTime:       availability.SessionTime(appointment.AppointmentNumber),
				Location:          availability.Location,
				Doctor:            doctor.Profile(),
			})
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// ListForDoctorByDate returns the doctor's pending appointments whose
// availability date falls in the inclusive local day window.
func (s *Service) ListForDoctorByDate(ctx context.Context, doctorID uuid.UUID, year int, month time.Month, day int) ([]*model.DayAppointmentEntry, error) {
	start := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	end := start.Add(24 * time.Hour)

	availabilities, err := s.availRepo.ListByDoctorInRange(ctx, doctorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list availabilities: %w", err)
	}

	var entries []*model.DayAppointmentEntry
	for _, availability := range availabilities {
		appointments, err := s.repo.ListPendingByAvailability(ctx, availability.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list appointments: %w", err)
		}
		if len(appointments) == 0 {
			continue
		}

		patientsByID, err := s.resolvePatients(ctx, appointments)
		if err != nil {
			return nil, err
		}

		for _, appointment := range appointments {
			patient, ok := patientsByID[appointment.PatientID]
			if !ok {
				continue
			}
			entries = append(entries, &model.DayAppointmentEntry{
				AppointmentNumber: appointment.AppointmentNumber,
				AppointmentTime:   availability.SessionTime(appointment.AppointmentNumber),
				FirstName:         patient.FirstName,
				LastName:          patient.LastName,
				ImgURL:            patient.ImgURL,
			})
		}
	}
	return entries, nil
}

func (s *Service) resolvePatients(ctx context.Context, appointments []*model.Appointment) (map[uuid.UUID]*model.Patient, error) {
	ids := make([]uuid.UUID, 0, len(appointments))
	for _, appointment := range appointments {
		ids = append(ids, appointment.PatientID)
	}
	patients, err := s.patientRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve patients: %w", err)
	}
	byID := make(map[uuid.UUID]*model.Patient, len(patients))
	for _, patient := range patients {
		byID[patient.ID] = patient
	}
	return byID, nil
}
