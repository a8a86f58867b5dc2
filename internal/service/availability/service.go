package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/medilink/care-api/pkg/errors"
	"github.com/medilink/care-api/pkg/messaging"
	"github.com/medilink/care-api/pkg/metrics"

	"github.com/medilink/care-api/internal/email"
	"github.com/medilink/care-api/internal/model"
	"github.com/medilink/care-api/internal/repository"
)

// cancellationTimeFormat renders the block date the way patients see it
// in the cancellation mail, e.g. "2026 September 14 at 09:00".
const cancellationTimeFormat = "2006 January 2 at 15:04"

type Service struct {
	repo        repository.AvailabilityRepository
	apptRepo    repository.AppointmentRepository
	doctorRepo  repository.DoctorRepository
	patientRepo repository.PatientRepository
	emailSvc    email.Service
	broker      messaging.Broker
	metrics     *metrics.Metrics
}

func NewService(
	repo repository.AvailabilityRepository,
	apptRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	patientRepo repository.PatientRepository,
	emailSvc email.Service,
	broker messaging.Broker,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:        repo,
		apptRepo:    apptRepo,
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		emailSvc:    emailSvc,
		broker:      broker,
		metrics:     m,
	}
}

// Create publishes a new pending availability block for the doctor.
func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, req *model.CreateAvailabilityRequest) (*model.Availability, error) {
	if !req.Date.After(time.Now()) {
		return nil, apperrors.Validation("date must be in the future", "date")
	}

	if _, err := s.doctorRepo.Get(ctx, doctorID); err != nil {
		return nil, err
	}

	availability := &model.Availability{
		DoctorID:             doctorID,
		Date:                 req.Date,
		StartTime:            req.StartTime,
		SessionDuration:      req.SessionDuration,
		NumberOfAppointments: req.NumberOfAppointments,
		Location:             req.Location,
		Status:               model.StatusPending,
	}

	if err := s.repo.Create(ctx, availability); err != nil {
		return nil, fmt.Errorf("failed to create availability: %w", err)
	}
	return availability, nil
}

// ListForDoctor returns the doctor's pending blocks ordered by date and
// start time, together with the doctor's public profile.
func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) (*model.DoctorAvailabilityList, error) {
	doctor, err := s.doctorRepo.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	availabilities, err := s.repo.ListPendingByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availabilities: %w", err)
	}

	return &model.DoctorAvailabilityList{
		Doctor:         doctor.Profile(),
		Availabilities: availabilities,
	}, nil
}

// Update applies a partial update to a block the requester owns. Status,
// doctor, date and start time are not mutable through this path.
func (s *Service) Update(ctx context.Context, availabilityID, requesterID uuid.UUID, req *model.UpdateAvailabilityRequest) (*model.Availability, error) {
	availability, err := s.repo.Get(ctx, availabilityID)
	if err != nil {
		return nil, err
	}

	if availability.DoctorID != requesterID {
		return nil, apperrors.Forbidden("you can't update this doctor schedule", "availability")
	}

	if req.SessionDuration != nil {
		availability.SessionDuration = *req.SessionDuration
	}
	if req.NumberOfAppointments != nil {
		availability.NumberOfAppointments = *req.NumberOfAppointments
	}
	if req.Location != nil {
		availability.Location = *req.Location
	}

	if err := s.repo.Update(ctx, availability); err != nil {
		return nil, fmt.Errorf("failed to update availability: %w", err)
	}
	return availability, nil
}

// UpdateStatus transitions the block and cascades into its appointments.
// Cancelling notifies every booked patient and marks their appointments
// cancelled-by-doctor; marking done bulk-cancels the remaining
// appointments.
func (s *Service) UpdateStatus(ctx context.Context, availabilityID, requesterID uuid.UUID, status model.AvailabilityStatus) (*model.Availability, error) {
	availability, err := s.repo.Get(ctx, availabilityID)
	if err != nil {
		return nil, err
	}

	if availability.DoctorID != requesterID {
		return nil, apperrors.Forbidden("you can't update this doctor schedule", "availability")
	}

	if err := s.repo.UpdateStatus(ctx, availabilityID, status); err != nil {
		return nil, fmt.Errorf("failed to update availability status: %w", err)
	}
	availability.Status = status

	switch status {
	case model.StatusCancelled:
		if err := s.cascadeCancellation(ctx, availability); err != nil {
			return nil, err
		}
	case model.StatusDone:
		// Remaining appointments go to cancelled, not done.
		if err := s.apptRepo.BulkUpdateStatusByAvailability(ctx, availabilityID, model.StatusCancelled); err != nil {
			return nil, fmt.Errorf("failed to cancel remaining appointments: %w", err)
		}
		s.metrics.AvailabilityCascades.WithLabelValues(string(model.StatusDone)).Inc()
	}

	return availability, nil
}

func (s *Service) cascadeCancellation(ctx context.Context, availability *model.Availability) error {
	appointments, err := s.apptRepo.ListByAvailability(ctx, availability.ID)
	if err != nil {
		return fmt.Errorf("failed to list appointments for cascade: %w", err)
	}

	doctor, err := s.doctorRepo.Get(ctx, availability.DoctorID)
	if err != nil {
		return err
	}

	patientIDs := make([]uuid.UUID, 0, len(appointments))
	for _, appt := range appointments {
		patientIDs = append(patientIDs, appt.PatientID)
	}

	patients, err := s.patientRepo.ListByIDs(ctx, patientIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve patients for cascade: %w", err)
	}
	patientsByID := make(map[uuid.UUID]*model.Patient, len(patients))
	for _, p := range patients {
		patientsByID[p.ID] = p
	}

	doctorName := fmt.Sprintf("%s %s", doctor.FirstName, doctor.LastName)
	formattedTime := availability.Date.Format(cancellationTimeFormat)

	for _, appt := range appointments {
		patient, ok := patientsByID[appt.PatientID]
		if !ok {
			log.Error().Str("patient_id", appt.PatientID.String()).Msg("no patient found for appointment")
			continue
		}

		// A bad address must not block the rest of the cascade; the
		// status flip happens regardless of mail outcome.
		patientName := fmt.Sprintf("%s %s", patient.FirstName, patient.LastName)
		if err := s.emailSvc.SendAppointmentCancellation(ctx, patient.Email, patientName, doctorName, availability.Location, formattedTime); err != nil {
			s.metrics.NotificationsFailed.Inc()
			log.Error().Err(err).Str("patient_id", patient.ID.String()).Msg("failed to send cancellation mail")
		} else {
			s.metrics.NotificationsSent.Inc()
		}

		if err := s.apptRepo.UpdateStatus(ctx, appt.ID, model.StatusCancelledByDoctor); err != nil {
			return fmt.Errorf("failed to cascade appointment cancellation: %w", err)
		}
		s.metrics.AppointmentsCancelled.WithLabelValues("doctor").Inc()

		if err := s.broker.Publish(ctx, messaging.ChannelAppointments, messaging.Message{
			Type: messaging.EventAppointmentCancelledByDoctor,
			Payload: map[string]interface{}{
				"appointment_id":  appt.ID,
				"availability_id": availability.ID,
				"patient_id":      appt.PatientID,
			},
		}); err != nil {
			log.Warn().Err(err).Msg("failed to publish cancellation event")
		}
	}

	if err := s.broker.Publish(ctx, messaging.ChannelAppointments, messaging.Message{
		Type: messaging.EventAvailabilityCancelled,
		Payload: map[string]interface{}{
			"availability_id": availability.ID,
			"doctor_id":       availability.DoctorID,
		},
	}); err != nil {
		log.Warn().Err(err).Msg("failed to publish availability cancellation event")
	}

	s.metrics.AvailabilityCascades.WithLabelValues(string(model.StatusCancelled)).Inc()
	return nil
}

// ListAvailableSlots computes the free slot numbers of a pending block,
// each paired with its derived allocated time.
func (s *Service) ListAvailableSlots(ctx context.Context, availabilityID uuid.UUID) ([]*model.AvailableSlot, error) {
	availability, err := s.repo.Get(ctx, availabilityID)
	if err != nil {
		return nil, err
	}

	if availability.Status == model.StatusCancelled || availability.Status == model.StatusDone {
		return nil, apperrors.Forbidden("doctor schedule is not available", "availability")
	}

	taken, err := s.apptRepo.ListActiveNumbers(ctx, availabilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list taken slot numbers: %w", err)
	}

	takenSet := make(map[int]bool, len(taken))
	for _, n := range taken {
		takenSet[n] = true
	}

	slots := make([]*model.AvailableSlot, 0, availability.NumberOfAppointments)
	for n := 1; n <= availability.NumberOfAppointments; n++ {
		if takenSet[n] {
			continue
		}
		slots = append(slots, &model.AvailableSlot{
			AppointmentNumber: n,
			AllocatedTime:     availability.SlotTime(n),
		})
	}
	return slots, nil
}
