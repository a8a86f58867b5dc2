package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/medilink/care-api/pkg/errors"
	"github.com/medilink/care-api/pkg/messaging"
	"github.com/medilink/care-api/pkg/metrics"

	"github.com/medilink/care-api/internal/model"
	"github.com/medilink/care-api/internal/repository"
)

// DefaultGracePeriod is how long after an availability block's end a
// pending appointment may linger before the sweep expires it.
const DefaultGracePeriod = 3 * time.Hour

type Service struct {
	apptRepo    repository.AppointmentRepository
	availRepo   repository.AvailabilityRepository
	broker      messaging.Broker
	metrics     *metrics.Metrics
	gracePeriod time.Duration
	now         func() time.Time
}

func NewService(
	apptRepo repository.AppointmentRepository,
	availRepo repository.AvailabilityRepository,
	broker messaging.Broker,
	m *metrics.Metrics,
	gracePeriod time.Duration,
) *Service {
	if gracePeriod <= 0 {
		gracePeriod = DefaultGracePeriod
	}
	return &Service{
		apptRepo:    apptRepo,
		availRepo:   availRepo,
		broker:      broker,
		metrics:     m,
		gracePeriod: gracePeriod,
		now:         time.Now,
	}
}

// Sweep expires stale pending appointments: when the parent block ended
// more than the grace period ago, the appointment goes to Cancelled and
// the block to Done. Re-running is a no-op since the appointment is no
// longer pending. Per-appointment failures are logged and skipped so one
// bad row can't stall the rest of the sweep.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	started := s.now()
	s.metrics.SweepsTotal.Inc()

	pending, err := s.apptRepo.ListPending(ctx)
	if err != nil {
		s.metrics.SweepErrors.Inc()
		return 0, fmt.Errorf("failed to list pending appointments: %w", err)
	}

	expired := 0
	cutoffNow := s.now()
	for _, appointment := range pending {
		availability, err := s.availRepo.Get(ctx, appointment.AvailabilityID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				log.Warn().Str("appointment_id", appointment.ID.String()).Msg("pending appointment has no availability")
				continue
			}
			s.metrics.SweepErrors.Inc()
			log.Error().Err(err).Str("appointment_id", appointment.ID.String()).Msg("sweep: failed to resolve availability")
			continue
		}

		if !cutoffNow.After(availability.EndTime().Add(s.gracePeriod)) {
			continue
		}

		if err := s.apptRepo.UpdateStatus(ctx, appointment.ID, model.StatusCancelled); err != nil {
			s.metrics.SweepErrors.Inc()
			log.Error().Err(err).Str("appointment_id", appointment.ID.String()).Msg("sweep: failed to expire appointment")
			continue
		}
		if err := s.availRepo.UpdateStatus(ctx, availability.ID, model.StatusDone); err != nil {
			s.metrics.SweepErrors.Inc()
			log.Error().Err(err).Str("availability_id", availability.ID.String()).Msg("sweep: failed to close availability")
			continue
		}

		expired++
		s.metrics.AppointmentsSwept.Inc()
		if err := s.broker.Publish(ctx, messaging.ChannelAppointments, messaging.Message{
			Type: messaging.EventAppointmentExpired,
			Payload: map[string]interface{}{
				"appointment_id":  appointment.ID,
				"availability_id": availability.ID,
			},
		}); err != nil {
			log.Warn().Err(err).Msg("failed to publish expiry event")
		}
	}

	s.metrics.SweepDuration.Observe(s.now().Sub(started).Seconds())
	return expired, nil
}
