package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/medilink/care-api/pkg/errors"

	"github.com/medilink/care-api/internal/model"
)

const appointmentColumns = `
	id, patient_id, availability_id, appointment_number, status,
	created_at, updated_at
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, availability_id, appointment_number, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.AvailabilityID,
		appointment.AppointmentNumber,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AvailabilityStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) BulkUpdateStatusByAvailability(ctx context.Context, availabilityID uuid.UUID, status model.AvailabilityStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE availability_id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), availabilityID)
	if err != nil {
		return fmt.Errorf("failed to bulk update appointments: %w", err)
	}
	return nil
}

func (r *appointmentRepository) ListByAvailability(ctx context.Context, availabilityID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE availability_id = $1
		ORDER BY appointment_number ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, availabilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListPendingByAvailability(ctx context.Context, availabilityID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE availability_id = $1 AND status = $2
		ORDER BY appointment_number ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, availabilityID, model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListActiveNumbers(ctx context.Context, availabilityID uuid.UUID) ([]int, error) {
	query := `
		SELECT appointment_number
		FROM appointments
		WHERE availability_id = $1 AND status != $2
	`
	var numbers []int
	err := r.db.SelectContext(ctx, &numbers, query, availabilityID, model.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list taken appointment numbers: %w", err)
	}
	return numbers, nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1
		ORDER BY created_at ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patient appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListPendingByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1 AND status = $2
		ORDER BY appointment_number ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, patientID, model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending patient appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListPending(ctx context.Context) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = $1
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending appointments: %w", err)
	}
	return appointments, nil
}
