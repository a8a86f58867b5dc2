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

func (r *availabilityRepository) Create(ctx context.Context, availability *model.Availability) error {
	query := `
		INSERT INTO doctor_availabilities (
			id, doctor_id, date, start_time, session_duration,
			number_of_appointments, location, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	availability.ID = uuid.New()
	availability.CreatedAt = time.Now()
	availability.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		availability.ID,
		availability.DoctorID,
		availability.Date,
		availability.StartTime,
		availability.SessionDuration,
		availability.NumberOfAppointments,
		availability.Location,
		availability.Status,
		availability.CreatedAt,
		availability.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability: %w", err)
	}
	return nil
}

func (r *availabilityRepository) Get(ctx context.Context, id uuid.UUID) (*model.Availability, error) {
	query := `
		SELECT id, doctor_id, date, start_time, session_duration,
			   number_of_appointments, location, status,
			   created_at, updated_at
		FROM doctor_availabilities
		WHERE id = $1
	`
	var availability model.Availability
	err := r.db.GetContext(ctx, &availability, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("availability", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	return &availability, nil
}

func (r *availabilityRepository) Update(ctx context.Context, availability *model.Availability) error {
	query := `
		UPDATE doctor_availabilities
		SET session_duration = $1, number_of_appointments = $2, location = $3, updated_at = $4
		WHERE id = $5
	`
	availability.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		availability.SessionDuration,
		availability.NumberOfAppointments,
		availability.Location,
		availability.UpdatedAt,
		availability.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("availability", nil)
	}
	return nil
}

func (r *availabilityRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AvailabilityStatus) error {
	query := `
		UPDATE doctor_availabilities
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update availability status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("availability", nil)
	}
	return nil
}

func (r *availabilityRepository) ListPendingByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Availability, error) {
	query := `
		SELECT id, doctor_id, date, start_time, session_duration,
			   number_of_appointments, location, status,
			   created_at, updated_at
		FROM doctor_availabilities
		WHERE doctor_id = $1 AND status = $2
		ORDER BY date ASC, start_time ASC
	`
	var availabilities []*model.Availability
	err := r.db.SelectContext(ctx, &availabilities, query, doctorID, model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list availabilities: %w", err)
	}
	return availabilities, nil
}

func (r *availabilityRepository) ListByDoctorInRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.Availability, error) {
	query := `
		SELECT id, doctor_id, date, start_time, session_duration,
			   number_of_appointments, location, status,
			   created_at, updated_at
		FROM doctor_availabilities
		WHERE doctor_id = $1 AND date >= $2 AND date <= $3
		ORDER BY start_time ASC
	`
	var availabilities []*model.Availability
	err := r.db.SelectContext(ctx, &availabilities, query, doctorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list availabilities in range: %w", err)
	}
	return availabilities, nil
}
