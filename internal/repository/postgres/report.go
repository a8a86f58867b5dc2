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

const reportColumns = `
	id, patient_id, report_type, took_date, report_url,
	created_at, updated_at
`

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	query := `
		INSERT INTO reports (
			id, patient_id, report_type, took_date, report_url,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	report.ID = uuid.New()
	report.CreatedAt = time.Now()
	report.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		report.ID,
		report.PatientID,
		report.ReportType,
		report.TookDate,
		report.ReportURL,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) Get(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	var report model.Report
	err := r.db.GetContext(ctx, &report, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("report", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

func (r *reportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("report", nil)
	}
	return nil
}

func (r *reportRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE patient_id = $1
		ORDER BY took_date DESC
	`
	var reports []*model.Report
	err := r.db.SelectContext(ctx, &reports, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) ListByPatientGrantedTo(ctx context.Context, patientID, doctorID uuid.UUID) ([]*model.Report, error) {
	query := `
		SELECT r.id, r.patient_id, r.report_type, r.took_date, r.report_url,
			   r.created_at, r.updated_at
		FROM reports r
		JOIN report_access_grants g ON g.report_id = r.id
		WHERE r.patient_id = $1 AND g.doctor_id = $2
		ORDER BY r.took_date DESC
	`
	var reports []*model.Report
	err := r.db.SelectContext(ctx, &reports, query, patientID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list granted reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) ListGrants(ctx context.Context, reportID uuid.UUID) ([]*model.AccessGrant, error) {
	query := `
		SELECT doctor_id, information_last_access_date
		FROM report_access_grants
		WHERE report_id = $1
	`
	var grants []*model.AccessGrant
	err := r.db.SelectContext(ctx, &grants, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list report grants: %w", err)
	}
	return grants, nil
}

func (r *reportRepository) ReplaceGrants(ctx context.Context, reportID uuid.UUID, grants []*model.AccessGrant) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_access_grants WHERE report_id = $1`, reportID); err != nil {
		return fmt.Errorf("failed to clear report grants: %w", err)
	}

	for _, grant := range grants {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO report_access_grants (report_id, doctor_id, information_last_access_date)
			VALUES ($1, $2, $3)
		`, reportID, grant.DoctorID, grant.InformationLastAccessDate)
		if err != nil {
			return fmt.Errorf("failed to insert report grant: %w", err)
		}
	}

	return tx.Commit()
}

func (r *reportRepository) TouchGrantAccess(ctx context.Context, reportID, doctorID uuid.UUID, at time.Time) error {
	query := `
		UPDATE report_access_grants
		SET information_last_access_date = $1
		WHERE report_id = $2 AND doctor_id = $3
	`
	_, err := r.db.ExecContext(ctx, query, at, reportID, doctorID)
	if err != nil {
		return fmt.Errorf("failed to touch report grant access date: %w", err)
	}
	return nil
}
