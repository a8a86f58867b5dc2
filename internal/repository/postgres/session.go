package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/medilink/care-api/pkg/errors"

	"github.com/medilink/care-api/internal/model"
)

const sessionColumns = `
	id, patient_id, doctor_id, status, doctor_last_accessed_date,
	created_at, updated_at
`

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO patient_sessions (
			id, patient_id, doctor_id, status, doctor_last_accessed_date,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.PatientID,
		session.DoctorID,
		session.Status,
		session.DoctorLastAccessedDate,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM patient_sessions WHERE id = $1`

	var session model.Session
	err := r.db.GetContext(ctx, &session, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("session", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) GetByPair(ctx context.Context, patientID, doctorID uuid.UUID) (*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM patient_sessions
		WHERE patient_id = $1 AND doctor_id = $2
	`
	var session model.Session
	err := r.db.GetContext(ctx, &session, query, patientID, doctorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("session", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session by pair: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SessionStatus) error {
	query := `
		UPDATE patient_sessions
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("session", nil)
	}
	return nil
}

func (r *sessionRepository) TouchDoctorAccess(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE patient_sessions
		SET doctor_last_accessed_date = $1, updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, at, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to touch doctor access date: %w", err)
	}
	return nil
}

func (r *sessionRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status model.SessionStatus) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM patient_sessions
		WHERE doctor_id = $1 AND status = $2
		ORDER BY created_at ASC
	`
	var sessions []*model.Session
	err := r.db.SelectContext(ctx, &sessions, query, doctorID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions by doctor: %w", err)
	}
	return sessions, nil
}

func (r *sessionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, status model.SessionStatus) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM patient_sessions
		WHERE patient_id = $1 AND status = $2
		ORDER BY created_at ASC
	`
	var sessions []*model.Session
	err := r.db.SelectContext(ctx, &sessions, query, patientID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions by patient: %w", err)
	}
	return sessions, nil
}

func (r *sessionRepository) CountConnectedByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM patient_sessions
		WHERE doctor_id = $1 AND status = $2
	`
	var count int
	err := r.db.GetContext(ctx, &count, query, doctorID, model.SessionConnected)
	if err != nil {
		return 0, fmt.Errorf("failed to count connected patients: %w", err)
	}
	return count, nil
}

// prescriptionRow maps a prescription entry with its JSON-encoded
// medicine and report lists.
type prescriptionRow struct {
	ID            uuid.UUID  `db:"id"`
	SessionID     uuid.UUID  `db:"session_id"`
	SessionDate   time.Time  `db:"session_date"`
	Symptoms      string     `db:"symptoms"`
	Diseases      string     `db:"diseases"`
	Stage         string     `db:"stage"`
	Medicines     []byte     `db:"medicines"`
	Reports       []byte     `db:"reports"`
	Weight        *float64   `db:"weight"`
	Height        *float64   `db:"height"`
	NextVisitDate *time.Time `db:"next_visit_date"`
	Other         string     `db:"other"`
}

func (r *sessionRepository) AddPrescription(ctx context.Context, entry *model.PrescriptionEntry) error {
	medicines, err := json.Marshal(entry.Medicines)
	if err != nil {
		return fmt.Errorf("failed to marshal medicines: %w", err)
	}
	reports, err := json.Marshal(entry.Reports)
	if err != nil {
		return fmt.Errorf("failed to marshal reports: %w", err)
	}

	query := `
		INSERT INTO prescription_entries (
			id, session_id, session_date, symptoms, diseases, stage,
			medicines, reports, weight, height, next_visit_date, other
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	entry.ID = uuid.New()

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.SessionID,
		entry.SessionDate,
		entry.Symptoms,
		entry.Diseases,
		entry.Stage,
		medicines,
		reports,
		entry.Weight,
		entry.Height,
		entry.NextVisitDate,
		entry.Other,
	)
	if err != nil {
		return fmt.Errorf("failed to add prescription entry: %w", err)
	}
	return nil
}

func (r *sessionRepository) ListPrescriptions(ctx context.Context, sessionID uuid.UUID) ([]*model.PrescriptionEntry, error) {
	query := `
		SELECT id, session_id, session_date, symptoms, diseases, stage,
			   medicines, reports, weight, height, next_visit_date, other
		FROM prescription_entries
		WHERE session_id = $1
		ORDER BY session_date DESC
	`
	var rows []*prescriptionRow
	err := r.db.SelectContext(ctx, &rows, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescription entries: %w", err)
	}

	entries := make([]*model.PrescriptionEntry, 0, len(rows))
	for _, row := range rows {
		entry := &model.PrescriptionEntry{
			ID:            row.ID,
			SessionID:     row.SessionID,
			SessionDate:   row.SessionDate,
			Symptoms:      row.Symptoms,
			Diseases:      row.Diseases,
			Stage:         row.Stage,
			Weight:        row.Weight,
			Height:        row.Height,
			NextVisitDate: row.NextVisitDate,
			Other:         row.Other,
		}
		if len(row.Medicines) > 0 {
			if err := json.Unmarshal(row.Medicines, &entry.Medicines); err != nil {
				return nil, fmt.Errorf("failed to unmarshal medicines: %w", err)
			}
		}
		if len(row.Reports) > 0 {
			if err := json.Unmarshal(row.Reports, &entry.Reports); err != nil {
				return nil, fmt.Errorf("failed to unmarshal reports: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *sessionRepository) ListGrants(ctx context.Context, sessionID uuid.UUID) ([]*model.AccessGrant, error) {
	query := `
		SELECT doctor_id, information_last_access_date
		FROM session_access_grants
		WHERE session_id = $1
	`
	var grants []*model.AccessGrant
	err := r.db.SelectContext(ctx, &grants, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session grants: %w", err)
	}
	return grants, nil
}

func (r *sessionRepository) ReplaceGrants(ctx context.Context, sessionID uuid.UUID, grants []*model.AccessGrant) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_access_grants WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear session grants: %w", err)
	}

	for _, grant := range grants {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session_access_grants (session_id, doctor_id, information_last_access_date)
			VALUES ($1, $2, $3)
		`, sessionID, grant.DoctorID, grant.InformationLastAccessDate)
		if err != nil {
			return fmt.Errorf("failed to insert session grant: %w", err)
		}
	}

	return tx.Commit()
}

func (r *sessionRepository) TouchGrantAccess(ctx context.Context, sessionID, doctorID uuid.UUID, at time.Time) error {
	query := `
		UPDATE session_access_grants
		SET information_last_access_date = $1
		WHERE session_id = $2 AND doctor_id = $3
	`
	_, err := r.db.ExecContext(ctx, query, at, sessionID, doctorID)
	if err != nil {
		return fmt.Errorf("failed to touch grant access date: %w", err)
	}
	return nil
}

func (r *sessionRepository) ListSharedWithDoctor(ctx context.Context, patientID, doctorID uuid.UUID) ([]*model.Session, error) {
	query := `
		SELECT s.id, s.patient_id, s.doctor_id, s.status, s.doctor_last_accessed_date,
			   s.created_at, s.updated_at
		FROM patient_sessions s
		JOIN session_access_grants g ON g.session_id = s.id
		WHERE s.patient_id = $1 AND g.doctor_id = $2 AND s.doctor_id != $2
	`
	var sessions []*model.Session
	err := r.db.SelectContext(ctx, &sessions, query, patientID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared sessions: %w", err)
	}
	return sessions, nil
}
