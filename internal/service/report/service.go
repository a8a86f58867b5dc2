package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/medilink/care-api/pkg/errors"

	"github.com/medilink/care-api/internal/model"
	"github.com/medilink/care-api/internal/repository"
)

type Service struct {
	repo        repository.ReportRepository
	sessionRepo repository.SessionRepository
	doctorRepo  repository.DoctorRepository
}

func NewService(
	repo repository.ReportRepository,
	sessionRepo repository.SessionRepository,
	doctorRepo repository.DoctorRepository,
) *Service {
	return &Service{repo: repo, sessionRepo: sessionRepo, doctorRepo: doctorRepo}
}

// Attach stores a new report for the patient. The took date may not lie
// after the current calendar day; time of day is ignored for the check.
func (s *Service) Attach(ctx context.Context, patientID uuid.UUID, req *model.AttachReportRequest) (*model.Report, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	took := req.TookDate
	tookDay := time.Date(took.Year(), took.Month(), took.Day(), 0, 0, 0, 0, now.Location())
	if tookDay.After(today) {
		return nil, apperrors.Validation("took date can't be in the future", "took_date")
	}

	report := &model.Report{
		PatientID:  patientID,
		ReportType: req.ReportType,
		TookDate:   req.TookDate,
		ReportURL:  req.ReportURL,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return report, nil
}

// ListForPatient returns the patient's own reports, newest took date first.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Report, error) {
	reports, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// ComputeAccessCandidates builds the patient's visibility picker for one
// report: every connected doctor, flagged with their current access state.
// Unlike sessions a report has no owning doctor, so nobody is excluded.
func (s *Service) ComputeAccessCandidates(ctx context.Context, patientID, reportID uuid.UUID) ([]*model.GrantCandidate, error) {
	report, err := s.repo.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.PatientID != patientID {
		return nil, apperrors.Forbidden("you can't manage access for this report", "report")
	}

	grants, err := s.repo.ListGrants(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	grantsByDoctor := make(map[uuid.UUID]*model.AccessGrant, len(grants))
	for _, grant := range grants {
		grantsByDoctor[grant.DoctorID] = grant
	}

	connected, err := s.sessionRepo.ListByPatient(ctx, patientID, model.SessionConnected)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	candidates := make([]*model.GrantCandidate, 0, len(connected))
	for _, session := range connected {
		doctor, err := s.doctorRepo.Get(ctx, session.DoctorID)
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

// ReconcileAccess applies the patient's desired visibility state to the
// report and replaces the grant set wholesale.
func (s *Service) ReconcileAccess(ctx context.Context, patientID, reportID uuid.UUID, desired []model.GrantUpdate) ([]*model.AccessGrant, error) {
	report, err := s.repo.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.PatientID != patientID {
		return nil, apperrors.Forbidden("you can't manage access for this report", "report")
	}

	connected, err := s.sessionRepo.ListByPatient(ctx, patientID, model.SessionConnected)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	connectedSet := make(map[uuid.UUID]bool, len(connected))
	for _, session := range connected {
		connectedSet[session.DoctorID] = true
	}

	grants, err := s.repo.ListGrants(ctx, reportID)
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
		if !connectedSet[update.DoctorID] {
			return nil, apperrors.Validation("doctor is not connected with the patient", "doctors_allowed")
		}
		_, present := result[update.DoctorID]
		switch {
		case update.Allowed && !present:
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
	if err := s.repo.ReplaceGrants(ctx, reportID, reconciled); err != nil {
		return nil, fmt.Errorf("failed to replace grants: %w", err)
	}
	return reconciled, nil
}

// ListForDoctor returns the patient's reports visible to the doctor, with
// the URL stripped. The document itself is only released through View.
func (s *Service) ListForDoctor(ctx context.Context, doctorID, patientID uuid.UUID) ([]model.ReportMeta, error) {
	reports, err := s.repo.ListByPatientGrantedTo(ctx, patientID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	metas := make([]model.ReportMeta, 0, len(reports))
	for _, report := range reports {
		metas = append(metas, report.Meta())
	}
	return metas, nil
}

// View releases the full report, URL included, to a granted doctor and
// stamps the grant's access date.
func (s *Service) View(ctx context.Context, doctorID, reportID uuid.UUID) (*model.Report, error) {
	report, err := s.repo.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}

	grants, err := s.repo.ListGrants(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	granted := false
	for _, grant := range grants {
		if grant.DoctorID == doctorID {
			granted = true
			break
		}
	}
	if !granted {
		return nil, apperrors.Forbidden("you can't view this report", "report")
	}

	if err := s.repo.TouchGrantAccess(ctx, reportID, doctorID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to record access: %w", err)
	}
	return report, nil
}

// Delete is an ownership-checked hard delete.
func (s *Service) Delete(ctx context.Context, patientID, reportID uuid.UUID) error {
	report, err := s.repo.Get(ctx, reportID)
	if err != nil {
		return err
	}
	if report.PatientID != patientID {
		return apperrors.Forbidden("you can't delete this report", "report")
	}
	if err := s.repo.Delete(ctx, reportID); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}
