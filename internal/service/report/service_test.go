package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/medilink/care-api/pkg/errors"

	"github.com/medilink/care-api/internal/model"
	"github.com/medilink/care-api/internal/repository/memory"
)

type fixture struct {
	svc         *Service
	repo        *memory.ReportRepository
	sessionRepo *memory.SessionRepository
	doctorRepo  *memory.DoctorRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:        memory.NewReportRepository(),
		sessionRepo: memory.NewSessionRepository(),
		doctorRepo:  memory.NewDoctorRepository(),
	}
	f.svc = NewService(f.repo, f.sessionRepo, f.doctorRepo)
	return f
}

func (f *fixture) addDoctor(t *testing.T, first string) *model.Doctor {
	t.Helper()
	doctor := &model.Doctor{
		FirstName: first, LastName: "Osei", Designation: "Radiologist",
		Gender: "female", Email: first + "@example.com",
	}
	require.NoError(t, f.doctorRepo.Create(context.Background(), doctor))
	return doctor
}

func (f *fixture) connect(t *testing.T, patientID, doctorID uuid.UUID) {
	t.Helper()
	session := &model.Session{PatientID: patientID, DoctorID: doctorID, Status: model.SessionConnected}
	require.NoError(t, f.sessionRepo.Create(context.Background(), session))
}

func (f *fixture) attach(t *testing.T, patientID uuid.UUID, tookDate time.Time) *model.Report {
	t.Helper()
	report, err := f.svc.Attach(context.Background(), patientID, &model.AttachReportRequest{
		ReportType: "blood",
		ReportURL:  "https://files.example.com/" + uuid.NewString(),
		TookDate:   tookDate,
	})
	require.NoError(t, err)
	return report
}

func TestAttachRejectsFutureTookDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Attach(context.Background(), uuid.New(), &model.AttachReportRequest{
		ReportType: "blood",
		ReportURL:  "https://files.example.com/r1",
		TookDate:   time.Now().Add(48 * time.Hour),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAttachAcceptsTodayRegardlessOfTime(t *testing.T) {
	f := newFixture(t)

	// Later today is fine: only the calendar day is compared.
	now := time.Now()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 0, 0, now.Location())
	report := f.attach(t, uuid.New(), endOfDay)
	assert.NotEqual(t, uuid.Nil, report.ID)
}

func TestListForPatientNewestFirst(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()

	older := f.attach(t, patientID, time.Now().Add(-72*time.Hour))
	newer := f.attach(t, patientID, time.Now().Add(-time.Hour))

	reports, err := f.svc.ListForPatient(context.Background(), patientID)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, newer.ID, reports[0].ID)
	assert.Equal(t, older.ID, reports[1].ID)
}

func TestReconcileAccessAndDoctorListing(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	granted := f.addDoctor(t, "grace")
	ungranted := f.addDoctor(t, "miriam")
	f.connect(t, patientID, granted.ID)
	f.connect(t, patientID, ungranted.ID)

	report := f.attach(t, patientID, time.Now().Add(-time.Hour))

	_, err := f.svc.ReconcileAccess(context.Background(), patientID, report.ID, []model.GrantUpdate{
		{DoctorID: granted.ID, Allowed: true},
	})
	require.NoError(t, err)

	metas, err := f.svc.ListForDoctor(context.Background(), granted.ID, patientID)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, report.ID, metas[0].ID)

	empty, err := f.svc.ListForDoctor(context.Background(), ungranted.ID, patientID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDoctorListingStripsURL(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	doctor := f.addDoctor(t, "grace")
	f.connect(t, patientID, doctor.ID)
	report := f.attach(t, patientID, time.Now().Add(-time.Hour))

	_, err := f.svc.ReconcileAccess(context.Background(), patientID, report.ID, []model.GrantUpdate{
		{DoctorID: doctor.ID, Allowed: true},
	})
	require.NoError(t, err)

	metas, err := f.svc.ListForDoctor(context.Background(), doctor.ID, patientID)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, report.ReportType, metas[0].ReportType)
	// ReportMeta has no URL field at all; the document only comes back
	// through View.
}

func TestReconcileAccessUnconnectedDoctorFails(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	outsider := f.addDoctor(t, "grace")
	report := f.attach(t, patientID, time.Now().Add(-time.Hour))

	_, err := f.svc.ReconcileAccess(context.Background(), patientID, report.ID, []model.GrantUpdate{
		{DoctorID: outsider.ID, Allowed: true},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestReconcileAccessOwnershipAndIdempotence(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	doctor := f.addDoctor(t, "grace")
	f.connect(t, patientID, doctor.ID)
	report := f.attach(t, patientID, time.Now().Add(-time.Hour))

	_, err := f.svc.ReconcileAccess(context.Background(), uuid.New(), report.ID, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	desired := []model.GrantUpdate{{DoctorID: doctor.ID, Allowed: true}}
	first, err := f.svc.ReconcileAccess(context.Background(), patientID, report.ID, desired)
	require.NoError(t, err)
	second, err := f.svc.ReconcileAccess(context.Background(), patientID, report.ID, desired)
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))
}

func TestViewRequiresGrantAndLeavesTrace(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	doctor := f.addDoctor(t, "grace")
	f.connect(t, patientID, doctor.ID)
	report := f.attach(t, patientID, time.Now().Add(-time.Hour))

	_, err := f.svc.View(context.Background(), doctor.ID, report.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.svc.ReconcileAccess(context.Background(), patientID, report.ID, []model.GrantUpdate{
		{DoctorID: doctor.ID, Allowed: true},
	})
	require.NoError(t, err)

	viewed, err := f.svc.View(context.Background(), doctor.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ReportURL, viewed.ReportURL)

	grants, err := f.repo.ListGrants(context.Background(), report.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.NotNil(t, grants[0].InformationLastAccessDate)
}

func TestDeleteOwnershipChecked(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()
	report := f.attach(t, patientID, time.Now().Add(-time.Hour))

	err := f.svc.Delete(context.Background(), uuid.New(), report.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	require.NoError(t, f.svc.Delete(context.Background(), patientID, report.ID))
	err = f.svc.Delete(context.Background(), patientID, report.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
