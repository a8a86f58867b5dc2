package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medilink/care-api/pkg/auth"
	apperrors "github.com/medilink/care-api/pkg/errors"

	"github.com/medilink/care-api/internal/model"
	"github.com/medilink/care-api/internal/repository/memory"
)

type fixture struct {
	svc         *Service
	repo        *memory.SessionRepository
	doctorRepo  *memory.DoctorRepository
	patientRepo *memory.PatientRepository
	availRepo   *memory.AvailabilityRepository
	apptRepo    *memory.AppointmentRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:        memory.NewSessionRepository(),
		doctorRepo:  memory.NewDoctorRepository(),
		patientRepo: memory.NewPatientRepository(),
		availRepo:   memory.NewAvailabilityRepository(),
		apptRepo:    memory.NewAppointmentRepository(),
	}
	f.svc = NewService(f.repo, f.doctorRepo, f.patientRepo, f.availRepo, f.apptRepo)
	return f
}

func (f *fixture) addDoctor(t *testing.T, first string) *model.Doctor {
	t.Helper()
	doctor := &model.Doctor{
		FirstName: first, LastName: "Osei", Designation: "Cardiologist",
		Gender: "female", Email: first + "@example.com",
	}
	require.NoError(t, f.doctorRepo.Create(context.Background(), doctor))
	return doctor
}

func (f *fixture) addPatient(t *testing.T, gender string, birthYear int) *model.Patient {
	t.Helper()
	patient := &model.Patient{
		FirstName: "Nuwan", LastName: "Perera", Gender: gender,
		Email:       uuid.NewString() + "@example.com",
		DateOfBirth: time.Date(birthYear, 6, 12, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.patientRepo.Create(context.Background(), patient))
	return patient
}

func TestConnectLifecycle(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t, "grace")
	patient := f.addPatient(t, "male", 1988)

	session, err := f.svc.Connect(context.Background(), patient.ID, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionConnected, session.Status)

	// Connecting a live pair again is a conflict, not a duplicate row.
	_, err = f.svc.Connect(context.Background(), patient.ID, doctor.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	require.NoError(t, f.svc.Disconnect(context.Background(), patient.ID, doctor.ID))

	// Reconnect flips the same row back.
	reconnected, err := f.svc.Connect(context.Background(), patient.ID, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, reconnected.ID)
	assert.Equal(t, model.SessionConnected, reconnected.Status)
}

func TestConnectUnknownDoctor(t *testing.T) {
	f := newFixture(t)
	patient := f.addPatient(t, "male", 1988)

	_, err := f.svc.Connect(context.Background(), patient.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDisconnectWithoutConnectedSession(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t, "grace")
	patient := f.addPatient(t, "male", 1988)

	err := f.svc.Disconnect(context.Background(), patient.ID, doctor.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.Connect(context.Background(), patient.ID, doctor.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Disconnect(context.Background(), patient.ID, doctor.ID))

	// A second disconnect finds no live session.
	err = f.svc.Disconnect(context.Background(), patient.ID, doctor.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAddPrescriptionRequiresConnectedSession(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t, "grace")
	patient := f.addPatient(t, "male", 1988)

	req := &model.AddPrescriptionRequest{
		SessionDate: time.Now(),
		Symptoms:    "fever",
		Medicines:   []model.Medicine{{Name: "Paracetamol", Dose: "500mg"}},
	}
	_, err := f.svc.AddPrescription(context.Background(), doctor.ID, patient.ID, req)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.Connect(context.Background(), patient.ID, doctor.ID)
	require.NoError(t, err)

	entry, err := f.svc.AddPrescription(context.Background(), doctor.ID, patient.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "fever", entry.Symptoms)
	require.Len(t, entry.Medicines, 1)
}

func TestGetDetailOwnerDoctorLeavesTrace(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t, "grace")
	patient := f.addPatient(t, "male", 1988)
	session, err := f.svc.Connect(context.Background(), patient.ID, doctor.ID)
	require.NoError(t, err)

	detail, err := f.svc.GetDetail(context.Background(), session.ID, doctor.ID, auth.RoleDoctor)
	require.NoError(t, err)
	require.NotNil(t, detail.DoctorLastAccessedDate)

	stored, err := f.repo.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.DoctorLastAccessedDate)
}

func TestGetDetailDelegatedDoctor(t *testing.T) {
	f := newFixture(t)
	owner := f.addDoctor(t, "grace")
	delegate := f.addDoctor(t, "miriam")
	stranger := f.addDoctor(t, "tomas")
	patient := f.addPatient(t, "male", 1988)
	session, err := f.svc.Connect(context.Background(), patient.ID, owner.ID)
	require.NoError(t, err)
	_, err = f.svc.Connect(context.Background(), patient.ID, delegate.ID)
	require.NoError(t, err)

	_, err = f.svc.ReconcileGrants(context.Background(), patient.ID, session.ID, []model.GrantUpdate{
		{DoctorID: delegate.ID, Allowed: true},
	})
	require.NoError(t, err)

	_, err = f.svc.GetDetail(context.Background(), session.ID, delegate.ID, auth.RoleDoctor)
	require.NoError(t, err)

	// A delegated read stamps the grant's access date.
	grants, err := f.repo.ListGrants(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.NotNil(t, grants[0].InformationLastAccessDate)

	_, err = f.svc.GetDetail(context.Background(), session.ID, stranger.ID, auth.RoleDoctor)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestGetDetailPatientBoundToOwnSession(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t, "grace")
	patient := f.addPatient(t, "male", 1988)
	other := f.addPatient(t, "female", 1992)
	session, err := f.svc.Connect(context.Background(), patient.ID, doctor.ID)
	require.NoError(t, err)

	_, err = f.svc.GetDetail(context.Background(), session.ID, patient.ID, auth.RolePatient)
	require.NoError(t, err)

	_, err = f.svc.GetDetail(context.Background(), session.ID, other.ID, auth.RolePatient)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestGetDetailPrescriptionSortedDescending(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t, "grace")
	patient := f.addPatient(t, "male", 1988)
	session, err := f.svc.Connect(context.Background(), patient.ID, doctor.ID)
	require.NoError(t, err)

	older := time.Now().Add(-48 * time.Hour)
	newer := time.Now().Add(-2 * time.Hour)
	for _, date := range []time.Time{older, newer} {
		_, err = f.svc.AddPrescription(context.Background(), doctor.ID, patient.ID, &model.AddPrescriptionRequest{SessionDate: date})
		require.NoError(t, err)
	}

	detail, err := f.svc.GetDetail(context.Background(), session.ID, patient.ID, auth.RolePatient)
	require.NoError(t, err)
	require.Len(t, detail.Prescription, 2)
	assert.True(t, detail.Prescription[0].SessionDate.After(detail.Prescription[1].SessionDate))
}

func TestListConnectedBothSides(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t, "grace")
	connected := f.addPatient(t, "male", 1988)
	dropped := f.addPatient(t, "female", 1990)

	_, err := f.svc.Connect(context.Background(), connected.ID, doctor.ID)
	require.NoError(t, err)
	_, err = f.svc.Connect(context.Background(), dropped.ID, doctor.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Disconnect(context.Background(), dropped.ID, doctor.ID))

	patients, err := f.svc.ListConnectedPatients(context.Background(), doctor.ID)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, connected.ID, patients[0].Patient.ID)

	doctors, err := f.svc.ListConnectedDoctors(context.Background(), connected.ID)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, doctor.ID, doctors[0].Doctor.ID)
}

func TestGrantCandidatesExcludeOwnerAndFlagAllowed(t *testing.T) {
	f := newFixture(t)
	owner := f.addDoctor(t, "grace")
	allowed := f.addDoctor(t, "miriam")
	notAllowed := f.addDoctor(t, "tomas")
	patient := f.addPatient(t, "male", 1988)

	session, err := f.svc.Connect(context.Background(), patient.ID, owner.ID)
	require.NoError(t, err)
	_, err = f.svc.Connect(context.Background(), patient.ID, allowed.ID)
	require.NoError(t, err)
	_, err = f.svc.Connect(context.Background(), patient.ID, notAllowed.ID)
	require.NoError(t, err)

	_, err = f.svc.ReconcileGrants(context.Background(), patient.ID, session.ID, []model.GrantUpdate{
		{DoctorID: allowed.ID, Allowed: true},
	})
	require.NoError(t, err)

	candidates, err := f.svc.ComputeGrantCandidates(context.Background(), patient.ID, session.ID)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	byID := make(map[uuid.UUID]*model.GrantCandidate)
	for _, candidate := range candidates {
		byID[candidate.DoctorID] = candidate
		assert.NotEqual(t, owner.ID, candidate.DoctorID)
	}
	assert.True(t, byID[allowed.ID].Allowed)
	assert.False(t, byID[notAllowed.ID].Allowed)
}

func TestReconcileGrantsSelfGrantSkippedAndIdempotent(t *testing.T) {
	f := newFixture(t)
	owner := f.addDoctor(t, "grace")
	delegate := f.addDoctor(t, "miriam")
	patient := f.addPatient(t, "male", 1988)

	session, err := f.svc.Connect(context.Background(), patient.ID, owner.ID)
	require.NoError(t, err)
	_, err = f.svc.Connect(context.Background(), patient.ID, delegate.ID)
	require.NoError(t, err)

	desired := []model.GrantUpdate{
		{DoctorID: owner.ID, Allowed: true}, // self-grant, skipped
		{DoctorID: delegate.ID, Allowed: true},
	}
	first, err := f.svc.ReconcileGrants(context.Background(), patient.ID, session.ID, desired)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, delegate.ID, first[0].DoctorID)
	assert.Nil(t, first[0].InformationLastAccessDate)

	// Delegated read stamps the access date; re-applying the same desired
	// state must not reset it.
	_, err = f.svc.GetDetail(context.Background(), session.ID, delegate.ID, auth.RoleDoctor)
	require.NoError(t, err)

	second, err := f.svc.ReconcileGrants(context.Background(), patient.ID, session.ID, desired)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.NotNil(t, second[0].InformationLastAccessDate)
}

func TestReconcileGrantsUnconnectedDoctorFails(t *testing.T) {
	f := newFixture(t)
	owner := f.addDoctor(t, "grace")
	outsider := f.addDoctor(t, "miriam")
	patient := f.addPatient(t, "male", 1988)

	session, err := f.svc.Connect(context.Background(), patient.ID, owner.ID)
	require.NoError(t, err)

	_, err = f.svc.ReconcileGrants(context.Background(), patient.ID, session.ID, []model.GrantUpdate{
		{DoctorID: outsider.ID, Allowed: true},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestReconcileGrantsRemoval(t *testing.T) {
	f := newFixture(t)
	owner := f.addDoctor(t, "grace")
	delegate := f.addDoctor(t, "miriam")
	patient := f.addPatient(t, "male", 1988)

	session, err := f.svc.Connect(context.Background(), patient.ID, owner.ID)
	require.NoError(t, err)
	_, err = f.svc.Connect(context.Background(), patient.ID, delegate.ID)
	require.NoError(t, err)

	_, err = f.svc.ReconcileGrants(context.Background(), patient.ID, session.ID, []model.GrantUpdate{
		{DoctorID: delegate.ID, Allowed: true},
	})
	require.NoError(t, err)

	removed, err := f.svc.ReconcileGrants(context.Background(), patient.ID, session.ID, []model.GrantUpdate{
		{DoctorID: delegate.ID, Allowed: false},
	})
	require.NoError(t, err)
	assert.Empty(t, removed)

	_, err = f.svc.GetDetail(context.Background(), session.ID, delegate.ID, auth.RoleDoctor)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestListSharedSessions(t *testing.T) {
	f := newFixture(t)
	owner := f.addDoctor(t, "grace")
	delegate := f.addDoctor(t, "miriam")
	patient := f.addPatient(t, "male", 1988)

	session, err := f.svc.Connect(context.Background(), patient.ID, owner.ID)
	require.NoError(t, err)
	_, err = f.svc.Connect(context.Background(), patient.ID, delegate.ID)
	require.NoError(t, err)

	shared, err := f.svc.ListSharedSessions(context.Background(), delegate.ID, patient.ID)
	require.NoError(t, err)
	assert.Empty(t, shared)

	_, err = f.svc.ReconcileGrants(context.Background(), patient.ID, session.ID, []model.GrantUpdate{
		{DoctorID: delegate.ID, Allowed: true},
	})
	require.NoError(t, err)

	shared, err = f.svc.ListSharedSessions(context.Background(), delegate.ID, patient.ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, session.ID, shared[0].SessionID)
	assert.Equal(t, owner.ID, shared[0].Doctor.ID)
}

func TestProfileReadsGatedByConnectedSession(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t, "grace")
	patient := f.addPatient(t, "male", 1988)

	_, err := f.svc.GetPatientProfile(context.Background(), doctor.ID, patient.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.svc.Connect(context.Background(), patient.ID, doctor.ID)
	require.NoError(t, err)

	profile, err := f.svc.GetPatientProfile(context.Background(), doctor.ID, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, patient.ID, profile.ID)

	doctorProfile, err := f.svc.GetDoctorProfile(context.Background(), patient.ID, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, doctor.ID, doctorProfile.ID)

	require.NoError(t, f.svc.Disconnect(context.Background(), patient.ID, doctor.ID))
	_, err = f.svc.GetPatientProfile(context.Background(), doctor.ID, patient.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestDashboardAggregates(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t, "grace")
	male := f.addPatient(t, "male", 1988)
	female := f.addPatient(t, "female", 1988)

	_, err := f.svc.Connect(context.Background(), male.ID, doctor.ID)
	require.NoError(t, err)
	_, err = f.svc.Connect(context.Background(), female.ID, doctor.ID)
	require.NoError(t, err)

	now := time.Now()
	noon := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())
	availability := &model.Availability{
		DoctorID:             doctor.ID,
		Date:                 noon,
		StartTime:            noon,
		SessionDuration:      20,
		NumberOfAppointments: 4,
		Location:             "City Clinic",
		Status:               model.StatusPending,
	}
	require.NoError(t, f.availRepo.Create(context.Background(), availability))
	appointment := &model.Appointment{
		PatientID:         male.ID,
		AvailabilityID:    availability.ID,
		AppointmentNumber: 1,
		Status:            model.StatusPending,
	}
	require.NoError(t, f.apptRepo.Create(context.Background(), appointment))

	dashboard, err := f.svc.GetDashboard(context.Background(), doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, dashboard.ConnectedPatientCount)
	require.Len(t, dashboard.TodayAvailabilities, 1)
	require.Len(t, dashboard.TodayAppointments, 1)
	assert.Equal(t, male.ID, dashboard.TodayAppointments[0].Patient.ID)
	assert.Equal(t, 1, dashboard.PatientsByGender["male"])
	assert.Equal(t, 1, dashboard.PatientsByGender["female"])
	assert.Equal(t, 2, dashboard.PatientsByBirthYear[1988])
}
