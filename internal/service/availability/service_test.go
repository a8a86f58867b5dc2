package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/medilink/care-api/pkg/errors"
	"github.com/medilink/care-api/pkg/messaging"
	"github.com/medilink/care-api/pkg/metrics"

	"github.com/medilink/care-api/internal/model"
	"github.com/medilink/care-api/internal/repository/memory"
)

type sentMail struct {
	to            string
	patientName   string
	doctorName    string
	location      string
	formattedTime string
}

type fakeEmail struct {
	sent    []sentMail
	failFor map[string]bool
}

func (f *fakeEmail) SendAppointmentCancellation(_ context.Context, to, patientName, doctorName, location, formattedTime string) error {
	if f.failFor[to] {
		return errors.New("smtp: connection refused")
	}
	f.sent = append(f.sent, sentMail{to, patientName, doctorName, location, formattedTime})
	return nil
}

func (f *fakeEmail) SendPasswordReset(context.Context, string, string) error { return nil }
func (f *fakeEmail) SendCustom(context.Context, string, string, string) error {
	return nil
}

type fixture struct {
	svc         *Service
	availRepo   *memory.AvailabilityRepository
	apptRepo    *memory.AppointmentRepository
	doctorRepo  *memory.DoctorRepository
	patientRepo *memory.PatientRepository
	email       *fakeEmail
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		availRepo:   memory.NewAvailabilityRepository(),
		apptRepo:    memory.NewAppointmentRepository(),
		doctorRepo:  memory.NewDoctorRepository(),
		patientRepo: memory.NewPatientRepository(),
		email:       &fakeEmail{failFor: make(map[string]bool)},
	}
	f.svc = NewService(
		f.availRepo, f.apptRepo, f.doctorRepo, f.patientRepo,
		f.email, messaging.NopBroker{},
		metrics.NewWith(prometheus.NewRegistry(), "test"),
	)
	return f
}

func (f *fixture) addDoctor(t *testing.T) *model.Doctor {
	t.Helper()
	doctor := &model.Doctor{
		FirstName: "Grace", LastName: "Osei",
		Designation: "Cardiologist", Gender: "female",
		Email: "grace@example.com",
	}
	require.NoError(t, f.doctorRepo.Create(context.Background(), doctor))
	return doctor
}

func (f *fixture) addPatient(t *testing.T, email string) *model.Patient {
	t.Helper()
	patient := &model.Patient{
		FirstName: "Nuwan", LastName: "Perera",
		Gender: "male", Email: email,
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.patientRepo.Create(context.Background(), patient))
	return patient
}

func (f *fixture) addBlock(t *testing.T, doctorID uuid.UUID, slots int) *model.Availability {
	t.Helper()
	date := time.Now().Add(48 * time.Hour)
	availability := &model.Availability{
		DoctorID:             doctorID,
		Date:                 date,
		StartTime:            date,
		SessionDuration:      20,
		NumberOfAppointments: slots,
		Location:             "City Clinic",
		Status:               model.StatusPending,
	}
	require.NoError(t, f.availRepo.Create(context.Background(), availability))
	return availability
}

func (f *fixture) book(t *testing.T, availabilityID, patientID uuid.UUID, number int, status model.AvailabilityStatus) *model.Appointment {
	t.Helper()
	appointment := &model.Appointment{
		PatientID:         patientID,
		AvailabilityID:    availabilityID,
		AppointmentNumber: number,
		Status:            status,
	}
	require.NoError(t, f.apptRepo.Create(context.Background(), appointment))
	return appointment
}

func TestCreateRejectsPastDate(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t)

	_, err := f.svc.Create(context.Background(), doctor.ID, &model.CreateAvailabilityRequest{
		Date:                 time.Now().Add(-time.Hour),
		StartTime:            time.Now().Add(-time.Hour),
		SessionDuration:      20,
		NumberOfAppointments: 5,
		Location:             "City Clinic",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCreateStartsPending(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t)

	availability, err := f.svc.Create(context.Background(), doctor.ID, &model.CreateAvailabilityRequest{
		Date:                 time.Now().Add(24 * time.Hour),
		StartTime:            time.Now().Add(24 * time.Hour),
		SessionDuration:      30,
		NumberOfAppointments: 4,
		Location:             "City Clinic",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, availability.Status)
	assert.NotEqual(t, uuid.Nil, availability.ID)
}

func TestListForDoctorOnlyPending(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t)
	pending := f.addBlock(t, doctor.ID, 3)
	cancelled := f.addBlock(t, doctor.ID, 3)
	require.NoError(t, f.availRepo.UpdateStatus(context.Background(), cancelled.ID, model.StatusCancelled))

	list, err := f.svc.ListForDoctor(context.Background(), doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, doctor.ID, list.Doctor.ID)
	require.Len(t, list.Availabilities, 1)
	assert.Equal(t, pending.ID, list.Availabilities[0].ID)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t)
	availability := f.addBlock(t, doctor.ID, 3)

	duration := 45
	_, err := f.svc.Update(context.Background(), availability.ID, uuid.New(), &model.UpdateAvailabilityRequest{
		SessionDuration: &duration,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t)
	availability := f.addBlock(t, doctor.ID, 3)

	location := "Lakeside Branch"
	updated, err := f.svc.Update(context.Background(), availability.ID, doctor.ID, &model.UpdateAvailabilityRequest{
		Location: &location,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lakeside Branch", updated.Location)
	assert.Equal(t, availability.SessionDuration, updated.SessionDuration)
	assert.Equal(t, availability.NumberOfAppointments, updated.NumberOfAppointments)
}

func TestCancelCascadesToAppointments(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t)
	availability := f.addBlock(t, doctor.ID, 5)
	first := f.addPatient(t, "first@example.com")
	second := f.addPatient(t, "second@example.com")
	apptOne := f.book(t, availability.ID, first.ID, 1, model.StatusPending)
	apptTwo := f.book(t, availability.ID, second.ID, 2, model.StatusPending)

	updated, err := f.svc.UpdateStatus(context.Background(), availability.ID, doctor.ID, model.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, updated.Status)

	for _, id := range []uuid.UUID{apptOne.ID, apptTwo.ID} {
		appointment, err := f.apptRepo.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelledByDoctor, appointment.Status)
	}

	require.Len(t, f.email.sent, 2)
	recipients := []string{f.email.sent[0].to, f.email.sent[1].to}
	assert.ElementsMatch(t, []string{"first@example.com", "second@example.com"}, recipients)
	assert.Equal(t, "Grace Osei", f.email.sent[0].doctorName)
	assert.Equal(t, "City Clinic", f.email.sent[0].location)
	assert.Equal(t, availability.Date.Format(cancellationTimeFormat), f.email.sent[0].formattedTime)
}

func TestCancelCascadeContinuesPastMailFailure(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t)
	availability := f.addBlock(t, doctor.ID, 5)
	broken := f.addPatient(t, "broken@example.com")
	healthy := f.addPatient(t, "healthy@example.com")
	brokenAppt := f.book(t, availability.ID, broken.ID, 1, model.StatusPending)
	healthyAppt := f.book(t, availability.ID, healthy.ID, 2, model.StatusPending)
	f.email.failFor["broken@example.com"] = true

	_, err := f.svc.UpdateStatus(context.Background(), availability.ID, doctor.ID, model.StatusCancelled)
	require.NoError(t, err)

	// The failed mail must not stop the status flip for either appointment.
	for _, id := range []uuid.UUID{brokenAppt.ID, healthyAppt.ID} {
		appointment, err := f.apptRepo.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelledByDoctor, appointment.Status)
	}
	require.Len(t, f.email.sent, 1)
	assert.Equal(t, "healthy@example.com", f.email.sent[0].to)
}

func TestDoneCascadeBulkCancels(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t)
	availability := f.addBlock(t, doctor.ID, 5)
	patient := f.addPatient(t, "patient@example.com")
	appointment := f.book(t, availability.ID, patient.ID, 1, model.StatusPending)

	updated, err := f.svc.UpdateStatus(context.Background(), availability.ID, doctor.ID, model.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, updated.Status)

	got, err := f.apptRepo.Get(context.Background(), appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.Empty(t, f.email.sent)
}

func TestUpdateStatusRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t)
	availability := f.addBlock(t, doctor.ID, 3)

	_, err := f.svc.UpdateStatus(context.Background(), availability.ID, uuid.New(), model.StatusCancelled)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestListAvailableSlotsExcludesActiveNumbers(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t)
	availability := f.addBlock(t, doctor.ID, 4)
	patient := f.addPatient(t, "patient@example.com")
	f.book(t, availability.ID, patient.ID, 2, model.StatusPending)
	f.book(t, availability.ID, patient.ID, 3, model.StatusCancelled)

	slots, err := f.svc.ListAvailableSlots(context.Background(), availability.ID)
	require.NoError(t, err)

	numbers := make([]int, 0, len(slots))
	for _, slot := range slots {
		numbers = append(numbers, slot.AppointmentNumber)
	}
	// Cancelled slot 3 is reusable; pending slot 2 is not.
	assert.Equal(t, []int{1, 3, 4}, numbers)

	for _, slot := range slots {
		expected := availability.StartTime.Add(time.Duration(slot.AppointmentNumber*availability.SessionDuration) * time.Minute)
		assert.True(t, expected.Equal(slot.AllocatedTime), "slot %d time mismatch", slot.AppointmentNumber)
	}
}

func TestListAvailableSlotsKeepsDoctorCancelledNumberTaken(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t)
	availability := f.addBlock(t, doctor.ID, 3)
	patient := f.addPatient(t, "patient@example.com")
	f.book(t, availability.ID, patient.ID, 2, model.StatusCancelledByDoctor)

	slots, err := f.svc.ListAvailableSlots(context.Background(), availability.ID)
	require.NoError(t, err)

	numbers := make([]int, 0, len(slots))
	for _, slot := range slots {
		numbers = append(numbers, slot.AppointmentNumber)
	}
	// cancelled_by_doctor does not free the number.
	assert.Equal(t, []int{1, 3}, numbers)
}

func TestListAvailableSlotsTerminalBlock(t *testing.T) {
	f := newFixture(t)
	doctor := f.addDoctor(t)
	availability := f.addBlock(t, doctor.ID, 4)
	require.NoError(t, f.availRepo.UpdateStatus(context.Background(), availability.ID, model.StatusDone))

	_, err := f.svc.ListAvailableSlots(context.Background(), availability.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestListAvailableSlotsMissingBlock(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListAvailableSlots(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
