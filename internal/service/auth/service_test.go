package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/medilink/care-api/pkg/auth"
	apperrors "github.com/medilink/care-api/pkg/errors"
	"github.com/medilink/care-api/pkg/security"

	"github.com/medilink/care-api/internal/model"
	"github.com/medilink/care-api/internal/repository/memory"
)

type fakeEmail struct {
	resetTokens map[string]string
}

func (f *fakeEmail) SendAppointmentCancellation(context.Context, string, string, string, string, string) error {
	return nil
}

func (f *fakeEmail) SendPasswordReset(_ context.Context, to, token string) error {
	f.resetTokens[to] = token
	return nil
}

func (f *fakeEmail) SendCustom(context.Context, string, string, string) error { return nil }

type fixture struct {
	svc         *Service
	doctorRepo  *memory.DoctorRepository
	patientRepo *memory.PatientRepository
	jwtSvc      auth.JWTService
	email       *fakeEmail
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		doctorRepo:  memory.NewDoctorRepository(),
		patientRepo: memory.NewPatientRepository(),
		jwtSvc:      auth.NewJWTService("access-secret", "reset-secret", time.Hour, 15*time.Minute),
		email:       &fakeEmail{resetTokens: make(map[string]string)},
	}
	f.svc = NewService(f.doctorRepo, f.patientRepo, f.jwtSvc, security.NewBcryptHasher(bcrypt.MinCost), f.email)
	return f
}

func doctorRequest() *model.RegisterDoctorRequest {
	return &model.RegisterDoctorRequest{
		FirstName: "Grace", LastName: "Osei", Designation: "Cardiologist",
		Gender: "female", Email: "grace@example.com", Password: "correct-horse",
	}
}

func TestRegisterDoctorIssuesToken(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.RegisterDoctor(context.Background(), doctorRequest())
	require.NoError(t, err)
	assert.Equal(t, string(auth.RoleDoctor), resp.Role)

	claims, err := f.jwtSvc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
	assert.Equal(t, auth.RoleDoctor, claims.Role)
}

func TestRegisterDoctorDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RegisterDoctor(context.Background(), doctorRequest())
	require.NoError(t, err)

	_, err = f.svc.RegisterDoctor(context.Background(), doctorRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestLoginDoctor(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RegisterDoctor(context.Background(), doctorRequest())
	require.NoError(t, err)

	resp, err := f.svc.LoginDoctor(context.Background(), &model.LoginRequest{
		Email: "grace@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	// Wrong password and unknown email both come back unauthorized.
	_, err = f.svc.LoginDoctor(context.Background(), &model.LoginRequest{
		Email: "grace@example.com", Password: "wrong",
	})
	assert.True(t, apperrors.IsUnauthorized(err))
	_, err = f.svc.LoginDoctor(context.Background(), &model.LoginRequest{
		Email: "nobody@example.com", Password: "correct-horse",
	})
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestRegisterAndLoginPatient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RegisterPatient(context.Background(), &model.RegisterPatientRequest{
		FirstName: "Nuwan", LastName: "Perera", Gender: "male",
		DateOfBirth: time.Date(1988, 6, 12, 0, 0, 0, 0, time.UTC),
		Email:       "nuwan@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	resp, err := f.svc.LoginPatient(context.Background(), &model.LoginRequest{
		Email: "nuwan@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, string(auth.RolePatient), resp.Role)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	registered, err := f.svc.RegisterDoctor(context.Background(), doctorRequest())
	require.NoError(t, err)

	// Unknown addresses are silently accepted.
	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "nobody@example.com", auth.RoleDoctor))
	assert.Empty(t, f.email.resetTokens["nobody@example.com"])

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "grace@example.com", auth.RoleDoctor))
	token := f.email.resetTokens["grace@example.com"]
	require.NotEmpty(t, token)

	// An access token must not pass for a reset token.
	err = f.svc.ResetPassword(context.Background(), registered.AccessToken, "new-password")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))

	require.NoError(t, f.svc.ResetPassword(context.Background(), token, "new-password"))

	_, err = f.svc.LoginDoctor(context.Background(), &model.LoginRequest{
		Email: "grace@example.com", Password: "correct-horse",
	})
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = f.svc.LoginDoctor(context.Background(), &model.LoginRequest{
		Email: "grace@example.com", Password: "new-password",
	})
	require.NoError(t, err)
}
