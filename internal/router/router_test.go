package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appointmentHandler "github.com/medilink/care-api/internal/handler/appointment"
	authHandler "github.com/medilink/care-api/internal/handler/auth"
	availabilityHandler "github.com/medilink/care-api/internal/handler/availability"
	healthHandler "github.com/medilink/care-api/internal/handler/health"
	reportHandler "github.com/medilink/care-api/internal/handler/report"
	sessionHandler "github.com/medilink/care-api/internal/handler/session"
	"github.com/medilink/care-api/internal/middleware"
	"github.com/medilink/care-api/internal/repository/memory"
	appointmentService "github.com/medilink/care-api/internal/service/appointment"
	authService "github.com/medilink/care-api/internal/service/auth"
	availabilityService "github.com/medilink/care-api/internal/service/availability"
	reportService "github.com/medilink/care-api/internal/service/report"
	sessionService "github.com/medilink/care-api/internal/service/session"
	"github.com/medilink/care-api/pkg/auth"
	"github.com/medilink/care-api/pkg/messaging"
	"github.com/medilink/care-api/pkg/metrics"
	"github.com/medilink/care-api/pkg/security"
	"golang.org/x/crypto/bcrypt"
)

type nopMailer struct{}

func (nopMailer) SendAppointmentCancellation(context.Context, string, string, string, string, string) error {
	return nil
}
func (nopMailer) SendPasswordReset(context.Context, string, string) error { return nil }
func (nopMailer) SendCustom(context.Context, string, string, string) error {
	return nil
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	doctorRepo := memory.NewDoctorRepository()
	patientRepo := memory.NewPatientRepository()
	availabilityRepo := memory.NewAvailabilityRepository()
	appointmentRepo := memory.NewAppointmentRepository()
	sessionRepo := memory.NewSessionRepository()
	reportRepo := memory.NewReportRepository()

	broker := messaging.NopBroker{}
	m := metrics.NewWith(prometheus.NewRegistry(), "test")
	mailer := nopMailer{}
	jwtSvc := auth.NewJWTService("access-secret", "reset-secret", time.Hour, 15*time.Minute)
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	authSvc := authService.NewService(doctorRepo, patientRepo, jwtSvc, hasher, mailer)
	availabilitySvc := availabilityService.NewService(availabilityRepo, appointmentRepo, doctorRepo, patientRepo, mailer, broker, m)
	appointmentSvc := appointmentService.NewService(appointmentRepo, availabilityRepo, doctorRepo, patientRepo, broker, m)
	sessionSvc := sessionService.NewService(sessionRepo, doctorRepo, patientRepo, availabilityRepo, appointmentRepo)
	reportSvc := reportService.NewService(reportRepo, sessionRepo, doctorRepo)

	r := NewRouter(
		middleware.NewAuthMiddleware(jwtSvc),
		healthHandler.NewHandler(nil),
		authHandler.NewHandler(authSvc),
		availabilityHandler.NewHandler(availabilitySvc),
		appointmentHandler.NewHandler(appointmentSvc),
		sessionHandler.NewHandler(sessionSvc),
		reportHandler.NewHandler(reportSvc),
		DefaultConfig(),
	)
	r.Setup()
	return r
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{
		"/api/v1/doctor/appointments",
		"/api/v1/patient/reports",
		"/api/v1/doctor/dashboard",
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.Engine().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestPublicSlotListingReachableWithoutToken(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availabilities/6e9a1f6e-0d7a-4cbb-8f3e-000000000001/slots", nil)
	r.Engine().ServeHTTP(w, req)

	// Unknown availability, but the route resolves without credentials.
	require.Equal(t, http.StatusNotFound, w.Code)
}
