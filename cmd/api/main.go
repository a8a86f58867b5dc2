package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/medilink/care-api/internal/config"
	"github.com/medilink/care-api/internal/email"
	appointmentHandler "github.com/medilink/care-api/internal/handler/appointment"
	authHandler "github.com/medilink/care-api/internal/handler/auth"
	availabilityHandler "github.com/medilink/care-api/internal/handler/availability"
	healthHandler "github.com/medilink/care-api/internal/handler/health"
	reportHandler "github.com/medilink/care-api/internal/handler/report"
	sessionHandler "github.com/medilink/care-api/internal/handler/session"
	"github.com/medilink/care-api/internal/middleware"
	"github.com/medilink/care-api/internal/repository/postgres"
	"github.com/medilink/care-api/internal/router"
	appointmentService "github.com/medilink/care-api/internal/service/appointment"
	authService "github.com/medilink/care-api/internal/service/auth"
	availabilityService "github.com/medilink/care-api/internal/service/availability"
	reconcilerService "github.com/medilink/care-api/internal/service/reconciler"
	reportService "github.com/medilink/care-api/internal/service/report"
	sessionService "github.com/medilink/care-api/internal/service/session"
	"github.com/medilink/care-api/internal/worker"
	"github.com/medilink/care-api/pkg/auth"
	"github.com/medilink/care-api/pkg/logger"
	"github.com/medilink/care-api/pkg/messaging"
	redisbroker "github.com/medilink/care-api/pkg/messaging/redis"
	"github.com/medilink/care-api/pkg/metrics"
	"github.com/medilink/care-api/pkg/security"
)

func main() {
	log.Logger = logger.NewLogger(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	}).ZL

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	reportRepo := postgres.NewReportRepository(db)

	var broker messaging.Broker = messaging.NopBroker{}
	if cfg.Redis.Enabled {
		b, err := redisbroker.NewRedisBroker(redisbroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: 100 * time.Millisecond,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer b.Close()
		broker = b
	}

	emailSvc := email.NewSMTPService(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ResetSecret, cfg.JWT.Expiry(), cfg.JWT.ResetExpiry())
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	m := metrics.New("care_api")

	authSvc := authService.NewService(doctorRepo, patientRepo, jwtSvc, hasher, emailSvc)
	availabilitySvc := availabilityService.NewService(availabilityRepo, appointmentRepo, doctorRepo, patientRepo, emailSvc, broker, m)
	appointmentSvc := appointmentService.NewService(appointmentRepo, availabilityRepo, doctorRepo, patientRepo, broker, m)
	sessionSvc := sessionService.NewService(sessionRepo, doctorRepo, patientRepo, availabilityRepo, appointmentRepo)
	reportSvc := reportService.NewService(reportRepo, sessionRepo, doctorRepo)
	reconcilerSvc := reconcilerService.NewService(appointmentRepo, availabilityRepo, broker, m, cfg.Reconciler.GracePeriod())

	authMW := middleware.NewAuthMiddleware(jwtSvc)

	r := router.NewRouter(
		authMW,
		healthHandler.NewHandler(db),
		authHandler.NewHandler(authSvc),
		availabilityHandler.NewHandler(availabilitySvc),
		appointmentHandler.NewHandler(appointmentSvc),
		sessionHandler.NewHandler(sessionSvc),
		reportHandler.NewHandler(reportSvc),
		router.DefaultConfig(),
	)
	r.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconcilerWorker := worker.NewReconcilerWorker(reconcilerSvc, cfg.Reconciler.Interval())
	go reconcilerWorker.Start(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
