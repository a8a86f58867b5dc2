package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/medilink/care-api/internal/config"
	"github.com/medilink/care-api/internal/repository/postgres"
	reconcilerService "github.com/medilink/care-api/internal/service/reconciler"
	"github.com/medilink/care-api/internal/worker"
	"github.com/medilink/care-api/pkg/logger"
	"github.com/medilink/care-api/pkg/messaging"
	redisbroker "github.com/medilink/care-api/pkg/messaging/redis"
	"github.com/medilink/care-api/pkg/metrics"
)

func setupHealthCheck(db interface{ Ping() error }) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			log.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
}

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

	appointmentRepo := postgres.NewAppointmentRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)

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

	svc := reconcilerService.NewService(
		appointmentRepo,
		availabilityRepo,
		broker,
		metrics.New("care_reconciler"),
		cfg.Reconciler.GracePeriod(),
	)

	setupHealthCheck(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("shutting down...")
		cancel()
	}()

	worker.NewReconcilerWorker(svc, cfg.Reconciler.Interval()).Start(ctx)
}
