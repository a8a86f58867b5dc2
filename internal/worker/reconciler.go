package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medilink/care-api/internal/service/reconciler"
)

// ReconcilerWorker drives the sweep on a fixed period, independent of any
// request. One sweep runs immediately on start so a restarted worker does
// not wait a full interval to catch up.
type ReconcilerWorker struct {
	svc      *reconciler.Service
	interval time.Duration
}

func NewReconcilerWorker(svc *reconciler.Service, interval time.Duration) *ReconcilerWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ReconcilerWorker{svc: svc, interval: interval}
}

func (w *ReconcilerWorker) Start(ctx context.Context) {
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

func (w *ReconcilerWorker) run(ctx context.Context) {
	expired, err := w.svc.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reconciler sweep failed")
		return
	}
	if expired > 0 {
		log.Info().Int("expired", expired).Msg("reconciler sweep expired appointments")
	}
}
