package worker

import (
	"context"
	"fmt"
	"time"

	"hotdesk/internal/domain"

	"github.com/rs/zerolog"
)

// Reconciler is the backstop against ledger drift: once a day it frees
// seats still marked occupied for requests whose booking day has passed.
// Missed or failed frees from transition time are corrected here.
type Reconciler struct {
	store         domain.Store
	ledger        domain.LedgerWriter
	worker        domain.LedgerWorker
	afterDays     int
	reconcileTime string
	logger        zerolog.Logger
}

func NewReconciler(store domain.Store, ledger domain.LedgerWriter, worker domain.LedgerWorker, afterDays int, reconcileTime string, logger *zerolog.Logger) *Reconciler {
	if afterDays <= 0 {
		afterDays = 1
	}
	return &Reconciler{
		store:         store,
		ledger:        ledger,
		worker:        worker,
		afterDays:     afterDays,
		reconcileTime: reconcileTime,
		logger:        logger.With().Str("component", "reconciler").Logger(),
	}
}

// Start schedules the daily run. First wait until the configured local time,
// then tick every 24h.
func (r *Reconciler) Start(ctx context.Context) {
	hour := 6
	if r.reconcileTime != "" {
		var m int
		if _, err := fmt.Sscanf(r.reconcileTime, "%d:%d", &hour, &m); err != nil {
			r.logger.Error().Err(err).Str("reconcile_time", r.reconcileTime).Msg("invalid reconcile time format")
			return
		}
	}

	timer := time.NewTimer(timeUntilNextHour(hour))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := r.SyncStaleOccupancy(ctx); err != nil {
				r.logger.Error().Err(err).Msg("reconciliation run failed")
			}
			timer.Reset(24 * time.Hour)
		}
	}
}

// SyncStaleOccupancy frees ledger seats held by requests whose booking day
// passed more than afterDays ago. Repeated runs are observable no-ops: the
// ledger skips rows whose occupant cell is already empty.
func (r *Reconciler) SyncStaleOccupancy(ctx context.Context) error {
	requests, err := r.store.GetStaleActiveRequests(ctx, r.afterDays)
	if err != nil {
		return fmt.Errorf("failed to load stale requests: %w", err)
	}

	var freed int
	for _, req := range requests {
		day := req.CreatedAt.Format("2006-01-02")
		seats, err := r.ledger.FetchSeats(ctx, day)
		if err != nil {
			r.logger.Error().Err(err).Str("day", day).Msg("ledger read failed, skipping day")
			continue
		}

		for _, seat := range seats {
			if seat.RefNo() != req.RefNo || !seat.Occupied() {
				continue
			}
			if err := r.worker.EnqueueMarkFree(ctx, req); err != nil {
				r.logger.Error().Err(err).Int64("request_id", req.ID).Msg("enqueue mark_free failed")
				continue
			}
			freed++
		}
	}

	r.logger.Info().Int("stale_requests", len(requests)).Int("freed", freed).Msg("reconciliation run finished")
	return nil
}

func timeUntilNextHour(hour int) time.Duration {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
