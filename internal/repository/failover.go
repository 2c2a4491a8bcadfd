package repository

import (
	"context"
	"sync/atomic"
	"time"

	"hotdesk/internal/domain"
	"hotdesk/internal/models"

	"github.com/rs/zerolog"
)

// FailoverCorrelationStore prefers the primary store and drops to the
// fallback when the primary errors. Recovery is probed once a minute.
type FailoverCorrelationStore struct {
	primary   domain.CorrelationStore
	fallback  domain.CorrelationStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverCorrelationStore(primary, fallback domain.CorrelationStore, logger *zerolog.Logger) *FailoverCorrelationStore {
	return &FailoverCorrelationStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverCorrelationStore) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary correlation store failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

func (r *FailoverCorrelationStore) SavePrompt(ctx context.Context, requestID int64, ref *models.PromptRef, ttl time.Duration) error {
	if !r.isDown.Load() {
		err := r.primary.SavePrompt(ctx, requestID, ref, ttl)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SavePrompt(ctx, requestID, ref, ttl)
}

func (r *FailoverCorrelationStore) GetPrompt(ctx context.Context, requestID int64) (*models.PromptRef, error) {
	if !r.isDown.Load() {
		ref, err := r.primary.GetPrompt(ctx, requestID)
		if err == nil {
			return ref, nil
		}
		r.markDown(err)
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		ref, err := r.primary.GetPrompt(ctx, requestID)
		if err == nil {
			r.isDown.Store(false)
			return ref, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetPrompt(ctx, requestID)
}

func (r *FailoverCorrelationStore) DeletePrompt(ctx context.Context, requestID int64) error {
	if !r.isDown.Load() {
		err := r.primary.DeletePrompt(ctx, requestID)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.DeletePrompt(ctx, requestID)
}
