package escalation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotdesk/internal/database"
	"hotdesk/internal/domain"
	"hotdesk/internal/events"
	"hotdesk/internal/metrics"
	"hotdesk/internal/models"

	"github.com/rs/zerolog"
)

// Worker polls due escalation timers and advances the responder chain.
// Claiming a timer is a conditional armed->fired update, so concurrent
// workers never process the same timer twice.
type Worker struct {
	store        domain.Store
	scheduler    *Scheduler
	telegram     domain.TelegramService
	eventBus     domain.EventPublisher
	alertChatID  int64
	pollInterval time.Duration
	batchSize    int
	logger       zerolog.Logger
}

func NewWorker(
	store domain.Store,
	scheduler *Scheduler,
	telegram domain.TelegramService,
	eventBus domain.EventPublisher,
	alertChatID int64,
	logger *zerolog.Logger,
) *Worker {
	return &Worker{
		store:        store,
		scheduler:    scheduler,
		telegram:     telegram,
		eventBus:     eventBus,
		alertChatID:  alertChatID,
		pollInterval: 5 * time.Second,
		batchSize:    50,
		logger:       logger.With().Str("component", "escalation_worker").Logger(),
	}
}

// Start runs the polling loop until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info().Msg("escalation worker started")
	defer w.logger.Info().Msg("escalation worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processDue(ctx)
		}
	}
}

func (w *Worker) processDue(ctx context.Context) {
	timers, err := w.store.GetDueTimers(ctx, time.Now(), w.batchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to fetch due timers")
		return
	}

	for _, timer := range timers {
		if err := w.store.ClaimTimer(ctx, timer.ID); err != nil {
			if errors.Is(err, database.ErrStaleTransition) {
				// Another worker claimed it, or it was disarmed
				continue
			}
			w.logger.Error().Err(err).Int64("timer_id", timer.ID).Msg("failed to claim timer")
			continue
		}

		if err := w.HandleTimeout(ctx, timer); err != nil {
			w.logger.Error().Err(err).
				Int64("timer_id", timer.ID).
				Int64("request_id", timer.RequestID).
				Msg("timeout handling failed")
		}
	}
}

// HandleTimeout escalates one fired timer. The request's status, tier and
// assignee are re-validated against the timer before anything happens: disarm
// is only advisory, so a late fire after a decision must reduce to a no-op.
func (w *Worker) HandleTimeout(ctx context.Context, timer models.EscalationTimer) error {
	req, err := w.store.GetRequest(ctx, timer.RequestID)
	if err != nil {
		if errors.Is(err, database.ErrRequestNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load request: %w", err)
	}

	if req.Status != models.StatusPending || req.CurrentTier != timer.Tier || req.AssigneeID != timer.AssigneeID {
		w.logger.Debug().
			Int64("request_id", req.ID).
			Int("timer_tier", timer.Tier).
			Int("current_tier", req.CurrentTier).
			Str("status", req.Status).
			Msg("stale timer fire ignored")
		return nil
	}

	if timer.Tier >= models.TierThird {
		return w.terminalAlert(ctx, req, timer)
	}

	nextTier := timer.Tier + 1
	nextAssignee, ok := w.scheduler.ContactForTier(nextTier)
	if !ok {
		return fmt.Errorf("no contact configured for tier %d", nextTier)
	}

	err = w.store.AdvanceRequestTier(ctx, req.ID, timer.Tier, timer.AssigneeID, nextTier, nextAssignee)
	if errors.Is(err, database.ErrStaleTransition) {
		// Decision or reassignment won the race
		return nil
	}
	if err != nil {
		return err
	}
	metrics.IncEscalation(fmt.Sprintf("%d", nextTier))

	// Флаг просрочки только после выигранного условного перехода: решение,
	// успевшее раньше, не должно пометить согласующего просрочившим.
	if err := w.store.MarkResponseEscalated(ctx, timer.RequestID, timer.AssigneeID); err != nil {
		w.logger.Error().Err(err).Int64("request_id", req.ID).Msg("failed to mark response escalated")
	}

	if err := w.store.UpsertResponse(ctx, req.ID, nextAssignee, models.StatusPending); err != nil {
		w.logger.Error().Err(err).Int64("request_id", req.ID).Msg("failed to create responder row")
	}

	w.publishEscalated(req, nextTier, nextAssignee)

	if err := w.scheduler.Arm(ctx, req.ID, nextAssignee, nextTier); err != nil {
		return fmt.Errorf("failed to arm next tier: %w", err)
	}

	w.logger.Info().
		Int64("request_id", req.ID).
		Int("tier", nextTier).
		Int64("assignee_id", nextAssignee).
		Msg("request escalated")

	return nil
}

// terminalAlert fires the organization-wide notice after tier 3. The request
// stays pending; only a human resolves it from here.
func (w *Worker) terminalAlert(ctx context.Context, req *models.HotDeskRequest, timer models.EscalationTimer) error {
	err := w.store.MarkRequestEscalated(ctx, req.ID, timer.Tier, timer.AssigneeID)
	if errors.Is(err, database.ErrStaleTransition) {
		return nil
	}
	if err != nil {
		return err
	}
	metrics.IncEscalation("terminal")

	if err := w.store.MarkResponseEscalated(ctx, req.ID, timer.AssigneeID); err != nil {
		w.logger.Error().Err(err).Int64("request_id", req.ID).Msg("failed to mark response escalated")
	}

	alert := fmt.Sprintf("⚠️ Заявка №%d (место %s) не согласована ни одним уровнем. Требуется вмешательство.", req.ID, req.RefNo)
	if _, err := w.telegram.SendMessage(w.alertChatID, alert); err != nil {
		w.logger.Error().Err(err).Int64("request_id", req.ID).Msg("failed to send org alert")
	}

	notice := fmt.Sprintf("Ваша заявка на место %s всё ещё не рассмотрена и передана администрации.", req.RefNo)
	if _, err := w.telegram.SendMessage(req.RequesterID, notice); err != nil {
		w.logger.Error().Err(err).Int64("request_id", req.ID).Msg("failed to notify requester")
	}

	w.publishEscalated(req, models.TierEscalated, 0)

	w.logger.Warn().Int64("request_id", req.ID).Msg("request escalated past last tier")
	return nil
}

func (w *Worker) publishEscalated(req *models.HotDeskRequest, tier int, assigneeID int64) {
	if w.eventBus == nil {
		return
	}

	payload := events.RequestEventPayload{
		RequestID:   req.ID,
		RequesterID: req.RequesterID,
		AssigneeID:  assigneeID,
		RefNo:       req.RefNo,
		Status:      req.Status,
		Tier:        tier,
	}
	if err := w.eventBus.PublishJSON(events.EventRequestEscalated, payload); err != nil {
		w.logger.Error().Err(err).Int64("request_id", req.ID).Msg("publish event error")
	}
}
