package escalation

import (
	"context"
	"fmt"
	"time"

	"hotdesk/internal/config"
	"hotdesk/internal/domain"
	"hotdesk/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Scheduler arms and disarms the per-request escalation timeout. Timers are
// rows in sqlite, not in-process timers, so any worker can pick them up and
// a restart loses nothing.
type Scheduler struct {
	store       domain.Store
	correlation domain.CorrelationStore
	telegram    domain.TelegramService
	cfg         config.EscalationConfig
	promptTTL   time.Duration
	logger      zerolog.Logger
}

func NewScheduler(
	store domain.Store,
	correlation domain.CorrelationStore,
	telegram domain.TelegramService,
	cfg config.EscalationConfig,
	logger *zerolog.Logger,
) *Scheduler {
	// Correlation entries may outlive the full three-tier chain slightly
	promptTTL := 4 * cfg.Timeout
	if promptTTL < time.Duration(models.DefaultCorrelationTTL)*time.Second {
		promptTTL = time.Duration(models.DefaultCorrelationTTL) * time.Second
	}

	return &Scheduler{
		store:       store,
		correlation: correlation,
		telegram:    telegram,
		cfg:         cfg,
		promptTTL:   promptTTL,
		logger:      logger.With().Str("component", "escalation").Logger(),
	}
}

// Arm supersedes the previous prompt, sends the tier's prompt to the
// assignee and inserts an armed timer row. A failed send still arms the
// timer so the chain cannot stall on transport errors.
func (s *Scheduler) Arm(ctx context.Context, requestID, assigneeID int64, tier int) error {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to load request for arming: %w", err)
	}

	s.supersedePrompt(ctx, requestID)

	text := fmt.Sprintf("Заявка №%d: место %s, запросил id:%d.\nОдобрить?", req.ID, req.RefNo, req.RequesterID)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Одобрить", fmt.Sprintf("hd:approve:%d", req.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", fmt.Sprintf("hd:reject:%d", req.ID)),
		),
	)

	msg, sendErr := s.telegram.SendWithInlineKeyboard(assigneeID, text, keyboard)
	if sendErr != nil {
		s.logger.Error().Err(sendErr).
			Int64("request_id", requestID).
			Int64("assignee_id", assigneeID).
			Int("tier", tier).
			Msg("prompt send failed, arming timer anyway")
	} else {
		ref := &models.PromptRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID}
		if err := s.correlation.SavePrompt(ctx, requestID, ref, s.promptTTL); err != nil {
			s.logger.Error().Err(err).Int64("request_id", requestID).Msg("failed to save prompt correlation")
		}
	}

	timer := &models.EscalationTimer{
		RequestID:  requestID,
		AssigneeID: assigneeID,
		Tier:       tier,
		FireAt:     time.Now().Add(s.cfg.Timeout),
	}
	if err := s.store.CreateTimer(ctx, timer); err != nil {
		return fmt.Errorf("failed to arm escalation timer: %w", err)
	}

	s.logger.Info().
		Int64("request_id", requestID).
		Int64("assignee_id", assigneeID).
		Int("tier", tier).
		Time("fire_at", timer.FireAt).
		Msg("escalation armed")

	return nil
}

// Disarm cancels open timer rows. Advisory and idempotent: an already-fired
// timer is handled by re-validation in the fire handler, not here.
func (s *Scheduler) Disarm(ctx context.Context, requestID int64) error {
	return s.store.CancelOpenTimers(ctx, requestID)
}

// ContactForTier resolves the responder chat for a tier. Tier 1 is the
// request's own assignee and is resolved by the caller.
func (s *Scheduler) ContactForTier(tier int) (int64, bool) {
	switch tier {
	case models.TierSecond:
		return s.cfg.Tier2ID, true
	case models.TierThird:
		return s.cfg.Tier3ID, true
	default:
		return 0, false
	}
}

// supersedePrompt visually invalidates the previous tier's prompt. A missing
// correlation entry degrades to "stale prompt stays visible but inert".
func (s *Scheduler) supersedePrompt(ctx context.Context, requestID int64) {
	ref, err := s.correlation.GetPrompt(ctx, requestID)
	if err != nil {
		s.logger.Error().Err(err).Int64("request_id", requestID).Msg("failed to load prompt correlation")
		return
	}
	if !ref.Valid() {
		return
	}

	text := fmt.Sprintf("Заявка №%d передана следующему согласующему.", requestID)
	if _, err := s.telegram.EditMessage(ref.ChatID, ref.MessageID, text, nil); err != nil {
		s.logger.Error().Err(err).Int64("request_id", requestID).Msg("failed to supersede prompt")
	}
}
