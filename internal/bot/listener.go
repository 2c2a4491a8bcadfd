package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotdesk/internal/domain"
	"hotdesk/internal/models"
	"hotdesk/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Workflow принимает события жизненного цикла заявки.
type Workflow interface {
	Dispatch(ctx context.Context, event service.WorkflowEvent) error
	GetUserRequests(ctx context.Context, requesterID int64) ([]*models.HotDeskRequest, error)
}

// Listener consumes Telegram updates: prompt button clicks become workflow
// events, plain text is only meaningful while a rejection reason is pending.
type Listener struct {
	telegram domain.TelegramService
	workflow Workflow
	users    domain.UserService
	reasons  *ReasonStore
	logger   *zerolog.Logger
}

func NewListener(telegram domain.TelegramService, workflow Workflow, users domain.UserService, reasons *ReasonStore, logger *zerolog.Logger) *Listener {
	return &Listener{
		telegram: telegram,
		workflow: workflow,
		users:    users,
		reasons:  reasons,
		logger:   logger,
	}
}

func (l *Listener) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := l.telegram.GetUpdatesChan(u)

	l.logger.Info().Str("username", l.telegram.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)

			requestID := uuid.New().String()
			log := l.logger.With().Str("request_id", requestID).Logger()
			updateCtx = log.WithContext(updateCtx)

			if update.CallbackQuery != nil {
				l.handleCallbackQuery(updateCtx, update)
				cancel()
				continue
			}

			if update.Message == nil {
				cancel()
				continue
			}

			l.handleMessage(updateCtx, update)
			cancel()
		}
	}
}

// Stop прекращает получение обновлений (best-effort).
func (l *Listener) Stop() {
	if l == nil || l.telegram == nil {
		return
	}
	l.telegram.StopReceivingUpdates()
}

func (l *Listener) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	userID := callback.From.ID

	action, err := ParseCallback(callback.Data)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Str("data", callback.Data).Msg("unknown callback data")
		l.answer(callback.ID, "")
		return
	}

	switch action.Verb {
	case VerbApprove:
		err = l.workflow.Dispatch(ctx, service.DecideEvent{
			RequestID: action.RequestID,
			DeciderID: userID,
			Decision:  models.DecisionApproved,
		})
		if err != nil {
			l.answer(callback.ID, getErrorMessage(err))
			return
		}
		l.answer(callback.ID, "Заявка одобрена")

	case VerbReject:
		// Причина обязательна: запоминаем заявку и ждём текст.
		if err := l.reasons.Set(ctx, userID, action.RequestID); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to store pending reason")
			l.answer(callback.ID, "Произошла ошибка, попробуйте ещё раз")
			return
		}
		l.answer(callback.ID, "")
		l.send(callback.Message.Chat.ID,
			fmt.Sprintf("Укажите причину отказа по заявке №%d ответным сообщением.", action.RequestID))
	}
}

func (l *Listener) handleMessage(ctx context.Context, update tgbotapi.Update) {
	userID := update.Message.From.ID
	text := strings.TrimSpace(update.Message.Text)

	if err := l.users.UpdateUserActivity(ctx, userID); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Int64("user_id", userID).Msg("failed to update user activity")
	}

	if requestID, ok := l.popPendingReason(ctx, userID); ok {
		if text == "" {
			// Стикер или пустое сообщение не тратят ожидание причины.
			if err := l.reasons.Set(ctx, userID, requestID); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("failed to restore pending reason")
			}
			l.send(update.Message.Chat.ID, "Причина не может быть пустой.")
			return
		}
		err := l.workflow.Dispatch(ctx, service.DecideEvent{
			RequestID: requestID,
			DeciderID: userID,
			Decision:  models.DecisionRejected,
			Reason:    text,
		})
		if err != nil {
			l.send(update.Message.Chat.ID, getErrorMessage(err))
			return
		}
		l.send(update.Message.Chat.ID, fmt.Sprintf("Заявка №%d отклонена.", requestID))
		return
	}

	switch text {
	case "/start":
		l.registerUser(ctx, update)
		l.send(update.Message.Chat.ID,
			"Это бот согласования рабочих мест. Кнопки для решения приходят вместе с заявкой.")
	case "/my":
		l.showUserRequests(ctx, update)
	}
}

func (l *Listener) registerUser(ctx context.Context, update tgbotapi.Update) {
	from := update.Message.From
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		name = from.UserName
	}
	user := &models.User{ID: from.ID, Name: name}
	if err := l.users.SaveUser(ctx, user); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", from.ID).Msg("failed to save user")
	}
}

func (l *Listener) showUserRequests(ctx context.Context, update tgbotapi.Update) {
	requests, err := l.workflow.GetUserRequests(ctx, update.Message.From.ID)
	if err != nil {
		l.send(update.Message.Chat.ID, getErrorMessage(err))
		return
	}
	if len(requests) == 0 {
		l.send(update.Message.Chat.ID, "У вас нет заявок.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Ваши заявки:\n")
	for _, req := range requests {
		sb.WriteString(fmt.Sprintf("№%d место %s: %s (%s)\n",
			req.ID, req.RefNo, statusLabel(req.Status), req.CreatedAt.Format("02.01.2006")))
	}
	l.send(update.Message.Chat.ID, sb.String())
}

func statusLabel(status string) string {
	switch status {
	case models.StatusPending:
		return "на согласовании"
	case models.StatusApproved:
		return "одобрена"
	case models.StatusRejected:
		return "отклонена"
	case models.StatusCancelled:
		return "отменена"
	}
	return status
}

func (l *Listener) popPendingReason(ctx context.Context, userID int64) (int64, bool) {
	requestID, ok, err := l.reasons.Pop(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("failed to read pending reason")
		return 0, false
	}
	return requestID, ok
}

func (l *Listener) answer(callbackID, text string) {
	if err := l.telegram.AnswerCallback(callbackID, text); err != nil {
		l.logger.Debug().Err(err).Msg("answer callback failed")
	}
}

func (l *Listener) send(chatID int64, text string) {
	if _, err := l.telegram.SendMessage(chatID, text); err != nil {
		l.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}
