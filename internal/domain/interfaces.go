package domain

import (
	"context"
	"time"

	"hotdesk/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Store interface {
	CreateRequest(ctx context.Context, req *models.HotDeskRequest) error
	GetRequest(ctx context.Context, id int64) (*models.HotDeskRequest, error)
	UpdateRequestStatusIfCurrent(ctx context.Context, id int64, fromStatus, toStatus, reason string) error
	AdvanceRequestTier(ctx context.Context, id int64, fromTier int, fromAssignee int64, toTier int, toAssignee int64) error
	MarkRequestEscalated(ctx context.Context, id int64, fromTier int, fromAssignee int64) error
	ReassignRequest(ctx context.Context, id int64, newAssigneeID int64) error
	SetComplaint(ctx context.Context, id, requesterID int64, complaint string) error
	SoftDeleteRequest(ctx context.Context, id int64) error
	GetUserRequests(ctx context.Context, requesterID int64) ([]*models.HotDeskRequest, error)
	GetStaleActiveRequests(ctx context.Context, olderThanDays int) ([]*models.HotDeskRequest, error)
	GetCancellationReasons(ctx context.Context) ([]models.CancellationReason, error)

	UpsertResponse(ctx context.Context, requestID, assigneeID int64, status string) error
	MarkResponseEscalated(ctx context.Context, requestID, assigneeID int64) error
	GetResponses(ctx context.Context, requestID int64) ([]*models.HotDeskResponse, error)
	GetResponse(ctx context.Context, requestID, assigneeID int64) (*models.HotDeskResponse, error)
	GetResponderStats(ctx context.Context) ([]models.ResponderStats, error)

	CreateTimer(ctx context.Context, timer *models.EscalationTimer) error
	CancelOpenTimers(ctx context.Context, requestID int64) error
	GetDueTimers(ctx context.Context, now time.Time, limit int) ([]models.EscalationTimer, error)
	ClaimTimer(ctx context.Context, id int64) error
	GetTimersForRequest(ctx context.Context, requestID int64) ([]models.EscalationTimer, error)

	CreateLedgerTask(ctx context.Context, task *models.LedgerTask) error
	GetPendingLedgerTasks(ctx context.Context, limit int) ([]models.LedgerTask, error)
	UpdateLedgerTaskStatus(ctx context.Context, id int64, status, lastError string, nextRetryAt *time.Time) error

	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserActivity(ctx context.Context, id int64) error
}

// CorrelationStore keeps the mapping between a request and the chat prompt
// sent for it, so later decisions can edit the original message.
type CorrelationStore interface {
	SavePrompt(ctx context.Context, requestID int64, ref *models.PromptRef, ttl time.Duration) error
	GetPrompt(ctx context.Context, requestID int64) (*models.PromptRef, error)
	DeletePrompt(ctx context.Context, requestID int64) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendMarkdown(chatID int64, text string) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

// LedgerWriter talks to the seat ledger spreadsheet. Implementations must
// locate rows by matching day, floor and seat values at write time.
type LedgerWriter interface {
	FetchSeats(ctx context.Context, day string) ([]*models.Seat, error)
	ListAvailable(ctx context.Context, day string) ([]*models.Seat, error)
	MarkOccupied(ctx context.Context, day, refNo, occupant string) error
	MarkFree(ctx context.Context, day, refNo string) error
}

type LedgerWorker interface {
	EnqueueMarkOccupied(ctx context.Context, req *models.HotDeskRequest, occupant string) error
	EnqueueMarkFree(ctx context.Context, req *models.HotDeskRequest) error
}

type EscalationScheduler interface {
	Arm(ctx context.Context, requestID, assigneeID int64, tier int) error
	Disarm(ctx context.Context, requestID int64) error
}

type RequestService interface {
	CreateRequest(ctx context.Context, req *models.HotDeskRequest) error
	Decide(ctx context.Context, requestID, deciderID int64, decision string, reason string) error
	Cancel(ctx context.Context, requestID, actorID int64, reason string) error
	Reassign(ctx context.Context, requestID, actorID, newAssigneeID int64) error
	FileComplaint(ctx context.Context, requestID, requesterID int64, complaint string) error
	GetRequest(ctx context.Context, id int64) (*models.HotDeskRequest, error)
	GetUserRequests(ctx context.Context, requesterID int64) ([]*models.HotDeskRequest, error)
	GetResponderStats(ctx context.Context) ([]models.ResponderStats, error)
	GetCancellationReasons(ctx context.Context) ([]models.CancellationReason, error)
}

type UserService interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserActivity(ctx context.Context, id int64) error
}
