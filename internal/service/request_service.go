package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hotdesk/internal/database"
	"hotdesk/internal/domain"
	"hotdesk/internal/events"
	"hotdesk/internal/metrics"
	"hotdesk/internal/models"

	"github.com/rs/zerolog"
)

// RequestService владеет жизненным циклом заявки на место. Все переходы
// идут через условные апдейты в базе, поэтому гонка с таймером эскалации
// решается на уровне строки заявки.
type RequestService struct {
	store       domain.Store
	scheduler   domain.EscalationScheduler
	correlation domain.CorrelationStore
	ledger      domain.LedgerWorker
	telegram    domain.TelegramService
	directory   domain.UserService
	eventBus    domain.EventPublisher
	logger      *zerolog.Logger
	onTimeout   func(ctx context.Context, timer models.EscalationTimer) error
}

func NewRequestService(
	store domain.Store,
	scheduler domain.EscalationScheduler,
	correlation domain.CorrelationStore,
	ledger domain.LedgerWorker,
	telegram domain.TelegramService,
	directory domain.UserService,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *RequestService {
	return &RequestService{
		store:       store,
		scheduler:   scheduler,
		correlation: correlation,
		ledger:      ledger,
		telegram:    telegram,
		directory:   directory,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// CreateRequest books a seat: inserts the pending request, marks the seat
// occupied in the ledger and arms tier 1 of the escalation chain. Ledger and
// transport failures never roll the booking back.
func (s *RequestService) CreateRequest(ctx context.Context, req *models.HotDeskRequest) error {
	if _, _, err := models.ParseRefNo(req.RefNo); err != nil {
		return err
	}

	if err := s.store.CreateRequest(ctx, req); err != nil {
		return err
	}
	metrics.IncTransition(models.StatusPending)

	s.publishEvent(events.EventRequestCreated, req, 0)
	s.enqueueOccupied(ctx, req)

	if err := s.scheduler.Arm(ctx, req.ID, req.AssigneeID, models.TierFirst); err != nil {
		s.logger.Error().Err(err).Int64("request_id", req.ID).Msg("failed to arm escalation")
	}

	return nil
}

// Decide applies an approve/reject by a responder. Any responder who ever
// held the request may decide after escalation moved past them; decisions
// from strangers fail with ErrNotCurrentResponder.
func (s *RequestService) Decide(ctx context.Context, requestID, deciderID int64, decision, reason string) error {
	if decision != models.DecisionApproved && decision != models.DecisionRejected {
		return fmt.Errorf("%w: %q", database.ErrInvalidDecision, decision)
	}
	if decision == models.DecisionRejected && strings.TrimSpace(reason) == "" {
		return database.ErrMissingReason
	}

	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != models.StatusPending {
		return database.ErrNotPending
	}

	if req.AssigneeID != deciderID {
		resp, err := s.store.GetResponse(ctx, requestID, deciderID)
		if err != nil {
			return fmt.Errorf("failed to check responder: %w", err)
		}
		if resp == nil {
			return database.ErrNotCurrentResponder
		}
	}

	if err := s.store.UpdateRequestStatusIfCurrent(ctx, requestID, models.StatusPending, decision, reason); err != nil {
		if errors.Is(err, database.ErrStaleTransition) {
			metrics.IncStaleTransition()
			return database.ErrNotPending
		}
		return err
	}
	metrics.IncTransition(decision)

	if err := s.store.UpsertResponse(ctx, requestID, deciderID, decision); err != nil {
		s.logger.Error().Err(err).Int64("request_id", requestID).Msg("failed to record responder decision")
	}

	s.resolveProcess(ctx, requestID)

	req.Status = decision
	req.Reason = reason
	if decision == models.DecisionApproved {
		s.publishEvent(events.EventRequestApproved, req, deciderID)
		s.notifyRequester(req, fmt.Sprintf("Ваша заявка на место %s одобрена.", req.RefNo))
	} else {
		s.publishEvent(events.EventRequestRejected, req, deciderID)
		s.enqueueFree(ctx, req)
		s.notifyRequester(req, fmt.Sprintf("Ваша заявка на место %s отклонена. Причина: %s", req.RefNo, reason))
	}

	return nil
}

// Cancel is available to the requester only, while the request is pending or
// approved.
func (s *RequestService) Cancel(ctx context.Context, requestID, actorID int64, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return database.ErrMissingReason
	}

	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.RequesterID != actorID {
		return database.ErrForbidden
	}
	if !req.Active() {
		return database.ErrNotPending
	}

	wasApproved := req.Status == models.StatusApproved
	priorAssignee := req.AssigneeID

	if err := s.store.UpdateRequestStatusIfCurrent(ctx, requestID, req.Status, models.StatusCancelled, reason); err != nil {
		if errors.Is(err, database.ErrStaleTransition) {
			metrics.IncStaleTransition()
			return database.ErrNotPending
		}
		return err
	}
	metrics.IncTransition(models.StatusCancelled)

	// История ответов: у прежнего согласующего появляется строка cancelled
	if err := s.store.UpsertResponse(ctx, requestID, priorAssignee, models.StatusCancelled); err != nil {
		s.logger.Error().Err(err).Int64("request_id", requestID).Msg("failed to record cancellation response")
	}

	s.resolveProcess(ctx, requestID)

	req.Status = models.StatusCancelled
	req.Reason = reason
	s.publishEvent(events.EventRequestCancelled, req, actorID)
	s.enqueueFree(ctx, req)

	if wasApproved {
		if _, err := s.telegram.SendMessage(priorAssignee,
			fmt.Sprintf("Заявка на место %s, которую вы одобрили, отменена. Причина: %s", req.RefNo, reason)); err != nil {
			s.logger.Error().Err(err).Int64("chat_id", priorAssignee).Msg("failed to notify prior responder")
		}
	}

	return nil
}

// Reassign hands a pending request to a new responder and restarts the
// escalation chain at tier 1.
func (s *RequestService) Reassign(ctx context.Context, requestID, actorID, newAssigneeID int64) error {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != models.StatusPending {
		return database.ErrNotPending
	}

	if err := s.store.ReassignRequest(ctx, requestID, newAssigneeID); err != nil {
		if errors.Is(err, database.ErrStaleTransition) {
			metrics.IncStaleTransition()
			return database.ErrNotPending
		}
		return err
	}

	if err := s.store.UpsertResponse(ctx, requestID, newAssigneeID, models.StatusPending); err != nil {
		s.logger.Error().Err(err).Int64("request_id", requestID).Msg("failed to create responder row")
	}

	if err := s.scheduler.Disarm(ctx, requestID); err != nil {
		s.logger.Error().Err(err).Int64("request_id", requestID).Msg("failed to disarm escalation")
	}

	req.AssigneeID = newAssigneeID
	req.CurrentTier = models.TierFirst
	s.publishEvent(events.EventRequestReassigned, req, actorID)

	// Arm supersedes the old prompt through the correlation store itself
	if err := s.scheduler.Arm(ctx, requestID, newAssigneeID, models.TierFirst); err != nil {
		s.logger.Error().Err(err).Int64("request_id", requestID).Msg("failed to re-arm escalation")
	}

	return nil
}

// FileComplaint records a post-approval complaint from the requester.
func (s *RequestService) FileComplaint(ctx context.Context, requestID, requesterID int64, complaint string) error {
	if strings.TrimSpace(complaint) == "" {
		return database.ErrMissingReason
	}

	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.RequesterID != requesterID {
		return database.ErrForbidden
	}

	if err := s.store.SetComplaint(ctx, requestID, requesterID, complaint); err != nil {
		if errors.Is(err, database.ErrStaleTransition) {
			return database.ErrNotPending
		}
		return err
	}

	req.Complaint = complaint
	s.publishEvent(events.EventComplaintFiled, req, requesterID)
	return nil
}

func (s *RequestService) GetRequest(ctx context.Context, id int64) (*models.HotDeskRequest, error) {
	return s.store.GetRequest(ctx, id)
}

func (s *RequestService) GetUserRequests(ctx context.Context, requesterID int64) ([]*models.HotDeskRequest, error) {
	return s.store.GetUserRequests(ctx, requesterID)
}

func (s *RequestService) GetResponderStats(ctx context.Context) ([]models.ResponderStats, error) {
	return s.store.GetResponderStats(ctx)
}

func (s *RequestService) GetCancellationReasons(ctx context.Context) ([]models.CancellationReason, error) {
	return s.store.GetCancellationReasons(ctx)
}

// resolveProcess tears down escalation bookkeeping once a request reaches a
// human outcome: disarm open timers, drop the prompt correlation entry.
func (s *RequestService) resolveProcess(ctx context.Context, requestID int64) {
	if err := s.scheduler.Disarm(ctx, requestID); err != nil {
		s.logger.Error().Err(err).Int64("request_id", requestID).Msg("failed to disarm escalation")
	}
	if err := s.correlation.DeletePrompt(ctx, requestID); err != nil {
		s.logger.Error().Err(err).Int64("request_id", requestID).Msg("failed to delete prompt correlation")
	}
}

func (s *RequestService) notifyRequester(req *models.HotDeskRequest, text string) {
	if _, err := s.telegram.SendMessage(req.RequesterID, text); err != nil {
		s.logger.Error().Err(err).Int64("chat_id", req.RequesterID).Msg("failed to notify requester")
	}
}

func (s *RequestService) enqueueOccupied(ctx context.Context, req *models.HotDeskRequest) {
	if s.ledger == nil {
		return
	}

	occupant := fmt.Sprintf("id:%d", req.RequesterID)
	if user, err := s.directory.GetUser(ctx, req.RequesterID); err == nil && user.Name != "" {
		occupant = user.Name
	}

	if err := s.ledger.EnqueueMarkOccupied(ctx, req, occupant); err != nil {
		s.logger.Error().Err(err).Int64("request_id", req.ID).Msg("ledger enqueue error")
	}
}

func (s *RequestService) enqueueFree(ctx context.Context, req *models.HotDeskRequest) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.EnqueueMarkFree(ctx, req); err != nil {
		s.logger.Error().Err(err).Int64("request_id", req.ID).Msg("ledger enqueue error")
	}
}

func (s *RequestService) publishEvent(eventType string, req *models.HotDeskRequest, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.RequestEventPayload{
		RequestID:   req.ID,
		RequesterID: req.RequesterID,
		AssigneeID:  req.AssigneeID,
		RefNo:       req.RefNo,
		Status:      req.Status,
		Tier:        req.CurrentTier,
		Reason:      req.Reason,
		ChangedByID: changedByID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("request_id", req.ID).Msg("publish event error")
	}
}
