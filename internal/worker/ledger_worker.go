package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hotdesk/internal/database"
	"hotdesk/internal/domain"
	"hotdesk/internal/metrics"
	"hotdesk/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskMarkOccupied = "mark_occupied"
	TaskMarkFree     = "mark_free"
)

// ledgerTaskPayload is persisted in LedgerTask.Payload as JSON.
type ledgerTaskPayload struct {
	RequestID int64  `json:"request_id"`
	Day       string `json:"day"`
	RefNo     string `json:"ref_no"`
	Occupant  string `json:"occupant,omitempty"`
}

// LedgerWorker consumes ledger_sync_queue tasks and applies them to the seat
// ledger. Tasks survive restarts in sqlite; redis is the wake-up channel,
// with DB polling as the fallback when redis is down.
type LedgerWorker struct {
	db            *database.DB
	ledger        domain.LedgerWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.LedgerTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        zerolog.Logger
}

// NewLedgerWorker builds a worker with sane defaults.
func NewLedgerWorker(db *database.DB, ledger domain.LedgerWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *LedgerWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &LedgerWorker{
		db:            db,
		ledger:        ledger,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.LedgerTask, 128),
		redisQueueKey: "ledger:queue",
		deadLetterKey: "ledger:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger.With().Str("component", "ledger_worker").Logger(),
	}
}

// EnqueueMarkOccupied schedules the occupancy write for a freshly created
// request. Day is taken from the request's creation date.
func (w *LedgerWorker) EnqueueMarkOccupied(ctx context.Context, req *models.HotDeskRequest, occupant string) error {
	return w.enqueue(ctx, TaskMarkOccupied, req, occupant)
}

// EnqueueMarkFree schedules freeing the request's seat.
func (w *LedgerWorker) EnqueueMarkFree(ctx context.Context, req *models.HotDeskRequest) error {
	return w.enqueue(ctx, TaskMarkFree, req, "")
}

func (w *LedgerWorker) enqueue(ctx context.Context, taskType string, req *models.HotDeskRequest, occupant string) error {
	if req == nil || req.ID == 0 {
		return errors.New("request is required")
	}

	payload := ledgerTaskPayload{
		RequestID: req.ID,
		Day:       req.CreatedAt.Format("2006-01-02"),
		RefNo:     req.RefNo,
		Occupant:  occupant,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.LedgerTask{
		TaskType: taskType,
		RefNo:    req.RefNo,
		Payload:  string(payloadBytes),
		Status:   "pending",
	}

	if err := w.db.CreateLedgerTask(ctx, &task); err != nil {
		return fmt.Errorf("persist ledger task: %w", err)
	}

	// Redis is only a wake-up signal; sqlite already holds the task.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("redis push failed, falling back to polling")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("in-memory queue full, task left to polling")
	}

	return nil
}

// Start launches main loop; stops when ctx is done.
func (w *LedgerWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("ledger worker started")
	defer w.logger.Info().Msg("ledger worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingLedgerTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending tasks failed")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *LedgerWorker) tryLocalQueue() (models.LedgerTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.LedgerTask{}, false
	}
}

func (w *LedgerWorker) tryRedis(ctx context.Context) (models.LedgerTask, bool) {
	if w.redis == nil {
		return models.LedgerTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.LedgerTask{}, false
		}
		w.logger.Error().Err(err).Msg("redis BRPOP error")
		return models.LedgerTask{}, false
	}
	if len(res) != 2 {
		return models.LedgerTask{}, false
	}
	var task models.LedgerTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task failed")
		return models.LedgerTask{}, false
	}
	return task, true
}

func (w *LedgerWorker) processTask(ctx context.Context, task *models.LedgerTask) {
	var payload ledgerTaskPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.applyTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.UpdateLedgerTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark completed failed")
	}
	metrics.IncLedgerTask("completed")
}

func (w *LedgerWorker) applyTask(ctx context.Context, taskType string, payload ledgerTaskPayload) error {
	switch taskType {
	case TaskMarkOccupied:
		if payload.Occupant == "" {
			return errors.New("occupant missing")
		}
		return w.ledger.MarkOccupied(ctx, payload.Day, payload.RefNo, payload.Occupant)
	case TaskMarkFree:
		return w.ledger.MarkFree(ctx, payload.Day, payload.RefNo)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *LedgerWorker) retryOrFail(ctx context.Context, task *models.LedgerTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.failTask(ctx, task, cause)
		return
	}

	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.UpdateLedgerTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark retry failed")
	}
	metrics.IncLedgerTask("retry")
}

func (w *LedgerWorker) failTask(ctx context.Context, task *models.LedgerTask, cause error) {
	if err := w.db.UpdateLedgerTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark failed failed")
	}
	metrics.IncLedgerTask("failed")
	w.pushDeadLetter(ctx, task)
}

func (w *LedgerWorker) pushRedis(ctx context.Context, task models.LedgerTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *LedgerWorker) pushDeadLetter(ctx context.Context, task *models.LedgerTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("encode deadletter failed")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("deadletter push failed")
	}
}
