package database

import (
	"context"
	"fmt"
	"time"

	"hotdesk/internal/models"
)

func (db *DB) CreateLedgerTask(ctx context.Context, task *models.LedgerTask) error {
	query := `INSERT INTO ledger_sync_queue (task_type, ref_no, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		task.TaskType,
		task.RefNo,
		task.Payload,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now

	return nil
}

func (db *DB) GetPendingLedgerTasks(ctx context.Context, limit int) ([]models.LedgerTask, error) {
	query := `SELECT id, task_type, ref_no, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
              FROM ledger_sync_queue
              WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending ledger tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.LedgerTask
	for rows.Next() {
		var t models.LedgerTask
		err := rows.Scan(
			&t.ID, &t.TaskType, &t.RefNo, &t.Payload, &t.Status, &t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) UpdateLedgerTaskStatus(ctx context.Context, id int64, status, lastError string, nextRetryAt *time.Time) error {
	var lastErrPtr *string
	if lastError != "" {
		lastErrPtr = &lastError
	}

	var processedAt *time.Time
	if status == "completed" || status == "failed" {
		now := time.Now()
		processedAt = &now
	}

	query := `UPDATE ledger_sync_queue
	          SET status = ?, last_error = ?, processed_at = ?, next_retry_at = ?,
	              retry_count = CASE WHEN ? = 'retry' THEN retry_count + 1 ELSE retry_count END
	          WHERE id = ?`
	_, err := db.ExecContext(ctx, query, status, lastErrPtr, processedAt, nextRetryAt, status, id)
	if err != nil {
		return fmt.Errorf("failed to update ledger task status: %w", err)
	}
	return nil
}
