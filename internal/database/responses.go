package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotdesk/internal/models"
)

// UpsertResponse inserts the responder row for (requestID, assigneeID) or
// updates its status when the pair already has one. History for earlier
// responders is never rewritten by a later assignee.
func (db *DB) UpsertResponse(ctx context.Context, requestID, assigneeID int64, status string) error {
	now := time.Now()
	query := `INSERT INTO hotdesk_responses (request_id, assignee_id, status, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?)
	          ON CONFLICT(request_id, assignee_id) DO UPDATE SET
	              status = excluded.status,
	              updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query, requestID, assigneeID, status, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert response: %w", err)
	}
	return nil
}

// MarkResponseEscalated records that this tier's timeout expired without a
// decision. Idempotent.
func (db *DB) MarkResponseEscalated(ctx context.Context, requestID, assigneeID int64) error {
	query := `UPDATE hotdesk_responses SET is_escalated = 1, updated_at = ?
	          WHERE request_id = ? AND assignee_id = ?`
	_, err := db.ExecContext(ctx, query, time.Now(), requestID, assigneeID)
	if err != nil {
		return fmt.Errorf("failed to mark response escalated: %w", err)
	}
	return nil
}

func (db *DB) GetResponses(ctx context.Context, requestID int64) ([]*models.HotDeskResponse, error) {
	query := `SELECT id, request_id, assignee_id, status, is_escalated, created_at, updated_at
	          FROM hotdesk_responses WHERE request_id = ? ORDER BY created_at ASC`
	rows, err := db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}
	defer rows.Close()

	var responses []*models.HotDeskResponse
	for rows.Next() {
		r := &models.HotDeskResponse{}
		err := rows.Scan(&r.ID, &r.RequestID, &r.AssigneeID, &r.Status, &r.IsEscalated, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// GetResponse returns nil, nil when the pair has no responder row.
func (db *DB) GetResponse(ctx context.Context, requestID, assigneeID int64) (*models.HotDeskResponse, error) {
	query := `SELECT id, request_id, assignee_id, status, is_escalated, created_at, updated_at
	          FROM hotdesk_responses WHERE request_id = ? AND assignee_id = ?`
	r := &models.HotDeskResponse{}
	err := db.QueryRowContext(ctx, query, requestID, assigneeID).Scan(
		&r.ID, &r.RequestID, &r.AssigneeID, &r.Status, &r.IsEscalated, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	return r, nil
}

// GetResponderStats aggregates per-responder handling counts for reporting.
func (db *DB) GetResponderStats(ctx context.Context) ([]models.ResponderStats, error) {
	query := `SELECT assignee_id,
	                 SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
	                 SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
	                 SUM(CASE WHEN is_escalated = 1 THEN 1 ELSE 0 END),
	                 SUM(CASE WHEN status = ? THEN 1 ELSE 0 END)
	          FROM hotdesk_responses
	          GROUP BY assignee_id ORDER BY assignee_id`
	rows, err := db.QueryContext(ctx, query, models.StatusApproved, models.StatusRejected, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to get responder stats: %w", err)
	}
	defer rows.Close()

	var stats []models.ResponderStats
	for rows.Next() {
		var s models.ResponderStats
		if err := rows.Scan(&s.AssigneeID, &s.Approved, &s.Rejected, &s.Escalated, &s.Pending); err != nil {
			return nil, fmt.Errorf("failed to scan responder stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
