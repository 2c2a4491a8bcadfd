package database

import (
	"context"
	"fmt"
	"time"

	"hotdesk/internal/models"
)

func (db *DB) CreateTimer(ctx context.Context, timer *models.EscalationTimer) error {
	query := `INSERT INTO escalation_timers (request_id, assignee_id, tier, fire_at, status, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		timer.RequestID, timer.AssigneeID, timer.Tier, timer.FireAt, models.TimerArmed, now)
	if err != nil {
		return fmt.Errorf("failed to create timer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	timer.ID = id
	timer.Status = models.TimerArmed
	timer.CreatedAt = now
	return nil
}

// CancelOpenTimers cancels every armed timer for the request. Safe to call
// when nothing is armed. An already-claimed timer is not affected, its
// handler re-validates the request instead.
func (db *DB) CancelOpenTimers(ctx context.Context, requestID int64) error {
	query := `UPDATE escalation_timers SET status = ? WHERE request_id = ? AND status = ?`
	_, err := db.ExecContext(ctx, query, models.TimerCancelled, requestID, models.TimerArmed)
	if err != nil {
		return fmt.Errorf("failed to cancel timers: %w", err)
	}
	return nil
}

func (db *DB) GetDueTimers(ctx context.Context, now time.Time, limit int) ([]models.EscalationTimer, error) {
	query := `SELECT id, request_id, assignee_id, tier, fire_at, status, created_at
	          FROM escalation_timers
	          WHERE status = ? AND fire_at <= ?
	          ORDER BY fire_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, models.TimerArmed, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due timers: %w", err)
	}
	defer rows.Close()

	var timers []models.EscalationTimer
	for rows.Next() {
		var t models.EscalationTimer
		err := rows.Scan(&t.ID, &t.RequestID, &t.AssigneeID, &t.Tier, &t.FireAt, &t.Status, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timer: %w", err)
		}
		timers = append(timers, t)
	}
	return timers, rows.Err()
}

// ClaimTimer flips an armed timer to fired. ErrStaleTransition means another
// worker claimed it first or disarm won the race.
func (db *DB) ClaimTimer(ctx context.Context, id int64) error {
	query := `UPDATE escalation_timers SET status = ? WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, models.TimerFired, id, models.TimerArmed)
	if err != nil {
		return fmt.Errorf("failed to claim timer: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrStaleTransition
	}
	return nil
}

func (db *DB) GetTimersForRequest(ctx context.Context, requestID int64) ([]models.EscalationTimer, error) {
	query := `SELECT id, request_id, assignee_id, tier, fire_at, status, created_at
	          FROM escalation_timers WHERE request_id = ? ORDER BY created_at ASC`
	rows, err := db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get request timers: %w", err)
	}
	defer rows.Close()

	var timers []models.EscalationTimer
	for rows.Next() {
		var t models.EscalationTimer
		err := rows.Scan(&t.ID, &t.RequestID, &t.AssigneeID, &t.Tier, &t.FireAt, &t.Status, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timer: %w", err)
		}
		timers = append(timers, t)
	}
	return timers, rows.Err()
}
