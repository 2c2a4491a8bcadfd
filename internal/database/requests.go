package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotdesk/internal/models"
)

const requestColumns = `id, requester_id, assignee_id, ref_no, status, reason,
       complaint, complaint_created_at, current_tier, created_at, updated_at, deleted_at`

// CreateRequest inserts a new pending request together with the initial
// responder row. Uniqueness checks run inside the same transaction so two
// concurrent bookings cannot both pass.
func (db *DB) CreateRequest(ctx context.Context, req *models.HotDeskRequest) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	day := now.Format("2006-01-02")

	var activeCount int
	queryActive := `SELECT COUNT(*) FROM hotdesk_requests
	                WHERE requester_id = ? AND status IN (?, ?)
	                  AND date(created_at) = ? AND deleted_at IS NULL`
	err = tx.QueryRowContext(ctx, queryActive, req.RequesterID,
		models.StatusPending, models.StatusApproved, day).Scan(&activeCount)
	if err != nil {
		return fmt.Errorf("failed to check active requests: %w", err)
	}
	if activeCount > 0 {
		return ErrDuplicateActiveRequest
	}

	var seatCount int
	querySeat := `SELECT COUNT(*) FROM hotdesk_requests
	              WHERE ref_no = ? AND status IN (?, ?)
	                AND date(created_at) = ? AND deleted_at IS NULL`
	err = tx.QueryRowContext(ctx, querySeat, req.RefNo,
		models.StatusPending, models.StatusApproved, day).Scan(&seatCount)
	if err != nil {
		return fmt.Errorf("failed to check seat holds: %w", err)
	}
	if seatCount > 0 {
		return ErrSeatUnavailable
	}

	queryInsert := `INSERT INTO hotdesk_requests
	                (requester_id, assignee_id, ref_no, status, current_tier, created_at, updated_at)
	                VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, queryInsert,
		req.RequesterID, req.AssigneeID, req.RefNo,
		models.StatusPending, models.TierFirst, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	queryResponse := `INSERT INTO hotdesk_responses
	                  (request_id, assignee_id, status, created_at, updated_at)
	                  VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, queryResponse, id, req.AssigneeID, models.StatusPending, now, now); err != nil {
		return fmt.Errorf("failed to insert response row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit request: %w", err)
	}

	req.ID = id
	req.Status = models.StatusPending
	req.CurrentTier = models.TierFirst
	req.CreatedAt = now
	req.UpdatedAt = now
	return nil
}

func (db *DB) GetRequest(ctx context.Context, id int64) (*models.HotDeskRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM hotdesk_requests WHERE id = ? AND deleted_at IS NULL`
	req, err := scanRequest(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// UpdateRequestStatusIfCurrent performs the conditional transition
// fromStatus -> toStatus, recording the reason. Zero affected rows means the
// expected state no longer holds.
func (db *DB) UpdateRequestStatusIfCurrent(ctx context.Context, id int64, fromStatus, toStatus, reason string) error {
	query := `UPDATE hotdesk_requests SET status = ?, reason = ?, updated_at = ?
	          WHERE id = ? AND status = ? AND deleted_at IS NULL`
	result, err := db.ExecContext(ctx, query, toStatus, reason, time.Now(), id, fromStatus)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrStaleTransition
	}
	return nil
}

// AdvanceRequestTier moves a still-pending request from one tier/assignee to
// the next. The full expected state is part of the WHERE clause so a late
// timer fire after a decision, cancellation, or reassignment matches nothing.
func (db *DB) AdvanceRequestTier(ctx context.Context, id int64, fromTier int, fromAssignee int64, toTier int, toAssignee int64) error {
	query := `UPDATE hotdesk_requests SET assignee_id = ?, current_tier = ?, updated_at = ?
	          WHERE id = ? AND status = ? AND current_tier = ? AND assignee_id = ? AND deleted_at IS NULL`
	result, err := db.ExecContext(ctx, query, toAssignee, toTier, time.Now(),
		id, models.StatusPending, fromTier, fromAssignee)
	if err != nil {
		return fmt.Errorf("failed to advance request tier: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrStaleTransition
	}
	return nil
}

// MarkRequestEscalated flags the request as past the last tier. The status
// stays pending: only a human decision resolves it.
func (db *DB) MarkRequestEscalated(ctx context.Context, id int64, fromTier int, fromAssignee int64) error {
	query := `UPDATE hotdesk_requests SET current_tier = ?, updated_at = ?
	          WHERE id = ? AND status = ? AND current_tier = ? AND assignee_id = ? AND deleted_at IS NULL`
	result, err := db.ExecContext(ctx, query, models.TierEscalated, time.Now(),
		id, models.StatusPending, fromTier, fromAssignee)
	if err != nil {
		return fmt.Errorf("failed to mark request escalated: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrStaleTransition
	}
	return nil
}

// ReassignRequest points a pending request at a new responder and restarts
// the chain at tier 1.
func (db *DB) ReassignRequest(ctx context.Context, id int64, newAssigneeID int64) error {
	query := `UPDATE hotdesk_requests SET assignee_id = ?, current_tier = ?, updated_at = ?
	          WHERE id = ? AND status = ? AND deleted_at IS NULL`
	result, err := db.ExecContext(ctx, query, newAssigneeID, models.TierFirst, time.Now(),
		id, models.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to reassign request: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrStaleTransition
	}
	return nil
}

func (db *DB) SetComplaint(ctx context.Context, id, requesterID int64, complaint string) error {
	now := time.Now()
	query := `UPDATE hotdesk_requests SET complaint = ?, complaint_created_at = ?, updated_at = ?
	          WHERE id = ? AND requester_id = ? AND status = ? AND deleted_at IS NULL`
	result, err := db.ExecContext(ctx, query, complaint, now, now, id, requesterID, models.StatusApproved)
	if err != nil {
		return fmt.Errorf("failed to set complaint: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrStaleTransition
	}
	return nil
}

func (db *DB) SoftDeleteRequest(ctx context.Context, id int64) error {
	query := `UPDATE hotdesk_requests SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`
	_, err := db.ExecContext(ctx, query, time.Now(), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to soft delete request: %w", err)
	}
	return nil
}

func (db *DB) GetUserRequests(ctx context.Context, requesterID int64) ([]*models.HotDeskRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM hotdesk_requests
	          WHERE requester_id = ? AND deleted_at IS NULL ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// GetStaleActiveRequests returns pending/approved requests whose booking day
// passed more than olderThanDays ago. Used by ledger reconciliation.
func (db *DB) GetStaleActiveRequests(ctx context.Context, olderThanDays int) ([]*models.HotDeskRequest, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays).Format("2006-01-02")
	query := `SELECT ` + requestColumns + ` FROM hotdesk_requests
	          WHERE status IN (?, ?) AND date(created_at) <= ? AND deleted_at IS NULL
	          ORDER BY created_at ASC`
	rows, err := db.QueryContext(ctx, query, models.StatusPending, models.StatusApproved, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

func (db *DB) GetCancellationReasons(ctx context.Context) ([]models.CancellationReason, error) {
	query := `SELECT reason, COUNT(*) FROM hotdesk_requests
	          WHERE status = ? AND reason != '' AND deleted_at IS NULL
	          GROUP BY reason ORDER BY COUNT(*) DESC`
	rows, err := db.QueryContext(ctx, query, models.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to get cancellation reasons: %w", err)
	}
	defer rows.Close()

	var reasons []models.CancellationReason
	for rows.Next() {
		var r models.CancellationReason
		if err := rows.Scan(&r.Reason, &r.Count); err != nil {
			return nil, fmt.Errorf("failed to scan cancellation reason: %w", err)
		}
		reasons = append(reasons, r)
	}
	return reasons, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.HotDeskRequest, error) {
	var req models.HotDeskRequest
	err := row.Scan(
		&req.ID, &req.RequesterID, &req.AssigneeID, &req.RefNo, &req.Status, &req.Reason,
		&req.Complaint, &req.ComplaintCreatedAt, &req.CurrentTier,
		&req.CreatedAt, &req.UpdatedAt, &req.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func collectRequests(rows *sql.Rows) ([]*models.HotDeskRequest, error) {
	var requests []*models.HotDeskRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
