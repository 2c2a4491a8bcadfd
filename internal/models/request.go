package models

import "time"

// HotDeskRequest is one hot-desk booking attempt. Rows are never physically
// removed; resolved requests keep their history and DeletedAt marks
// soft-deletion.
type HotDeskRequest struct {
	ID                 int64      `json:"id"`
	RequesterID        int64      `json:"requester_id"`
	AssigneeID         int64      `json:"assignee_id"`
	RefNo              string     `json:"ref_no"`
	Status             string     `json:"status"` // pending, approved, rejected, cancelled
	Reason             string     `json:"reason,omitempty"`
	Complaint          string     `json:"complaint,omitempty"`
	ComplaintCreatedAt *time.Time `json:"complaint_created_at,omitempty"`
	CurrentTier        int        `json:"current_tier"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty"`
}

// Active reports whether the request still holds its seat.
func (r *HotDeskRequest) Active() bool {
	return r.Status == StatusPending || r.Status == StatusApproved
}

// HotDeskResponse records how one responder handled (or failed to handle) a
// request. Exactly one row exists per (request, assignee) pair.
type HotDeskResponse struct {
	ID          int64     `json:"id"`
	RequestID   int64     `json:"request_id"`
	AssigneeID  int64     `json:"assignee_id"`
	Status      string    `json:"status"`
	IsEscalated bool      `json:"is_escalated"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ResponderStats aggregates one responder's handling history for reporting.
type ResponderStats struct {
	AssigneeID int64 `json:"assignee_id"`
	Approved   int64 `json:"approved"`
	Rejected   int64 `json:"rejected"`
	Escalated  int64 `json:"escalated"`
	Pending    int64 `json:"pending"`
}

// CancellationReason is one free-text reason with its occurrence count.
type CancellationReason struct {
	Reason string `json:"reason"`
	Count  int64  `json:"count"`
}
