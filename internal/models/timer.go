package models

import "time"

const (
	TimerArmed     = "armed"
	TimerCancelled = "cancelled"
	TimerFired     = "fired"
)

// EscalationTimer is one persisted delayed action: when FireAt passes and the
// request is still pending at the expected tier/assignee, the escalation
// chain advances. Cancellation is advisory; the fire handler re-validates.
type EscalationTimer struct {
	ID         int64     `json:"id"`
	RequestID  int64     `json:"request_id"`
	AssigneeID int64     `json:"assignee_id"`
	Tier       int       `json:"tier"`
	FireAt     time.Time `json:"fire_at"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
