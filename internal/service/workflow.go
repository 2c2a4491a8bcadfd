package service

import (
	"context"
	"fmt"

	"hotdesk/internal/models"
)

// WorkflowEvent is the closed set of things that can move a request through
// its lifecycle. Callback clicks, API calls and fired timers all reduce to
// one of these variants before touching the state machine.
type WorkflowEvent interface {
	workflowEvent()
}

type DecideEvent struct {
	RequestID int64
	DeciderID int64
	Decision  string
	Reason    string
}

type CancelEvent struct {
	RequestID int64
	ActorID   int64
	Reason    string
}

type ReassignEvent struct {
	RequestID     int64
	ActorID       int64
	NewAssigneeID int64
}

type TimeoutFiredEvent struct {
	Timer models.EscalationTimer
}

func (DecideEvent) workflowEvent()       {}
func (CancelEvent) workflowEvent()       {}
func (ReassignEvent) workflowEvent()     {}
func (TimeoutFiredEvent) workflowEvent() {}

// Dispatch routes an event to its handler. Timeouts are handled by the
// escalation worker, registered via SetTimeoutHandler to avoid an import
// cycle between the service and the scheduler.
func (s *RequestService) Dispatch(ctx context.Context, event WorkflowEvent) error {
	switch e := event.(type) {
	case DecideEvent:
		return s.Decide(ctx, e.RequestID, e.DeciderID, e.Decision, e.Reason)
	case CancelEvent:
		return s.Cancel(ctx, e.RequestID, e.ActorID, e.Reason)
	case ReassignEvent:
		return s.Reassign(ctx, e.RequestID, e.ActorID, e.NewAssigneeID)
	case TimeoutFiredEvent:
		if s.onTimeout == nil {
			return fmt.Errorf("no timeout handler registered")
		}
		return s.onTimeout(ctx, e.Timer)
	default:
		return fmt.Errorf("unknown workflow event %T", event)
	}
}

// SetTimeoutHandler registers the escalation worker's timeout callback.
func (s *RequestService) SetTimeoutHandler(h func(ctx context.Context, timer models.EscalationTimer) error) {
	s.onTimeout = h
}
