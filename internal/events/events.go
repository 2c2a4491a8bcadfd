package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventRequestCreated    = "request_created"
	EventRequestApproved   = "request_approved"
	EventRequestRejected   = "request_rejected"
	EventRequestCancelled  = "request_cancelled"
	EventRequestReassigned = "request_reassigned"
	EventRequestEscalated  = "request_escalated"
	EventComplaintFiled    = "complaint_filed"
)

// RequestEventPayload describes the minimal request snapshot for event consumers.
type RequestEventPayload struct {
	RequestID   int64  `json:"request_id"`
	RequesterID int64  `json:"requester_id"`
	AssigneeID  int64  `json:"assignee_id"`
	RefNo       string `json:"ref_no"`
	Status      string `json:"status"`
	Tier        int    `json:"tier,omitempty"`
	Reason      string `json:"reason,omitempty"`
	ChangedByID int64  `json:"changed_by_id,omitempty"`
}

// Event несёт тип и JSON-снимок заявки на момент перехода.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

type EventHandler func(event *Event) error

// EventBus: синхронный pub/sub внутри процесса. Обработчики вызываются
// в горутине издателя; ошибки обработчиков не прерывают доставку.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// Publish delivers the event to every subscriber of its type, in order.
func (b *EventBus) Publish(event *Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	b.mu.RLock()
	handlers := make([]EventHandler, len(b.handlers[event.Type]))
	copy(handlers, b.handlers[event.Type])
	b.mu.RUnlock()

	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes. Nil bus is a no-op.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
