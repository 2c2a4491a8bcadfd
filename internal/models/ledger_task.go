package models

import "time"

// LedgerTask represents a queued seat-ledger write.
type LedgerTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	RefNo       string     `json:"ref_no"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}
