package repository

import (
	"context"
	"sync"
	"time"

	"hotdesk/internal/models"
)

// MemoryCorrelationStore is the in-process fallback used when Redis is
// unreachable. Entries expire lazily on read.
type MemoryCorrelationStore struct {
	prompts sync.Map
}

type promptEntry struct {
	ref       *models.PromptRef
	expiresAt time.Time
}

func NewMemoryCorrelationStore() *MemoryCorrelationStore {
	return &MemoryCorrelationStore{}
}

func (r *MemoryCorrelationStore) SavePrompt(ctx context.Context, requestID int64, ref *models.PromptRef, ttl time.Duration) error {
	r.prompts.Store(requestID, &promptEntry{
		ref:       ref,
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

func (r *MemoryCorrelationStore) GetPrompt(ctx context.Context, requestID int64) (*models.PromptRef, error) {
	val, ok := r.prompts.Load(requestID)
	if !ok {
		return nil, nil
	}
	entry := val.(*promptEntry)
	if time.Now().After(entry.expiresAt) {
		r.prompts.Delete(requestID)
		return nil, nil
	}
	return entry.ref, nil
}

func (r *MemoryCorrelationStore) DeletePrompt(ctx context.Context, requestID int64) error {
	r.prompts.Delete(requestID)
	return nil
}
