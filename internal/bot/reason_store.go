package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingReasonTTL = 10 * time.Minute

// ReasonStore держит заявку, по которой согласующий сейчас пишет причину
// отказа. Одно ожидание на пользователя, живёт недолго.
type ReasonStore struct {
	client *redis.Client
}

func NewReasonStore(client *redis.Client) *ReasonStore {
	return &ReasonStore{client: client}
}

func (s *ReasonStore) key(userID int64) string {
	return fmt.Sprintf("hotdesk:pending_reason:%d", userID)
}

func (s *ReasonStore) Set(ctx context.Context, userID, requestID int64) error {
	if s.client == nil {
		return errors.New("reason store is not configured")
	}
	return s.client.Set(ctx, s.key(userID), requestID, pendingReasonTTL).Err()
}

// Pop reads and deletes the pending request id in one round trip.
func (s *ReasonStore) Pop(ctx context.Context, userID int64) (int64, bool, error) {
	if s.client == nil {
		return 0, false, nil
	}

	val, err := s.client.GetDel(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read pending reason: %w", err)
	}

	requestID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt pending reason value %q: %w", val, err)
	}
	return requestID, true, nil
}
