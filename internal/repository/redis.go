package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hotdesk/internal/config"
	"hotdesk/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisCorrelationStore хранит связку заявка -> отправленное сообщение
type RedisCorrelationStore struct {
	client *redis.Client
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisCorrelationStore(client *redis.Client) *RedisCorrelationStore {
	return &RedisCorrelationStore{client: client}
}

func promptKey(requestID int64) string {
	return fmt.Sprintf("hotdesk:prompt:%d", requestID)
}

func (r *RedisCorrelationStore) SavePrompt(ctx context.Context, requestID int64, ref *models.PromptRef, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("failed to marshal prompt ref: %w", err)
	}

	if err := r.client.Set(ctx, promptKey(requestID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set prompt ref in redis: %w", err)
	}

	return nil
}

// GetPrompt возвращает nil, nil если связка истекла или не сохранялась
func (r *RedisCorrelationStore) GetPrompt(ctx context.Context, requestID int64) (*models.PromptRef, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, promptKey(requestID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt ref from redis: %w", err)
	}

	var ref models.PromptRef
	if err := json.Unmarshal([]byte(val), &ref); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompt ref: %w", err)
	}

	return &ref, nil
}

func (r *RedisCorrelationStore) DeletePrompt(ctx context.Context, requestID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, promptKey(requestID)).Err(); err != nil {
		return fmt.Errorf("failed to delete prompt ref from redis: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
