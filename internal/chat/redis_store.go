package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"siterelay/internal/config"
	"siterelay/internal/models"
)

const historyKeyPrefix = "chat:history:"

// RedisStore keeps session histories as JSON blobs in redis, one key per
// session, refreshed with the configured TTL on every write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects using the app config and verifies the server is
// reachable before returning.
func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 6379
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// NewRedisStoreWithClient builds a store from an existing client. Used
// by tests.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func historyKey(sessionID string) string {
	return historyKeyPrefix + sessionID
}

func (s *RedisStore) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	data, err := s.client.Get(ctx, historyKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var turns []models.Turn
	if err := json.Unmarshal([]byte(data), &turns); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return turns, nil
}

// Append is a read-modify-write; the manager's per-session lock keeps it
// race-free.
func (s *RedisStore) Append(ctx context.Context, sessionID string, turns ...models.Turn) error {
	history, err := s.History(ctx, sessionID)
	if err != nil {
		return err
	}
	history = append(history, turns...)
	return s.write(ctx, sessionID, history)
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.write(ctx, sessionID, []models.Turn{})
}

func (s *RedisStore) write(ctx context.Context, sessionID string, turns []models.Turn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.client.Set(ctx, historyKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
