package printlink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"printdesk/internal/config"
	"printdesk/internal/model"
)

const defaultKeyPrefix = "printdesk:printlink:"

// RedisStore keeps links as JSON values whose Redis TTL matches the link expiry.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	now       func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ""), nil
}

// NewRedisStoreWithClient wraps an existing client. An empty prefix selects the default.
func NewRedisStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, now: time.Now}
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}

// Save writes the link only if no link with the same id exists.
func (s *RedisStore) Save(ctx context.Context, link *model.PrintLink) error {
	ttl := link.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrExpired
	}

	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("encode print link: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(link.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("save print link: %w", err)
	}
	if !ok {
		return fmt.Errorf("save print link: id %s already in use", link.ID)
	}
	return nil
}

// Get reads a link without consuming it.
func (s *RedisStore) Get(ctx context.Context, id string) (*model.PrintLink, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	return s.decode(data, err)
}

// Consume uses GETDEL so the read and the delete happen as one step on the server.
func (s *RedisStore) Consume(ctx context.Context, id string) (*model.PrintLink, error) {
	data, err := s.client.GetDel(ctx, s.key(id)).Bytes()
	return s.decode(data, err)
}

// PingContext checks the Redis connection.
func (s *RedisStore) PingContext(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client connections.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) decode(data []byte, err error) (*model.PrintLink, error) {
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read print link: %w", err)
	}

	var link model.PrintLink
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("decode print link: %w", err)
	}
	// Redis expiry has second granularity on some servers; the link's own expiry wins.
	if link.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return &link, nil
}
