package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wikinews-agent/internal/storage"
)

// Store implements storage.Store on plain Redis GET/SET
type Store struct {
	client *redis.Client
	prefix string
}

var _ storage.Store = (*Store)(nil)

// New connects to the Redis server described by a redis:// URL
func New(url, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClient(client, prefix), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Get reads the prefixed key and decodes it into dest
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := storage.Decode(key, data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set writes value under the prefixed key without expiry
func (s *Store) Set(ctx context.Context, key string, value any) error {
	data, err := storage.Encode(key, value)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Migrate is a no-op; Redis has no schema
func (s *Store) Migrate() error { return nil }

// Close closes the client connection
func (s *Store) Close() error {
	return s.client.Close()
}
