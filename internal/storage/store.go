package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store is a key-value persistence collaborator. Values are JSON encoded.
type Store interface {
	// Get decodes the value stored under key into dest.
	// It reports false with a nil error when the key is absent.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set encodes value and stores it under key, replacing any previous value
	Set(ctx context.Context, key string, value any) error

	// Maintenance
	Close() error
	Migrate() error
}

// Encode marshals a value for storage
func Encode(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return data, nil
}

// Decode unmarshals a stored value into dest
func Decode(key string, data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}
