package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eppdetect/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisMirror stores the last verdict as JSON under a single key so other
// instances and report consumers can read it.
type RedisMirror struct {
	client *redis.Client
	key    string
}

// Connect opens a Redis client and checks it with a ping.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          0,
		DialTimeout: 5 * time.Second,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisMirror creates a mirror writing to key.
func NewRedisMirror(client *redis.Client, key string) *RedisMirror {
	return &RedisMirror{client: client, key: key}
}

// Store implements Mirror.
func (m *RedisMirror) Store(ctx context.Context, verdict model.ComplianceVerdict) error {
	data, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}
	if err := m.client.Set(ctx, m.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store verdict: %w", err)
	}
	return nil
}

// Load implements Mirror.
func (m *RedisMirror) Load(ctx context.Context) (model.ComplianceVerdict, bool, error) {
	var verdict model.ComplianceVerdict

	data, err := m.client.Get(ctx, m.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return verdict, false, nil
	}
	if err != nil {
		return verdict, false, fmt.Errorf("failed to load verdict: %w", err)
	}
	if err := json.Unmarshal(data, &verdict); err != nil {
		return verdict, false, fmt.Errorf("failed to decode verdict: %w", err)
	}
	return verdict, true, nil
}

// Clear removes the stored verdict.
func (m *RedisMirror) Clear(ctx context.Context) error {
	return m.client.Del(ctx, m.key).Err()
}
