// Package guestcart persists anonymous carts outside the shared backend
// store, keyed by the opaque session token the client holds. Each value is a
// single JSON blob of items plus one expiry timestamp; anything expired or
// malformed reads as an empty cart.
package guestcart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glowsalon/booking-backend/internal/models"
)

const keyPrefix = "guest_cart:"

type Store struct {
	client *redis.Client
}

func New(addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client, used by tests.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

type storedCart struct {
	Items     []models.CartItem `json:"items"`
	ExpiresAt time.Time         `json:"expires_at"`
}

func key(token string) string {
	return keyPrefix + token
}

// Load returns the stored items and their expiry stamp. An absent key yields
// an empty cart; a malformed value is deleted and also yields an empty cart.
// Expiry enforcement against a caller clock is left to the caller.
func (s *Store) Load(ctx context.Context, token string) ([]models.CartItem, time.Time, error) {
	raw, err := s.client.Get(ctx, key(token)).Bytes()
	if err == redis.Nil {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}

	var cart storedCart
	if err := json.Unmarshal(raw, &cart); err != nil {
		_ = s.client.Del(ctx, key(token)).Err()
		return nil, time.Time{}, nil
	}
	return cart.Items, cart.ExpiresAt, nil
}

func (s *Store) Save(ctx context.Context, token string, items []models.CartItem, expiresAt time.Time) error {
	raw, err := json.Marshal(storedCart{Items: items, ExpiresAt: expiresAt})
	if err != nil {
		return fmt.Errorf("marshal guest cart: %w", err)
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, token)
	}
	return s.client.Set(ctx, key(token), raw, ttl).Err()
}

func (s *Store) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, key(token)).Err()
}
