package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKey = "catalog:token"

// ErrTokenNotFound is returned when no catalog token has been cached yet.
var ErrTokenNotFound = errors.New("redis: catalog token not found")

type TokenInfo struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenStore mirrors the process-wide catalog token to Redis so a restart
// (or a sibling instance) can reuse a still-valid token instead of hitting
// the token endpoint again.
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// Store caches the token until its expiry.
func (s *TokenStore) Store(ctx context.Context, token *TokenInfo) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := s.client.Set(ctx, tokenKey, tokenJSON, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Get retrieves the cached token, or ErrTokenNotFound when absent/expired.
func (s *TokenStore) Get(ctx context.Context) (*TokenInfo, error) {
	tokenJSON, err := s.client.Get(ctx, tokenKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	var token TokenInfo
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

// Delete drops the cached token, forcing the next read to refresh.
func (s *TokenStore) Delete(ctx context.Context) error {
	return s.client.Del(ctx, tokenKey).Err()
}
