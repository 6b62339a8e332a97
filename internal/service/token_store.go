package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenStore keeps a denylist of revoked JWTs in Redis so logout takes
// effect before the token expires. Only a hash of the token is stored.
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "revoked:" + hex.EncodeToString(sum[:])
}

// Revoke denylists the token until its natural expiry.
func (s *TokenStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, tokenKey(token), "1", ttl).Err()
}

// IsRevoked fails open on Redis errors: an unreachable denylist should not
// lock every user out.
func (s *TokenStore) IsRevoked(ctx context.Context, token string) bool {
	n, err := s.client.Exists(ctx, tokenKey(token)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
