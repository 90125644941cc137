package jwt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/flowgrid/flowgrid/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// Token status constants
const (
	TokenStatusNormal = 1 // Token is valid
	TokenStatusKicked = 2 // Token was kicked by new login
	TokenStatusLogout = 4 // Token was logged out
)

// TokenStore manages issued tokens in Redis, keyed by identity key
// ("{type}:{id}"). Each identity holds a hash of token -> status so a
// new login can invalidate older sessions.
type TokenStore struct {
	rdb          *redis.Client
	accessExpire time.Duration
}

// NewTokenStore creates a new TokenStore
func NewTokenStore(rdb *redis.Client, expireHours int) *TokenStore {
	return &TokenStore{
		rdb:          rdb,
		accessExpire: time.Duration(expireHours) * time.Hour,
	}
}

func (s *TokenStore) key(identityKey string) string {
	return fmt.Sprintf(constant.RedisKeyToken(), identityKey)
}

// StoreToken records a freshly issued token as valid
func (s *TokenStore) StoreToken(ctx context.Context, identityKey, token string) error {
	key := s.key(identityKey)
	if err := s.rdb.HSet(ctx, key, token, TokenStatusNormal).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, key, s.accessExpire).Err()
}

// IsTokenValid reports whether a token is still active for the identity
func (s *TokenStore) IsTokenValid(ctx context.Context, identityKey, token string) (bool, error) {
	status, err := s.rdb.HGet(ctx, s.key(identityKey), token).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	v, err := strconv.Atoi(status)
	if err != nil {
		return false, nil
	}
	return v == TokenStatusNormal, nil
}

// InvalidateToken marks a token as logged out
func (s *TokenStore) InvalidateToken(ctx context.Context, identityKey, token string) error {
	return s.rdb.HSet(ctx, s.key(identityKey), token, TokenStatusLogout).Err()
}

// KickOtherTokens marks every token except keep as kicked and returns the
// kicked tokens
func (s *TokenStore) KickOtherTokens(ctx context.Context, identityKey, keep string) ([]string, error) {
	key := s.key(identityKey)
	tokens, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var kicked []string
	for token, status := range tokens {
		if token == keep {
			continue
		}
		if status != strconv.Itoa(TokenStatusNormal) {
			continue
		}
		if err := s.rdb.HSet(ctx, key, token, TokenStatusKicked).Err(); err != nil {
			return kicked, err
		}
		kicked = append(kicked, token)
	}
	return kicked, nil
}

// ForceLogout invalidates every token for an identity
func (s *TokenStore) ForceLogout(ctx context.Context, identityKey string) error {
	return s.rdb.Del(ctx, s.key(identityKey)).Err()
}
