package jwt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/qy-8/gamechat-app/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// Token status constants
const (
	TokenStatusNormal = 1 // Token is valid
	TokenStatusKicked = 2 // Token was kicked by a newer login
	TokenStatusLogout = 3 // Token was logged out
)

// TokenStore manages issued-token state in Redis so logout and kick take
// effect before the JWT itself expires.
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

// tokenKey generates the Redis key for a user's tokens on a platform
func (s *TokenStore) tokenKey(userId string, platformId int) string {
	return fmt.Sprintf(constant.RedisKeyToken(), userId, platformId)
}

// StoreToken stores a token in Redis with normal status
func (s *TokenStore) StoreToken(ctx context.Context, userId string, platformId int, token string) error {
	if s.rdb == nil {
		return nil
	}
	key := s.tokenKey(userId, platformId)

	// Hash of token -> status, so multiple tokens per user/platform coexist
	if err := s.rdb.HSet(ctx, key, token, TokenStatusNormal).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	if err := s.rdb.Expire(ctx, key, s.accessExpire).Err(); err != nil {
		return fmt.Errorf("failed to set token expiration: %w", err)
	}

	return nil
}

// ValidateTokenStatus checks if a token exists and returns its status (0 if not found)
func (s *TokenStore) ValidateTokenStatus(ctx context.Context, userId string, platformId int, token string) (int, error) {
	if s.rdb == nil {
		return TokenStatusNormal, nil
	}
	key := s.tokenKey(userId, platformId)

	statusStr, err := s.rdb.HGet(ctx, key, token).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get token status: %w", err)
	}

	status, err := strconv.Atoi(statusStr)
	if err != nil {
		return 0, fmt.Errorf("invalid token status value: %w", err)
	}

	return status, nil
}

// IsTokenValid checks if a token exists and has normal status
func (s *TokenStore) IsTokenValid(ctx context.Context, userId string, platformId int, token string) (bool, error) {
	status, err := s.ValidateTokenStatus(ctx, userId, platformId, token)
	if err != nil {
		return false, err
	}
	return status == TokenStatusNormal, nil
}

// InvalidateToken marks a token as logged out
func (s *TokenStore) InvalidateToken(ctx context.Context, userId string, platformId int, token string) error {
	if s.rdb == nil {
		return nil
	}
	key := s.tokenKey(userId, platformId)

	exists, err := s.rdb.HExists(ctx, key, token).Result()
	if err != nil {
		return fmt.Errorf("failed to check token existence: %w", err)
	}
	if !exists {
		return nil
	}

	if err := s.rdb.HSet(ctx, key, token, TokenStatusLogout).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	return nil
}

// KickOtherTokens marks all other tokens for this user/platform as kicked.
// Returns the list of kicked tokens.
func (s *TokenStore) KickOtherTokens(ctx context.Context, userId string, platformId int, currentToken string) ([]string, error) {
	if s.rdb == nil {
		return nil, nil
	}
	key := s.tokenKey(userId, platformId)

	tokens, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}

	var kicked []string
	for token, statusStr := range tokens {
		if token == currentToken {
			continue
		}
		if statusStr != strconv.Itoa(TokenStatusNormal) {
			continue
		}
		if err := s.rdb.HSet(ctx, key, token, TokenStatusKicked).Err(); err != nil {
			return kicked, fmt.Errorf("failed to kick token: %w", err)
		}
		kicked = append(kicked, token)
	}

	return kicked, nil
}

// ForceLogoutUser invalidates all tokens of a user across all platforms
func (s *TokenStore) ForceLogoutUser(ctx context.Context, userId string) error {
	if s.rdb == nil {
		return nil
	}
	pattern := fmt.Sprintf(constant.RedisKeyToken(), userId, 0)
	// token:{userId}:{platformId} — replace the trailing platform id with a wildcard
	pattern = pattern[:len(pattern)-1] + "*"

	iter := s.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete token key: %w", err)
		}
	}
	return iter.Err()
}
