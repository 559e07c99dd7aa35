package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"moodtracker/internal/cache"
)

const (
	credentialKeyPrefix     = "credential:"
	userCredentialKeyPrefix = "user_credentials:"
)

// TokenStoreInterface defines the interface for credential storage operations.
type TokenStoreInterface interface {
	StoreToken(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error
	IsTokenActive(ctx context.Context, tokenID string, userID uint) (bool, error)
	RevokeToken(ctx context.Context, tokenID string, userID uint) error
	RevokeAllForUser(ctx context.Context, userID uint) (int, error)
}

// TokenStore tracks issued credentials in Redis. A token is valid only while
// its key exists, so revocation is visible to the next request.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

func credentialKey(tokenID string) string {
	return credentialKeyPrefix + tokenID
}

func userCredentialsKey(userID uint) string {
	return userCredentialKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// StoreToken records a credential and indexes it under its user.
func (s *TokenStore) StoreToken(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	rdb := s.cache.Redis()
	if rdb == nil {
		return fmt.Errorf("store token: redis not configured")
	}

	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, credentialKey(tokenID), strconv.FormatUint(uint64(userID), 10), ttl)
		pipe.SAdd(ctx, userCredentialsKey(userID), tokenID)
		// The index lives as long as the newest credential in it.
		pipe.Expire(ctx, userCredentialsKey(userID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// IsTokenActive reports whether tokenID is stored and belongs to userID.
func (s *TokenStore) IsTokenActive(ctx context.Context, tokenID string, userID uint) (bool, error) {
	rdb := s.cache.Redis()
	if rdb == nil {
		return false, fmt.Errorf("check token: redis not configured")
	}

	owner, err := rdb.Get(ctx, credentialKey(tokenID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token: %w", err)
	}
	return owner == strconv.FormatUint(uint64(userID), 10), nil
}

// RevokeToken removes a single credential.
func (s *TokenStore) RevokeToken(ctx context.Context, tokenID string, userID uint) error {
	rdb := s.cache.Redis()
	if rdb == nil {
		return fmt.Errorf("revoke token: redis not configured")
	}

	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, credentialKey(tokenID))
		pipe.SRem(ctx, userCredentialsKey(userID), tokenID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeAllForUser removes every credential issued to userID and returns how many were live.
func (s *TokenStore) RevokeAllForUser(ctx context.Context, userID uint) (int, error) {
	rdb := s.cache.Redis()
	if rdb == nil {
		return 0, fmt.Errorf("revoke tokens: redis not configured")
	}

	indexKey := userCredentialsKey(userID)
	tokenIDs, err := rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list tokens: %w", err)
	}

	keys := make([]string, 0, len(tokenIDs)+1)
	for _, id := range tokenIDs {
		keys = append(keys, credentialKey(id))
	}
	keys = append(keys, indexKey)

	removed, err := rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("revoke tokens: %w", err)
	}
	// The index key itself is not a credential.
	live := int(removed)
	if live > 0 && len(tokenIDs) > 0 {
		live--
	}
	return live, nil
}
