package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifefence/internal/util"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

// Store keeps opaque bearer tokens in Redis, keyed token -> user id, expiring
// after ExpiresIn.
type Store struct {
	client     *redis.Client
	tokenBytes int
	expiresIn  time.Duration
}

func NewStore(client *redis.Client, tokenBytes int, expiresIn time.Duration) *Store {
	return &Store{
		client:     client,
		tokenBytes: tokenBytes,
		expiresIn:  expiresIn,
	}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Issue creates a fresh token for the user and persists it with a TTL.
func (s *Store) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := util.RandomToken(s.tokenBytes)
	if err != nil {
		return "", fmt.Errorf("session: failed to generate token: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(token), userID.String(), s.expiresIn).Err(); err != nil {
		return "", fmt.Errorf("session: failed to store token: %w", err)
	}
	return token, nil
}

// Resolve returns the user id the token was issued for, or ErrSessionNotFound
// when the token is unknown or expired.
func (s *Store) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrSessionNotFound
		}
		return uuid.Nil, fmt.Errorf("session: failed to resolve token: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("session: corrupt session value: %w", err)
	}
	return userID, nil
}

func (s *Store) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("session: failed to revoke token: %w", err)
	}
	return nil
}
