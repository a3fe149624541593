package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const revokedKeyPrefix = "session:revoked:"

// SessionRevocationStore denylists signed-out session tokens by their token
// id. Entries carry a TTL matching the token's remaining lifetime, so the
// denylist cleans itself up.
type SessionRevocationStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewSessionRevocationStore(client *redis.Client, logger *zap.Logger) *SessionRevocationStore {
	return &SessionRevocationStore{
		client: client,
		logger: logger.Named("SessionRevocationStore"),
	}
}

func (s *SessionRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token already past its natural expiry; nothing to deny.
		return nil
	}
	if err := s.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		s.logger.Error("Failed to record session revocation", zap.String("token_id", tokenID), zap.Error(err))
		return fmt.Errorf("redis error revoking session: %w", err)
	}
	s.logger.Info("Session revoked", zap.String("token_id", tokenID))
	return nil
}

func (s *SessionRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		s.logger.Error("Failed to check session revocation", zap.String("token_id", tokenID), zap.Error(err))
		return false, fmt.Errorf("redis error checking session revocation: %w", err)
	}
	return n > 0, nil
}
