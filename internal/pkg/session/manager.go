// internal/pkg/session/manager.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Manager keeps the list of revoked access tokens in Redis. Entries expire with
// the token they revoke, so the list never outgrows the set of live tokens.
type Manager struct {
	client *redis.Client
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

// IsTokenBlacklisted checks if a token is blacklisted
func (m *Manager) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	exists, err := m.client.Exists(ctx, m.blacklistKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists > 0, nil
}

// BlacklistToken adds a token to the blacklist until expiresAt.
func (m *Manager) BlacklistToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := m.client.Set(ctx, m.blacklistKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

func (m *Manager) blacklistKey(tokenID string) string {
	return fmt.Sprintf("blacklist:%s", tokenID)
}
