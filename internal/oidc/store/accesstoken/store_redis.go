package accesstoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"oidcop/internal/oidc/models"
	"oidcop/pkg/platform/sentinel"
)

const (
	tokenKeyPrefix = "oidc:at:"
	codeKeyPrefix  = "oidc:at:code:"
)

// revokeIfPresent avoids recreating a hash that already expired.
var revokeIfPresent = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('HSET', KEYS[1], 'is_revoked', '1')
	return 1
end
return 0
`)

// RedisStore keeps each token as a hash of its state that expires with the
// token. Tokens issued from an authorization code are indexed in a set per
// code so a replayed code can revoke them.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func tokenKey(id string) string { return tokenKeyPrefix + id }

func codeKey(id string) string { return codeKeyPrefix + id }

func (s *RedisStore) PersistNew(ctx context.Context, token *models.AccessToken) error {
	key := tokenKey(token.ID)
	created, err := s.client.HSetNX(ctx, key, "id", token.ID).Result()
	if err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if !created {
		return fmt.Errorf("access token %s: %w", token.ID, sentinel.ErrConflict)
	}

	fields := make(map[string]any, len(token.State()))
	for k, v := range token.State() {
		fields[k] = v
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.ExpireAt(ctx, key, token.ExpiresAt)
	if token.AuthCodeID != "" {
		pipe.SAdd(ctx, codeKey(token.AuthCodeID), token.ID)
		// the index only has to outlive the longest token issued from the code
		pipe.ExpireGT(ctx, codeKey(token.AuthCodeID), time.Until(token.ExpiresAt))
		pipe.ExpireNX(ctx, codeKey(token.AuthCodeID), time.Until(token.ExpiresAt))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (*models.AccessToken, error) {
	fields, err := s.client.HGetAll(ctx, tokenKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("find access token: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("access token not found: %w", sentinel.ErrNotFound)
	}
	state := make(models.State, len(fields))
	for k, v := range fields {
		state[k] = v
	}
	return models.AccessTokenFromState(state)
}

func (s *RedisStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	raw, err := s.client.HGet(ctx, tokenKey(id), "is_revoked").Result()
	if errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("access token not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("check access token: %w", err)
	}
	return raw == "1" || raw == "true", nil
}

func (s *RedisStore) Revoke(ctx context.Context, id string) error {
	n, err := revokeIfPresent.Run(ctx, s.client, []string{tokenKey(id)}).Int()
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("access token not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *RedisStore) RevokeByAuthCodeID(ctx context.Context, authCodeID string) error {
	if authCodeID == "" {
		return nil
	}
	ids, err := s.client.SMembers(ctx, codeKey(authCodeID)).Result()
	if err != nil {
		return fmt.Errorf("revoke access tokens by code: %w", err)
	}
	for _, id := range ids {
		if err := revokeIfPresent.Run(ctx, s.client, []string{tokenKey(id)}).Err(); err != nil {
			return fmt.Errorf("revoke access token %s: %w", id, err)
		}
	}
	return nil
}
