//go:build integration

package accesstoken_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/ports"
	"oidcop/internal/oidc/store/accesstoken"
	"oidcop/pkg/platform/sentinel"
	"oidcop/pkg/testutil/containers"
)

// StoreSuite runs the same behaviour against the Redis and Postgres stores.
type StoreSuite struct {
	suite.Suite
	store ports.AccessTokenRepository
	reset func(context.Context) error
}

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	suite.Run(t, &StoreSuite{store: accesstoken.NewRedis(rc.Client), reset: rc.FlushAll})
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)
	suite.Run(t, &StoreSuite{
		store: accesstoken.NewPostgres(pg.Pool),
		reset: func(ctx context.Context) error { return pg.TruncateTables(ctx, "oidc_access_tokens") },
	})
}

func (s *StoreSuite) SetupTest() {
	s.Require().NoError(s.reset(context.Background()))
}

func (s *StoreSuite) newToken(authCodeID string, ttl time.Duration) *models.AccessToken {
	now := time.Now()
	token, err := models.NewAccessToken(uuid.NewString(), "rp-1", "alice", []string{"openid", "email"}, now.Add(ttl), now)
	s.Require().NoError(err)
	token.AuthCodeID = authCodeID
	return token
}

func (s *StoreSuite) TestRoundTrip() {
	ctx := context.Background()
	token := s.newToken("code-1", time.Hour)
	token.RequestedClaims = &models.ClaimsRequest{UserInfo: map[string]*models.ClaimRequest{"email": {Essential: true}}}
	s.Require().NoError(s.store.PersistNew(ctx, token))

	found, err := s.store.FindByID(ctx, token.ID)
	s.Require().NoError(err)
	s.Equal(token.ClientID, found.ClientID)
	s.Equal(token.Scopes, found.Scopes)
	s.Equal("code-1", found.AuthCodeID)
	s.True(token.ExpiresAt.Equal(found.ExpiresAt))
	s.Require().NotNil(found.RequestedClaims)
	s.True(found.RequestedClaims.UserInfo["email"].Essential)
	s.False(found.Revoked)

	s.ErrorIs(s.store.PersistNew(ctx, token), sentinel.ErrConflict)
}

func (s *StoreSuite) TestRevoke() {
	ctx := context.Background()
	token := s.newToken("", time.Hour)
	s.Require().NoError(s.store.PersistNew(ctx, token))

	s.Require().NoError(s.store.Revoke(ctx, token.ID))
	s.Require().NoError(s.store.Revoke(ctx, token.ID))
	revoked, err := s.store.IsRevoked(ctx, token.ID)
	s.Require().NoError(err)
	s.True(revoked)

	s.ErrorIs(s.store.Revoke(ctx, "missing"), sentinel.ErrNotFound)
	_, err = s.store.IsRevoked(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestRevokeByAuthCodeID() {
	ctx := context.Background()
	a, b, other := s.newToken("code-1", time.Hour), s.newToken("code-1", 2*time.Hour), s.newToken("code-2", time.Hour)
	for _, t := range []*models.AccessToken{a, b, other} {
		s.Require().NoError(s.store.PersistNew(ctx, t))
	}

	s.Require().NoError(s.store.RevokeByAuthCodeID(ctx, "code-1"))

	for _, tc := range []struct {
		id   string
		want bool
	}{{a.ID, true}, {b.ID, true}, {other.ID, false}} {
		revoked, err := s.store.IsRevoked(ctx, tc.id)
		s.Require().NoError(err)
		s.Equal(tc.want, revoked)
	}
}
