//go:build integration

package refreshtoken_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/store/refreshtoken"
	"oidcop/pkg/platform/sentinel"
	"oidcop/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *refreshtoken.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = refreshtoken.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "oidc_refresh_tokens"))
}

func (s *PostgresStoreSuite) newToken(authCodeID string) *models.RefreshToken {
	now := time.Now()
	token, err := models.NewRefreshToken(uuid.NewString(), uuid.NewString(), now.Add(24*time.Hour), now)
	s.Require().NoError(err)
	token.AuthCodeID = authCodeID
	return token
}

func (s *PostgresStoreSuite) TestRotation() {
	ctx := context.Background()
	token := s.newToken("code-1")
	s.Require().NoError(s.store.PersistNew(ctx, token))

	found, err := s.store.FindByID(ctx, token.ID)
	s.Require().NoError(err)
	s.Equal(token.AccessTokenID, found.AccessTokenID)
	s.Equal("code-1", found.AuthCodeID)

	s.Require().NoError(s.store.Revoke(ctx, token.ID))
	s.ErrorIs(s.store.Revoke(ctx, token.ID), sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestRevokeByAuthCodeID() {
	ctx := context.Background()
	a, b := s.newToken("code-1"), s.newToken("code-2")
	s.Require().NoError(s.store.PersistNew(ctx, a))
	s.Require().NoError(s.store.PersistNew(ctx, b))

	s.Require().NoError(s.store.RevokeByAuthCodeID(ctx, "code-1"))

	revoked, err := s.store.IsRevoked(ctx, a.ID)
	s.Require().NoError(err)
	s.True(revoked)
	revoked, err = s.store.IsRevoked(ctx, b.ID)
	s.Require().NoError(err)
	s.False(revoked)
}
