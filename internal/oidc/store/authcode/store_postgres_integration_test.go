//go:build integration

package authcode_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/store/authcode"
	"oidcop/pkg/platform/sentinel"
	"oidcop/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *authcode.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = authcode.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "oidc_auth_codes"))
}

func (s *PostgresStoreSuite) newCode() *models.AuthCode {
	now := time.Now()
	code, err := models.NewAuthCode(uuid.NewString(), "rp-1", "alice", []string{"openid", "email"}, "https://rp.example/cb", "n-1", now.Add(10*time.Minute), now)
	s.Require().NoError(err)
	return code
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	code := s.newCode()
	s.Require().NoError(s.store.PersistNew(ctx, code))

	found, err := s.store.FindByID(ctx, code.ID)
	s.Require().NoError(err)
	s.Equal(code.Scopes, found.Scopes)
	s.Equal(code.RedirectURI, found.RedirectURI)
	s.True(code.ExpiresAt.Equal(found.ExpiresAt))

	s.ErrorIs(s.store.PersistNew(ctx, code), sentinel.ErrConflict)
	_, err = s.store.FindByID(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Revoke(ctx, "missing"), sentinel.ErrNotFound)
}

// TestConcurrentRevoke verifies that parallel redemptions of one code produce
// exactly one successful revoke.
func (s *PostgresStoreSuite) TestConcurrentRevoke() {
	ctx := context.Background()
	code := s.newCode()
	s.Require().NoError(s.store.PersistNew(ctx, code))

	const goroutines = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		reused    atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Revoke(ctx, code.ID)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				reused.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), reused.Load())
}
