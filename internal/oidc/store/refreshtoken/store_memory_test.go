package refreshtoken

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"oidcop/internal/oidc/models"
	"oidcop/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.now = time.Now()
}

func (s *InMemoryStoreSuite) newToken(id, authCodeID string) *models.RefreshToken {
	token, err := models.NewRefreshToken(id, "at-"+id, s.now.Add(24*time.Hour), s.now)
	s.Require().NoError(err)
	token.AuthCodeID = authCodeID
	return token
}

func (s *InMemoryStoreSuite) TestPersistAndFind() {
	ctx := context.Background()
	s.Require().NoError(s.store.PersistNew(ctx, s.newToken("rt-1", "code-1")))

	found, err := s.store.FindByID(ctx, "rt-1")
	s.Require().NoError(err)
	s.Equal("at-rt-1", found.AccessTokenID)
	s.Equal("code-1", found.AuthCodeID)
	s.False(found.Revoked)

	s.ErrorIs(s.store.PersistNew(ctx, s.newToken("rt-1", "")), sentinel.ErrConflict)
	_, err = s.store.FindByID(ctx, "rt-404")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestRevokeRotatesOnce() {
	ctx := context.Background()
	s.Require().NoError(s.store.PersistNew(ctx, s.newToken("rt-1", "")))

	s.Require().NoError(s.store.Revoke(ctx, "rt-1"))
	s.ErrorIs(s.store.Revoke(ctx, "rt-1"), sentinel.ErrAlreadyUsed)

	revoked, err := s.store.IsRevoked(ctx, "rt-1")
	s.Require().NoError(err)
	s.True(revoked)
}

func (s *InMemoryStoreSuite) TestRevokeByAuthCodeID() {
	ctx := context.Background()
	s.Require().NoError(s.store.PersistNew(ctx, s.newToken("rt-1", "code-1")))
	s.Require().NoError(s.store.PersistNew(ctx, s.newToken("rt-2", "code-2")))

	s.Require().NoError(s.store.RevokeByAuthCodeID(ctx, "code-1"))

	revoked, err := s.store.IsRevoked(ctx, "rt-1")
	s.Require().NoError(err)
	s.True(revoked)
	revoked, err = s.store.IsRevoked(ctx, "rt-2")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *InMemoryStoreSuite) TestConcurrentFindAndRevoke() {
	ctx := context.Background()
	s.Require().NoError(s.store.PersistNew(ctx, s.newToken("rt-1", "code-1")))

	var wg sync.WaitGroup
	for range 200 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.store.FindByID(ctx, "rt-1")
			s.NoError(err)
		}()
		go func() {
			defer wg.Done()
			s.NoError(s.store.RevokeByAuthCodeID(ctx, "code-1"))
		}()
	}
	wg.Wait()

	revoked, err := s.store.IsRevoked(ctx, "rt-1")
	s.Require().NoError(err)
	s.True(revoked)
}
