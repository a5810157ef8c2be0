package authcode

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
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

func (s *InMemoryStoreSuite) newCode(id string) *models.AuthCode {
	code, err := models.NewAuthCode(id, "rp-1", "alice", []string{"openid", "email"}, "https://rp.example/cb", "n-1", s.now.Add(10*time.Minute), s.now)
	s.Require().NoError(err)
	return code
}

func (s *InMemoryStoreSuite) TestPersistAndFind() {
	ctx := context.Background()
	code := s.newCode("code-1")
	s.Require().NoError(s.store.PersistNew(ctx, code))

	found, err := s.store.FindByID(ctx, "code-1")
	s.Require().NoError(err)
	s.Equal(code.ClientID, found.ClientID)
	s.Equal(code.UserID, found.UserID)
	s.Equal(code.Scopes, found.Scopes)
	s.Equal(code.RedirectURI, found.RedirectURI)
	s.Equal(code.Nonce, found.Nonce)
	s.True(code.ExpiresAt.Equal(found.ExpiresAt))
	s.False(found.Revoked)
}

func (s *InMemoryStoreSuite) TestDuplicateIDConflicts() {
	ctx := context.Background()
	s.Require().NoError(s.store.PersistNew(ctx, s.newCode("code-1")))
	err := s.store.PersistNew(ctx, s.newCode("code-1"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestUnknownCode() {
	ctx := context.Background()
	_, err := s.store.FindByID(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.IsRevoked(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Revoke(ctx, "missing"), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestRevoke() {
	ctx := context.Background()
	s.Require().NoError(s.store.PersistNew(ctx, s.newCode("code-1")))

	s.Run("first revoke wins", func() {
		s.Require().NoError(s.store.Revoke(ctx, "code-1"))
		revoked, err := s.store.IsRevoked(ctx, "code-1")
		s.Require().NoError(err)
		s.True(revoked)
	})

	s.Run("second revoke reports reuse", func() {
		s.ErrorIs(s.store.Revoke(ctx, "code-1"), sentinel.ErrAlreadyUsed)
	})
}

func (s *InMemoryStoreSuite) TestConcurrentRevokeHasOneWinner() {
	ctx := context.Background()
	s.Require().NoError(s.store.PersistNew(ctx, s.newCode("code-1")))

	var (
		wg       sync.WaitGroup
		winners  atomic.Int32
		rejected atomic.Int32
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.Revoke(ctx, "code-1"); err == nil {
				winners.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyUsed) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), winners.Load())
	s.Equal(int32(31), rejected.Load())
}
