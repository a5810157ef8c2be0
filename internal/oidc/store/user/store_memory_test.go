package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oidcop/internal/oidc/models"
	"oidcop/pkg/platform/sentinel"
)

func TestUpsertKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	require.NoError(t, store.Upsert(ctx, models.NewUser("alice", map[string][]string{"uid": {"alice"}}, first)))
	require.NoError(t, store.Upsert(ctx, models.NewUser("alice", map[string][]string{"mail": {"a@example.org"}}, later)))

	u, err := store.FindByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first, u.CreatedAt)
	assert.Equal(t, later, u.UpdatedAt)
	assert.Equal(t, map[string][]string{"mail": {"a@example.org"}}, u.Attributes)

	_, err = store.FindByID(ctx, "bob")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFindReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	require.NoError(t, store.Upsert(ctx, models.NewUser("alice", map[string][]string{"uid": {"alice"}}, time.Now())))

	u, err := store.FindByID(ctx, "alice")
	require.NoError(t, err)
	u.Attributes["uid"][0] = "mallory"

	again, err := store.FindByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, again.Attributes["uid"])
}
