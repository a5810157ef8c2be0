package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oidcop/internal/oidc/models"
	dErrors "oidcop/pkg/domain-errors"
	"oidcop/pkg/platform/sentinel"
)

func TestSeededScopes(t *testing.T) {
	store := NewInMemory()
	for _, id := range append(models.ProtectedScopes(), models.ScopeOfflineAccess) {
		sc, err := store.FindByIdentifier(context.Background(), id)
		require.NoError(t, err, id)
		assert.Equal(t, id, sc.Identifier)
	}

	_, err := store.FindByIdentifier(context.Background(), "payments")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRegister(t *testing.T) {
	store := NewInMemory()

	require.NoError(t, store.Register(models.Scope{Identifier: "payments", Claims: []string{"iban"}}))
	sc, err := store.FindByIdentifier(context.Background(), "payments")
	require.NoError(t, err)
	assert.Equal(t, []string{"iban"}, sc.Claims)

	err = store.Register(models.Scope{Identifier: models.ScopeEmail})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	err = store.Register(models.Scope{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestFinalizeScopesKeepsClientScopes(t *testing.T) {
	store := NewInMemory()
	client := &models.Client{ID: "rp-1", Scopes: []string{"openid", "email"}}
	requested := []models.Scope{{Identifier: "openid"}, {Identifier: "email"}, {Identifier: "phone"}}

	got, err := store.FinalizeScopes(context.Background(), requested, models.GrantAuthorizationCode, client, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"openid", "email"}, models.ScopeIdentifiers(got))
}
