package jwttoken

import (
	"crypto/rsa"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	dErrors "oidcop/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://op.example.test"

func newTestService(t *testing.T, opts ...Option) *JWTService {
	t.Helper()
	key, err := GenerateKey(2048)
	require.NoError(t, err)
	return NewJWTService(key, "test-kid", testIssuer, opts...)
}

func Test_GenerateAccessToken(t *testing.T) {
	svc := newTestService(t)
	expiresAt := time.Now().Add(time.Hour)

	token, err := svc.GenerateAccessToken("at-1", "client-1", "alice", []string{"openid", "email"}, expiresAt)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "at-1", claims.ID)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "client-1", claims.ClientID)
	assert.Equal(t, []string{"openid", "email"}, claims.Scopes())
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt.Time, time.Second)
}

func Test_GenerateAccessToken_SetsKeyID(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.GenerateAccessToken("at-1", "client-1", "alice", nil, time.Now().Add(time.Hour))
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, &AccessTokenClaims{})
	require.NoError(t, err)
	assert.Equal(t, "test-kid", parsed.Header["kid"])
	assert.Equal(t, "RS256", parsed.Header["alg"])
}

func Test_ValidateAccessToken_InvalidToken(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ValidateAccessToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateAccessToken_ExpiredToken(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.GenerateAccessToken("at-1", "client-1", "alice", nil, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_ValidateAccessToken_ForeignKey(t *testing.T) {
	issuer := newTestService(t)
	other := newTestService(t)
	token, err := other.GenerateAccessToken("at-1", "client-1", "alice", nil, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = issuer.ValidateAccessToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateAccessToken_RejectsHMAC(t *testing.T) {
	svc := newTestService(t)
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := forged.SignedString([]byte("shared"))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	require.Error(t, err)
}

func Test_ParseIDTokenHint(t *testing.T) {
	svc := newTestService(t)

	t.Run("expired hint is accepted", func(t *testing.T) {
		token, err := svc.Sign(jwt.MapClaims{
			"iss": testIssuer,
			"sub": "alice",
			"azp": "client-1",
			"aud": "client-1",
			"exp": time.Now().Add(-24 * time.Hour).Unix(),
		})
		require.NoError(t, err)

		claims, err := svc.ParseIDTokenHint(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
	})

	t.Run("foreign issuer is rejected", func(t *testing.T) {
		token, err := svc.Sign(jwt.MapClaims{"iss": "https://elsewhere", "sub": "alice", "azp": "client-1"})
		require.NoError(t, err)

		_, err = svc.ParseIDTokenHint(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("access token is rejected", func(t *testing.T) {
		token, err := svc.GenerateAccessToken("at-1", "client-1", "alice", []string{"openid"}, time.Now().Add(time.Hour))
		require.NoError(t, err)

		_, err = svc.ParseIDTokenHint(token)
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "id_token_hint is not an ID token"))
	})

	t.Run("token without authorized party is rejected", func(t *testing.T) {
		token, err := svc.Sign(jwt.RegisteredClaims{Issuer: testIssuer, Subject: "alice"})
		require.NoError(t, err)

		_, err = svc.ParseIDTokenHint(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := svc.ParseIDTokenHint("not.a.jwt")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func Test_LoadPrivateKey(t *testing.T) {
	key, err := GenerateKey(2048)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "signing.pem")
	require.NoError(t, os.WriteFile(path, EncodePrivateKeyPEM(key), 0o600))

	loaded, err := LoadPrivateKey(path)
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	_, err = LoadPrivateKey(filepath.Join(t.TempDir(), "missing.pem"))
	require.Error(t, err)
}

func Test_JWKS(t *testing.T) {
	svc := newTestService(t)
	set := svc.JWKS()

	keys := set.Key("test-kid")
	require.Len(t, keys, 1)
	pub, ok := keys[0].Key.(*rsa.PublicKey)
	require.True(t, ok)
	assert.True(t, svc.PublicKey().Equal(pub))

	raw, err := json.Marshal(set)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kid":"test-kid"`)
	assert.NotContains(t, string(raw), `"d":`)
}
