package pkce

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 7636 appendix B.
const (
	rfcVerifier  = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	rfcChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

func TestS256Challenge(t *testing.T) {
	assert.Equal(t, rfcChallenge, S256Challenge(rfcVerifier))
}

func TestRegistryVerifiers(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []string{MethodS256, MethodPlain}, reg.Methods())

	s256, ok := reg.Get(MethodS256)
	require.True(t, ok)
	assert.True(t, s256.Verify(rfcVerifier, rfcChallenge))
	assert.False(t, s256.Verify(rfcVerifier, rfcVerifier))

	plain, ok := reg.Get(MethodPlain)
	require.True(t, ok)
	assert.True(t, plain.Verify(rfcVerifier, rfcVerifier))
	assert.False(t, plain.Verify(rfcVerifier, rfcChallenge))

	_, ok = reg.Get("S512")
	assert.False(t, ok)
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat(rfcChallenge))
	assert.True(t, ValidFormat(strings.Repeat("a", 43)))
	assert.True(t, ValidFormat(strings.Repeat("~", 128)))
	assert.False(t, ValidFormat(strings.Repeat("a", 42)))
	assert.False(t, ValidFormat(strings.Repeat("a", 129)))
	assert.False(t, ValidFormat("E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw+cM"))
	assert.False(t, ValidFormat(""))
}
