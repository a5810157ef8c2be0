// Package pkce implements RFC 7636 code challenge verification.
package pkce

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"maps"
	"regexp"
	"slices"
)

const (
	MethodPlain = "plain"
	MethodS256  = "S256"
)

// formatPattern is the RFC 7636 §4.1/§4.2 grammar shared by verifiers and challenges.
var formatPattern = regexp.MustCompile(`^[A-Za-z0-9\-._~]{43,128}$`)

// ValidFormat reports whether s is a syntactically valid code verifier or challenge.
func ValidFormat(s string) bool {
	return formatPattern.MatchString(s)
}

// Verifier checks a code_verifier against the stored code_challenge.
type Verifier interface {
	Method() string
	Verify(codeVerifier, codeChallenge string) bool
}

type plainVerifier struct{}

func (plainVerifier) Method() string { return MethodPlain }

func (plainVerifier) Verify(codeVerifier, codeChallenge string) bool {
	return subtle.ConstantTimeCompare([]byte(codeVerifier), []byte(codeChallenge)) == 1
}

type s256Verifier struct{}

func (s256Verifier) Method() string { return MethodS256 }

func (s256Verifier) Verify(codeVerifier, codeChallenge string) bool {
	return subtle.ConstantTimeCompare([]byte(S256Challenge(codeVerifier)), []byte(codeChallenge)) == 1
}

// S256Challenge derives the S256 code challenge for a verifier.
func S256Challenge(codeVerifier string) string {
	sum := sha256.Sum256([]byte(codeVerifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Registry holds the verifiers the server accepts, keyed by method.
type Registry struct {
	verifiers map[string]Verifier
}

// NewRegistry returns a registry with plain and S256.
func NewRegistry() *Registry {
	return NewRegistryWith(plainVerifier{}, s256Verifier{})
}

func NewRegistryWith(verifiers ...Verifier) *Registry {
	r := &Registry{verifiers: make(map[string]Verifier, len(verifiers))}
	for _, v := range verifiers {
		r.verifiers[v.Method()] = v
	}
	return r
}

func (r *Registry) Get(method string) (Verifier, bool) {
	v, ok := r.verifiers[method]
	return v, ok
}

// Methods returns the registered methods, sorted.
func (r *Registry) Methods() []string {
	return slices.Sorted(maps.Keys(r.verifiers))
}
