// Package idtoken assembles and signs OpenID Connect ID tokens.
package idtoken

import (
	"crypto/sha256"
	"encoding/base64"
	"slices"
	"time"

	"oidcop/internal/oidc/claims"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Signer signs a claim set for the provider's issuer.
type Signer interface {
	Issuer() string
	Sign(claims jwt.Claims) (string, error)
}

// Params describe one ID token. Claims are released user claims; they never
// override the registered claims set by the builder.
type Params struct {
	ClientID    string
	Subject     string
	Nonce       string
	ACR         string
	AuthTime    time.Time
	AccessToken string
	Claims      map[string]any
}

type Builder struct {
	signer Signer
	ttl    time.Duration
	now    func() time.Time
}

func NewBuilder(signer Signer, ttl time.Duration, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{signer: signer, ttl: ttl, now: now}
}

func (b *Builder) Build(p Params) (string, error) {
	now := b.now()
	mc := jwt.MapClaims{}
	for k, v := range p.Claims {
		if !slices.Contains(claims.RegisteredClaims, k) {
			mc[k] = v
		}
	}
	mc["iss"] = b.signer.Issuer()
	mc["sub"] = p.Subject
	mc["aud"] = []string{p.ClientID}
	mc["azp"] = p.ClientID
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(b.ttl).Unix()
	mc["jti"] = uuid.NewString()
	if p.Nonce != "" {
		mc["nonce"] = p.Nonce
	}
	if !p.AuthTime.IsZero() {
		mc["auth_time"] = p.AuthTime.Unix()
	}
	if p.ACR != "" {
		mc["acr"] = p.ACR
	}
	if p.AccessToken != "" {
		mc["at_hash"] = AccessTokenHash(p.AccessToken)
	}
	return b.signer.Sign(mc)
}

// AccessTokenHash is the at_hash value for an RS256 signed ID token: the left
// half of the SHA-256 digest, base64url encoded without padding.
func AccessTokenHash(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return base64.RawURLEncoding.EncodeToString(sum[:len(sum)/2])
}
