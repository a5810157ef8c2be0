package jwttoken

import (
	"crypto/rsa"
	"errors"
	"strings"
	"time"

	dErrors "oidcop/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims are the claims of the bearer access tokens handed to
// clients. The JWT ID is the access token identifier held by the repository.
type AccessTokenClaims struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Scopes splits the space-delimited scope claim.
func (c *AccessTokenClaims) Scopes() []string {
	return strings.Fields(c.Scope)
}

// JWTService signs access and ID tokens with the provider's RSA key.
type JWTService struct {
	key    *rsa.PrivateKey
	keyID  string
	issuer string
	now    func() time.Time
}

type Option func(*JWTService)

// WithNow overrides the clock used for iat and validation.
func WithNow(now func() time.Time) Option {
	return func(s *JWTService) { s.now = now }
}

func NewJWTService(key *rsa.PrivateKey, keyID, issuer string, opts ...Option) *JWTService {
	s := &JWTService{
		key:    key,
		keyID:  keyID,
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *JWTService) Issuer() string { return s.issuer }

func (s *JWTService) KeyID() string { return s.keyID }

func (s *JWTService) PublicKey() *rsa.PublicKey { return &s.key.PublicKey }

// Sign signs arbitrary claims with RS256 and the configured key id.
func (s *JWTService) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyID
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

func (s *JWTService) GenerateAccessToken(tokenID, clientID, userID string, scopes []string, expiresAt time.Time) (string, error) {
	now := s.now()
	return s.Sign(AccessTokenClaims{
		ClientID: clientID,
		Scope:    strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{clientID},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	})
}

func (s *JWTService) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &s.key.PublicKey, nil
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*AccessTokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, s.keyFunc,
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// idTokenHintClaims separates ID tokens, which always name their authorized
// party, from access tokens signed with the same key.
type idTokenHintClaims struct {
	AuthorizedParty string `json:"azp"`
	ClientID        string `json:"client_id"`
	jwt.RegisteredClaims
}

// ParseIDTokenHint verifies an id_token_hint and returns its claims. The hint
// is typically an expired ID token, so only the signature, the issuer and the
// token shape are checked.
func (s *JWTService) ParseIDTokenHint(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &idTokenHintClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithoutClaimsValidation(),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid id_token_hint")
	}
	if claims.Issuer != s.issuer {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "id_token_hint issued by another provider")
	}
	if claims.ClientID != "" || claims.AuthorizedParty == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "id_token_hint is not an ID token")
	}
	if claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "id_token_hint has no subject")
	}
	return &claims.RegisteredClaims, nil
}
