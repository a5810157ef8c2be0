package server_test

import (
	"crypto/rsa"

	"github.com/golang-jwt/jwt/v5"

	jwttoken "oidcop/internal/jwt_token"
	"oidcop/internal/oidc/claims"
)

// jwttokenID reads the jti of a bearer without verifying it.
func jwttokenID(bearer string) (string, error) {
	var c jwttoken.AccessTokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(bearer, &c); err != nil {
		return "", err
	}
	return c.ID, nil
}

func mustKey(s *ServerSuite) *rsa.PrivateKey {
	key, err := jwttoken.GenerateKey(2048)
	s.Require().NoError(err)
	return key
}

func mustClaims(s *ServerSuite) *claims.TranslatorExtractor {
	c, err := claims.New("")
	s.Require().NoError(err)
	return c
}
