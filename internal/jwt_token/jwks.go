package jwttoken

import (
	jose "gopkg.in/square/go-jose.v2"
)

// JWKS returns the public signing key as a JSON Web Key Set.
func (s *JWTService) JWKS() jose.JSONWebKeySet {
	return jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       s.PublicKey(),
		KeyID:     s.keyID,
		Algorithm: string(jose.RS256),
		Use:       "sig",
	}}}
}
