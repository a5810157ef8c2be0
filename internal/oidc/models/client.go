package models

import (
	"slices"
	"time"

	dErrors "oidcop/pkg/domain-errors"
)

// Client is a registered relying party.
//
// Invariants:
//   - ID is non-empty
//   - at least one redirect URI is registered
//   - confidential clients carry a secret hash
type Client struct {
	ID           string
	SecretHash   string
	Name         string
	Description  string
	RedirectURIs []string
	Scopes       []string
	Enabled      bool
	Confidential bool
	CreatedAt    time.Time
}

func NewClient(id, name, secretHash string, redirectURIs, scopes []string, confidential bool, now time.Time) (*Client, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client id cannot be empty")
	}
	if len(redirectURIs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client must register at least one redirect uri")
	}
	if confidential && secretHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "confidential client requires a secret")
	}
	return &Client{
		ID:           id,
		SecretHash:   secretHash,
		Name:         name,
		RedirectURIs: slices.Clone(redirectURIs),
		Scopes:       slices.Clone(scopes),
		Enabled:      true,
		Confidential: confidential,
		CreatedAt:    now,
	}, nil
}

func (c *Client) IsConfidential() bool {
	return c.Confidential
}

// HasRedirectURI compares byte for byte. No normalization is applied.
func (c *Client) HasRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}

func (c *Client) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}
