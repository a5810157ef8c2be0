package models

import (
	"fmt"
	"slices"
	"time"

	dErrors "oidcop/pkg/domain-errors"
)

type AccessToken struct {
	ID              string
	ClientID        string
	UserID          string
	Scopes          []string
	ExpiresAt       time.Time
	Revoked         bool
	AuthCodeID      string
	RequestedClaims *ClaimsRequest
}

func NewAccessToken(id, clientID, userID string, scopes []string, expiresAt, now time.Time) (*AccessToken, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "access token id cannot be empty")
	}
	if clientID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "access token client id cannot be empty")
	}
	if !expiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "access token must expire in the future")
	}
	return &AccessToken{
		ID:        id,
		ClientID:  clientID,
		UserID:    userID,
		Scopes:    slices.Clone(scopes),
		ExpiresAt: expiresAt.UTC().Truncate(time.Second),
	}, nil
}

func (t *AccessToken) Revoke() { t.Revoked = true }

func (t *AccessToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *AccessToken) State() State {
	claims := ""
	if !t.RequestedClaims.IsEmpty() {
		claims = encodeJSON(t.RequestedClaims)
	}
	return State{
		"id":               t.ID,
		"scopes":           encodeJSON(nonNil(t.Scopes)),
		"expires_at":       formatStateTime(t.ExpiresAt),
		"user_id":          t.UserID,
		"client_id":        t.ClientID,
		"is_revoked":       t.Revoked,
		"auth_code_id":     t.AuthCodeID,
		"requested_claims": claims,
	}
}

func AccessTokenFromState(s State) (*AccessToken, error) {
	var (
		t   AccessToken
		err error
	)
	if t.ID, err = s.str("id", true); err != nil {
		return nil, err
	}
	if t.ClientID, err = s.str("client_id", true); err != nil {
		return nil, err
	}
	if t.UserID, err = s.str("user_id", false); err != nil {
		return nil, err
	}
	if t.Scopes, err = s.stringList("scopes"); err != nil {
		return nil, err
	}
	if t.ExpiresAt, err = s.time("expires_at"); err != nil {
		return nil, err
	}
	if t.Revoked, err = s.boolean("is_revoked"); err != nil {
		return nil, err
	}
	if t.AuthCodeID, err = s.str("auth_code_id", false); err != nil {
		return nil, err
	}
	raw, err := s.str("requested_claims", false)
	if err != nil {
		return nil, err
	}
	if t.RequestedClaims, err = ParseClaimsRequest(raw); err != nil {
		return nil, fmt.Errorf("state: %q: %w", "requested_claims", err)
	}
	return &t, nil
}
