package models

import (
	"slices"
	"time"

	dErrors "oidcop/pkg/domain-errors"
)

// AuthCode is the server-side record behind an issued authorization code. The
// code handed to the client is an encrypted AuthCodePayload, not this ID.
type AuthCode struct {
	ID          string
	ClientID    string
	UserID      string
	Scopes      []string
	ExpiresAt   time.Time
	Revoked     bool
	RedirectURI string
	Nonce       string
}

func NewAuthCode(id, clientID, userID string, scopes []string, redirectURI, nonce string, expiresAt, now time.Time) (*AuthCode, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "auth code id cannot be empty")
	}
	if clientID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "auth code client id cannot be empty")
	}
	if !expiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "auth code must expire in the future")
	}
	return &AuthCode{
		ID:          id,
		ClientID:    clientID,
		UserID:      userID,
		Scopes:      slices.Clone(scopes),
		ExpiresAt:   expiresAt.UTC().Truncate(time.Second),
		RedirectURI: redirectURI,
		Nonce:       nonce,
	}, nil
}

// Revoke marks the code as used. There is no way back.
func (a *AuthCode) Revoke() { a.Revoked = true }

func (a *AuthCode) IsExpired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

func (a *AuthCode) State() State {
	return State{
		"id":           a.ID,
		"scopes":       encodeJSON(nonNil(a.Scopes)),
		"expires_at":   formatStateTime(a.ExpiresAt),
		"user_id":      a.UserID,
		"client_id":    a.ClientID,
		"is_revoked":   a.Revoked,
		"redirect_uri": a.RedirectURI,
		"nonce":        a.Nonce,
	}
}

func AuthCodeFromState(s State) (*AuthCode, error) {
	var (
		a   AuthCode
		err error
	)
	if a.ID, err = s.str("id", true); err != nil {
		return nil, err
	}
	if a.ClientID, err = s.str("client_id", true); err != nil {
		return nil, err
	}
	if a.UserID, err = s.str("user_id", false); err != nil {
		return nil, err
	}
	if a.Scopes, err = s.stringList("scopes"); err != nil {
		return nil, err
	}
	if a.ExpiresAt, err = s.time("expires_at"); err != nil {
		return nil, err
	}
	if a.Revoked, err = s.boolean("is_revoked"); err != nil {
		return nil, err
	}
	if a.RedirectURI, err = s.str("redirect_uri", false); err != nil {
		return nil, err
	}
	if a.Nonce, err = s.str("nonce", false); err != nil {
		return nil, err
	}
	return &a, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
