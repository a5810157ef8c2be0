package models

import (
	"time"

	dErrors "oidcop/pkg/domain-errors"
)

type RefreshToken struct {
	ID            string
	AccessTokenID string
	ExpiresAt     time.Time
	Revoked       bool
	AuthCodeID    string
}

func NewRefreshToken(id, accessTokenID string, expiresAt, now time.Time) (*RefreshToken, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "refresh token id cannot be empty")
	}
	if accessTokenID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "refresh token must reference an access token")
	}
	if !expiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "refresh token must expire in the future")
	}
	return &RefreshToken{ID: id, AccessTokenID: accessTokenID, ExpiresAt: expiresAt.UTC().Truncate(time.Second)}, nil
}

func (t *RefreshToken) Revoke() { t.Revoked = true }

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) State() State {
	return State{
		"id":              t.ID,
		"expires_at":      formatStateTime(t.ExpiresAt),
		"access_token_id": t.AccessTokenID,
		"is_revoked":      t.Revoked,
		"auth_code_id":    t.AuthCodeID,
	}
}

func RefreshTokenFromState(s State) (*RefreshToken, error) {
	var (
		t   RefreshToken
		err error
	)
	if t.ID, err = s.str("id", true); err != nil {
		return nil, err
	}
	if t.AccessTokenID, err = s.str("access_token_id", true); err != nil {
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
	return &t, nil
}
