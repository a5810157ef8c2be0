package authcode

import (
	"context"
	"fmt"
	"time"

	"oidcop/internal/oidc/models"
	"oidcop/internal/platform/postgres"
	"oidcop/pkg/platform/sentinel"
)

// PostgresStore persists codes in oidc_auth_codes.
type PostgresStore struct {
	db postgres.Querier
}

func NewPostgres(db postgres.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) PersistNew(ctx context.Context, code *models.AuthCode) error {
	st := code.State()
	_, err := postgres.Conn(ctx, s.db).Exec(ctx, `
		INSERT INTO oidc_auth_codes (id, client_id, user_id, scopes, expires_at, is_revoked, redirect_uri, nonce)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, code.ID, code.ClientID, code.UserID, st["scopes"], code.ExpiresAt, code.Revoked, code.RedirectURI, code.Nonce)
	return postgres.MapError(err, "persist auth code")
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.AuthCode, error) {
	var (
		clientID, userID, scopes, redirectURI, nonce string
		revoked                                      bool
		expiresAt                                    time.Time
	)
	err := postgres.Conn(ctx, s.db).QueryRow(ctx, `
		SELECT client_id, user_id, scopes, expires_at, is_revoked, redirect_uri, nonce
		FROM oidc_auth_codes WHERE id = $1
	`, id).Scan(&clientID, &userID, &scopes, &expiresAt, &revoked, &redirectURI, &nonce)
	if err != nil {
		return nil, postgres.MapError(err, "find auth code")
	}
	return models.AuthCodeFromState(models.State{
		"id":           id,
		"client_id":    clientID,
		"user_id":      userID,
		"scopes":       scopes,
		"expires_at":   expiresAt,
		"is_revoked":   revoked,
		"redirect_uri": redirectURI,
		"nonce":        nonce,
	})
}

func (s *PostgresStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	var revoked bool
	err := postgres.Conn(ctx, s.db).QueryRow(ctx,
		`SELECT is_revoked FROM oidc_auth_codes WHERE id = $1`, id,
	).Scan(&revoked)
	if err != nil {
		return false, postgres.MapError(err, "check auth code")
	}
	return revoked, nil
}

// Revoke flips is_revoked with a guarded update, so a concurrent second
// redemption affects no row and reports ErrAlreadyUsed.
func (s *PostgresStore) Revoke(ctx context.Context, id string) error {
	db := postgres.Conn(ctx, s.db)
	tag, err := db.Exec(ctx,
		`UPDATE oidc_auth_codes SET is_revoked = TRUE WHERE id = $1 AND NOT is_revoked`, id)
	if err != nil {
		return postgres.MapError(err, "revoke auth code")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := s.IsRevoked(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("auth code %s: %w", id, sentinel.ErrAlreadyUsed)
}
