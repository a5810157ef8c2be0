package refreshtoken

import (
	"context"
	"fmt"
	"time"

	"oidcop/internal/oidc/models"
	"oidcop/internal/platform/postgres"
	"oidcop/pkg/platform/sentinel"
)

type PostgresStore struct {
	db postgres.Querier
}

func NewPostgres(db postgres.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) PersistNew(ctx context.Context, token *models.RefreshToken) error {
	_, err := postgres.Conn(ctx, s.db).Exec(ctx, `
		INSERT INTO oidc_refresh_tokens (id, access_token_id, expires_at, is_revoked, auth_code_id)
		VALUES ($1, $2, $3, $4, $5)
	`, token.ID, token.AccessTokenID, token.ExpiresAt, token.Revoked, token.AuthCodeID)
	return postgres.MapError(err, "persist refresh token")
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.RefreshToken, error) {
	var (
		accessTokenID, authCodeID string
		revoked                   bool
		expiresAt                 time.Time
	)
	err := postgres.Conn(ctx, s.db).QueryRow(ctx, `
		SELECT access_token_id, expires_at, is_revoked, auth_code_id
		FROM oidc_refresh_tokens WHERE id = $1
	`, id).Scan(&accessTokenID, &expiresAt, &revoked, &authCodeID)
	if err != nil {
		return nil, postgres.MapError(err, "find refresh token")
	}
	return models.RefreshTokenFromState(models.State{
		"id":              id,
		"access_token_id": accessTokenID,
		"expires_at":      expiresAt,
		"is_revoked":      revoked,
		"auth_code_id":    authCodeID,
	})
}

func (s *PostgresStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	var revoked bool
	err := postgres.Conn(ctx, s.db).QueryRow(ctx,
		`SELECT is_revoked FROM oidc_refresh_tokens WHERE id = $1`, id,
	).Scan(&revoked)
	if err != nil {
		return false, postgres.MapError(err, "check refresh token")
	}
	return revoked, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, id string) error {
	tag, err := postgres.Conn(ctx, s.db).Exec(ctx,
		`UPDATE oidc_refresh_tokens SET is_revoked = TRUE WHERE id = $1 AND NOT is_revoked`, id)
	if err != nil {
		return postgres.MapError(err, "revoke refresh token")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := s.IsRevoked(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("refresh token %s: %w", id, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStore) RevokeByAuthCodeID(ctx context.Context, authCodeID string) error {
	if authCodeID == "" {
		return nil
	}
	_, err := postgres.Conn(ctx, s.db).Exec(ctx,
		`UPDATE oidc_refresh_tokens SET is_revoked = TRUE WHERE auth_code_id = $1`, authCodeID)
	return postgres.MapError(err, "revoke refresh tokens by code")
}
