package accesstoken

import (
	"context"
	"time"

	"oidcop/internal/oidc/models"
	"oidcop/internal/platform/postgres"
)

// PostgresStore persists tokens in oidc_access_tokens. It is used when no
// Redis URL is configured.
type PostgresStore struct {
	db postgres.Querier
}

func NewPostgres(db postgres.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) PersistNew(ctx context.Context, token *models.AccessToken) error {
	st := token.State()
	_, err := postgres.Conn(ctx, s.db).Exec(ctx, `
		INSERT INTO oidc_access_tokens (id, client_id, user_id, scopes, expires_at, is_revoked, auth_code_id, requested_claims)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, token.ID, token.ClientID, token.UserID, st["scopes"], token.ExpiresAt, token.Revoked, token.AuthCodeID, st["requested_claims"])
	return postgres.MapError(err, "persist access token")
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.AccessToken, error) {
	var (
		clientID, userID, scopes, authCodeID, claims string
		revoked                                      bool
		expiresAt                                    time.Time
	)
	err := postgres.Conn(ctx, s.db).QueryRow(ctx, `
		SELECT client_id, user_id, scopes, expires_at, is_revoked, auth_code_id, requested_claims
		FROM oidc_access_tokens WHERE id = $1
	`, id).Scan(&clientID, &userID, &scopes, &expiresAt, &revoked, &authCodeID, &claims)
	if err != nil {
		return nil, postgres.MapError(err, "find access token")
	}
	return models.AccessTokenFromState(models.State{
		"id":               id,
		"client_id":        clientID,
		"user_id":          userID,
		"scopes":           scopes,
		"expires_at":       expiresAt,
		"is_revoked":       revoked,
		"auth_code_id":     authCodeID,
		"requested_claims": claims,
	})
}

func (s *PostgresStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	var revoked bool
	err := postgres.Conn(ctx, s.db).QueryRow(ctx,
		`SELECT is_revoked FROM oidc_access_tokens WHERE id = $1`, id,
	).Scan(&revoked)
	if err != nil {
		return false, postgres.MapError(err, "check access token")
	}
	return revoked, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, id string) error {
	tag, err := postgres.Conn(ctx, s.db).Exec(ctx,
		`UPDATE oidc_access_tokens SET is_revoked = TRUE WHERE id = $1`, id)
	if err != nil {
		return postgres.MapError(err, "revoke access token")
	}
	if tag.RowsAffected() == 0 {
		_, err := s.IsRevoked(ctx, id)
		return err
	}
	return nil
}

func (s *PostgresStore) RevokeByAuthCodeID(ctx context.Context, authCodeID string) error {
	if authCodeID == "" {
		return nil
	}
	_, err := postgres.Conn(ctx, s.db).Exec(ctx,
		`UPDATE oidc_access_tokens SET is_revoked = TRUE WHERE auth_code_id = $1`, authCodeID)
	return postgres.MapError(err, "revoke access tokens by code")
}
