package user

import (
	"context"
	"encoding/json"
	"fmt"

	"oidcop/internal/oidc/models"
	"oidcop/internal/platform/postgres"
)

type PostgresStore struct {
	db postgres.Querier
}

func NewPostgres(db postgres.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var (
		u   = models.User{ID: id}
		raw []byte
	)
	err := postgres.Conn(ctx, s.db).QueryRow(ctx,
		`SELECT attributes, created_at, updated_at FROM oidc_users WHERE id = $1`, id,
	).Scan(&raw, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "find user")
	}
	if err := json.Unmarshal(raw, &u.Attributes); err != nil {
		return nil, fmt.Errorf("decode user attributes: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, u *models.User) error {
	attrs := u.Attributes
	if attrs == nil {
		attrs = map[string][]string{}
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encode user attributes: %w", err)
	}
	_, err = postgres.Conn(ctx, s.db).Exec(ctx, `
		INSERT INTO oidc_users (id, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET attributes = EXCLUDED.attributes, updated_at = EXCLUDED.updated_at
	`, u.ID, raw, u.CreatedAt, u.UpdatedAt)
	return postgres.MapError(err, "upsert user")
}
