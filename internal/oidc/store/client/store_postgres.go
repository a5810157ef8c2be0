package client

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"oidcop/internal/oidc/models"
	"oidcop/internal/platform/postgres"
)

// PostgresStore keeps clients in oidc_clients, with redirect URIs in their
// own table ordered by registration position.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Save upserts the client and replaces its redirect URIs in one transaction.
func (s *PostgresStore) Save(ctx context.Context, c *models.Client) error {
	return postgres.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		db := postgres.Conn(ctx, s.pool)
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := db.Exec(ctx, `
			INSERT INTO oidc_clients (id, secret_hash, name, description, scopes, enabled, confidential, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				secret_hash = EXCLUDED.secret_hash,
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				scopes = EXCLUDED.scopes,
				enabled = EXCLUDED.enabled,
				confidential = EXCLUDED.confidential
		`, c.ID, c.SecretHash, c.Name, c.Description, nonNil(c.Scopes), c.Enabled, c.Confidential, createdAt); err != nil {
			return postgres.MapError(err, "save client")
		}
		if _, err := db.Exec(ctx, `DELETE FROM oidc_client_redirect_uris WHERE client_id = $1`, c.ID); err != nil {
			return postgres.MapError(err, "save client redirect uris")
		}
		for i, uri := range c.RedirectURIs {
			if _, err := db.Exec(ctx,
				`INSERT INTO oidc_client_redirect_uris (client_id, position, uri) VALUES ($1, $2, $3)`,
				c.ID, i, uri); err != nil {
				return postgres.MapError(err, "save client redirect uris")
			}
		}
		return nil
	})
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Client, error) {
	db := postgres.Conn(ctx, s.pool)
	var c models.Client
	err := db.QueryRow(ctx, `
		SELECT id, secret_hash, name, description, scopes, enabled, confidential, created_at
		FROM oidc_clients WHERE id = $1
	`, id).Scan(&c.ID, &c.SecretHash, &c.Name, &c.Description, &c.Scopes, &c.Enabled, &c.Confidential, &c.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "find client")
	}

	rows, err := db.Query(ctx,
		`SELECT uri FROM oidc_client_redirect_uris WHERE client_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, postgres.MapError(err, "find client redirect uris")
	}
	c.RedirectURIs, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, postgres.MapError(err, "find client redirect uris")
	}
	return &c, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
