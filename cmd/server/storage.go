package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"oidcop/internal/oidc"
	"oidcop/internal/oidc/claims"
	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/ports"
	"oidcop/internal/oidc/store/accesstoken"
	"oidcop/internal/oidc/store/authcode"
	clientstore "oidcop/internal/oidc/store/client"
	"oidcop/internal/oidc/store/refreshtoken"
	scopestore "oidcop/internal/oidc/store/scope"
	userstore "oidcop/internal/oidc/store/user"
	"oidcop/internal/platform/config"
	"oidcop/internal/platform/postgres"
	"oidcop/internal/platform/redis"
	httptransport "oidcop/internal/transport/http"
	"oidcop/pkg/platform/audit/publisher"
	"oidcop/pkg/platform/audit/publishers/kafka"
	auditmemory "oidcop/pkg/platform/audit/store/memory"
)

// infrastructure is everything serve opens and must close on exit.
type infrastructure struct {
	repos  oidc.Repositories
	audit  ports.AuditPublisher
	health map[string]httptransport.HealthCheck
	closer []func()
}

func (i *infrastructure) close() {
	for j := len(i.closer) - 1; j >= 0; j-- {
		i.closer[j]()
	}
}

func openStorage(ctx context.Context, cfg config.Config, claimsCfg *claims.Config, log *zap.Logger) (_ *infrastructure, err error) {
	infra := &infrastructure{health: map[string]httptransport.HealthCheck{}}
	defer func() {
		if err != nil {
			infra.close()
		}
	}()

	scopes := scopestore.NewInMemory()
	if claimsCfg != nil {
		if err := scopes.Register(claimsCfg.Scopes...); err != nil {
			return nil, err
		}
	}
	infra.repos.Scopes = scopes

	var clients []*models.Client
	if cfg.OIDC.ClientsFile != "" {
		clients, err = clientstore.LoadFile(cfg.OIDC.ClientsFile, time.Now())
		if err != nil {
			return nil, err
		}
	}

	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		infra.closer = append(infra.closer, pool.Close)
		infra.health["postgres"] = pool.Ping

		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			return nil, err
		}
		if len(applied) > 0 {
			log.Info("applied migrations", zap.Ints("versions", applied))
		}
		if err := seedClients(ctx, pool, clients); err != nil {
			return nil, err
		}
		infra.repos.Clients = clientstore.NewCached(clientstore.NewPostgres(pool), clientCacheTTL)
		infra.repos.AuthCodes = authcode.NewPostgres(pool)
		infra.repos.AccessTokens = accesstoken.NewPostgres(pool)
		infra.repos.RefreshTokens = refreshtoken.NewPostgres(pool)
		infra.repos.Users = userstore.NewPostgres(pool)
	default:
		infra.repos.Clients = clientstore.NewInMemory(clients...)
		infra.repos.AuthCodes = authcode.NewInMemory()
		infra.repos.AccessTokens = accesstoken.NewInMemory()
		infra.repos.RefreshTokens = refreshtoken.NewInMemory()
		infra.repos.Users = userstore.NewInMemory()
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		infra.closer = append(infra.closer, func() { _ = rdb.Close() })
		infra.health["redis"] = rdb.Health
		infra.repos.AccessTokens = accesstoken.NewRedis(rdb.Client)
	}

	auditLog := log.Named("audit")
	if len(cfg.Audit.KafkaBrokers) > 0 {
		sink, err := kafka.New(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
		if err != nil {
			return nil, err
		}
		infra.closer = append(infra.closer, sink.Close)
		infra.health["kafka"] = sink.Ping
		pub := publisher.NewPublisher(sink,
			publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
			publisher.WithLogger(auditLog))
		// Closers run in reverse, so the buffer drains before the sink closes.
		infra.closer = append(infra.closer, pub.Close)
		infra.audit = pub
	} else {
		infra.audit = publisher.NewPublisher(auditmemory.NewInMemoryStore(), publisher.WithLogger(auditLog))
	}
	return infra, nil
}

// seedClients upserts the clients file into postgres as a single transaction,
// so a bad entry leaves the table untouched.
func seedClients(ctx context.Context, pool *pgxpool.Pool, clients []*models.Client) error {
	if len(clients) == 0 {
		return nil
	}
	store := clientstore.NewPostgres(pool)
	return postgres.RunInTx(ctx, pool, func(ctx context.Context) error {
		for _, c := range clients {
			if err := store.Save(ctx, c); err != nil {
				return fmt.Errorf("seed client %s: %w", c.ID, err)
			}
		}
		return nil
	})
}
