package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	jwttoken "oidcop/internal/jwt_token"
	"oidcop/internal/oidc"
	"oidcop/internal/oidc/claims"
	oidcmetrics "oidcop/internal/oidc/metrics"
	"oidcop/internal/platform/config"
	"oidcop/internal/platform/httpserver"
	"oidcop/internal/platform/logger"
	"oidcop/internal/platform/metrics"
	"oidcop/internal/platform/tracing"
	"oidcop/internal/ratelimit"
	httptransport "oidcop/internal/transport/http"
	"oidcop/pkg/platform/secretbox"
)

func newServeCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the authorization, token, userinfo and discovery endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFiles...)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.New(logger.Config{
		Env:         cfg.Environment,
		Level:       cfg.Log.Level,
		ServiceName: cfg.Log.ServiceName,
		Version:     cfg.Log.Version,
	})
	defer func() { _ = log.Sync() }()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, cfg.Log.ServiceName, cfg.Log.Version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown failed", logger.Err(err))
		}
	}()

	key, err := secretbox.DecodeKey(cfg.Crypto.PayloadKey)
	if err != nil {
		return err
	}
	box, err := secretbox.New(cfg.Crypto.PayloadCipher, key)
	if err != nil {
		return err
	}
	signer, err := loadSigner(cfg.Crypto, cfg.OIDC.Issuer, log)
	if err != nil {
		return err
	}
	extractor, claimsCfg, err := loadClaims(cfg.OIDC.ClaimsFile)
	if err != nil {
		return err
	}

	infra, err := openStorage(ctx, cfg, claimsCfg, log)
	if err != nil {
		return err
	}
	defer infra.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sessions := httptransport.NewSessions(box, httptransport.WithSecureCookie(cfg.IsProduction()))
	provider, err := oidc.NewProvider(infra.repos, oidc.Options{
		Grants:  oidc.GrantsConfig(cfg.OIDC),
		Box:     box,
		Signer:  signer,
		Claims:  extractor,
		Session: sessions,
		Audit:   infra.audit,
		Metrics: oidcmetrics.New(reg),
		Logger:  log,
	})
	if err != nil {
		return err
	}

	handlerOpts := []httptransport.HandlerOption{httptransport.WithLogger(log.Named("http"))}
	var limiter *ratelimit.SlidingWindow
	if cfg.Limits.TokenRequests > 0 {
		limiter = ratelimit.NewSlidingWindow(cfg.Limits.TokenRequests, cfg.Limits.Window)
		handlerOpts = append(handlerOpts, httptransport.WithTokenMiddleware(
			ratelimit.Middleware(limiter, "token", ratelimit.NewMetrics(reg), log)))
	}

	handler := httptransport.NewHandler(provider, sessions, cfg.Server.LoginURL, handlerOpts...)
	router := httptransport.NewRouter(handler, httptransport.RouterConfig{
		Logger:   log,
		Metrics:  metrics.NewHTTP(reg),
		Gatherer: reg,
		Health:   infra.health,
	})
	srv := httpserver.New(cfg.Server, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("oidc provider listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("issuer", cfg.OIDC.Issuer),
			zap.String("storage", cfg.Storage.Driver))
		return httpserver.Run(gctx, srv, cfg.Server)
	})
	if limiter != nil {
		g.Go(func() error {
			sweepLimiter(gctx, limiter, cfg.Limits.Window)
			return nil
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("oidc provider stopped")
	return nil
}

// loadSigner reads the configured RSA key. Without one an ephemeral key is
// generated, which invalidates every token on restart.
func loadSigner(cfg config.Crypto, issuer string, log *zap.Logger) (*jwttoken.JWTService, error) {
	if cfg.SigningKeyPath == "" {
		log.Warn("no signing key configured, generating an ephemeral one")
		key, err := jwttoken.GenerateKey(2048)
		if err != nil {
			return nil, err
		}
		return jwttoken.NewJWTService(key, cfg.SigningKeyID, issuer), nil
	}
	key, err := jwttoken.LoadPrivateKey(cfg.SigningKeyPath)
	if err != nil {
		return nil, err
	}
	return jwttoken.NewJWTService(key, cfg.SigningKeyID, issuer), nil
}

func loadClaims(path string) (*claims.TranslatorExtractor, *claims.Config, error) {
	if path == "" {
		e, err := claims.NewFromConfig(nil)
		return e, nil, err
	}
	cfg, err := claims.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	e, err := claims.NewFromConfig(cfg)
	return e, cfg, err
}

func sweepLimiter(ctx context.Context, l *ratelimit.SlidingWindow, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}

// clientCacheTTL bounds how long a disabled or edited client stays usable.
const clientCacheTTL = 30 * time.Second
