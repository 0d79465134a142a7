package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	api "github.com/edgewl2/sp-store-users-management/api/http"
	"github.com/edgewl2/sp-store-users-management/api/http/handlers"
	"github.com/edgewl2/sp-store-users-management/pkg/address"
	cache "github.com/edgewl2/sp-store-users-management/pkg/cache/redis"
	"github.com/edgewl2/sp-store-users-management/pkg/config"
	"github.com/edgewl2/sp-store-users-management/pkg/health"
	"github.com/edgewl2/sp-store-users-management/pkg/health/checkers"
	"github.com/edgewl2/sp-store-users-management/pkg/logger"
	"github.com/edgewl2/sp-store-users-management/pkg/phone"
	pgrepo "github.com/edgewl2/sp-store-users-management/pkg/repository/postgres"
	"github.com/edgewl2/sp-store-users-management/pkg/role"
	"github.com/edgewl2/sp-store-users-management/pkg/security/bcrypt"
	"github.com/edgewl2/sp-store-users-management/pkg/security/jwt"
	"github.com/edgewl2/sp-store-users-management/pkg/storage/postgres"
	"github.com/edgewl2/sp-store-users-management/pkg/storage/redis"
	"github.com/edgewl2/sp-store-users-management/pkg/user"
	"github.com/edgewl2/sp-store-users-management/pkg/validation"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := migrateUp(ctx, pool, log); err != nil {
			return err
		}
	}

	checks := []health.Checker{checkers.NewPostgresChecker(pool)}

	var roleRepo role.Repository = pgrepo.NewRoleRepository(pool)
	if cfg.Redis.URL != "" {
		client, err := redis.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer func(c *goredis.Client) { _ = c.Close() }(client)
		roleRepo = cache.NewRoleCache(roleRepo, client, cfg.Redis.RoleCacheTTL, log)
		checks = append(checks, checkers.NewRedisChecker(client))
		log.Info("role cache enabled", zap.Duration("ttl", cfg.Redis.RoleCacheTTL))
	}

	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		return err
	}

	userRepo := pgrepo.NewUserRepository(pool)
	roles := role.NewService(roleRepo, log)
	addresses := address.NewService(pgrepo.NewAddressRepository(pool), userRepo, log)
	phones := phone.NewService(pgrepo.NewPhoneRepository(pool), userRepo, log)
	users := user.NewService(userRepo, roles, addresses, phones, bcrypt.New(0), log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	v := validation.New()
	app := api.NewApp(log, registry)
	api.Register(app, api.Handlers{
		Users:     handlers.NewUserHandler(users, roles, v),
		Roles:     handlers.NewRoleHandler(roles, v),
		Addresses: handlers.NewAddressHandler(users, addresses, v),
		Phones:    handlers.NewPhoneHandler(users, phones, v),
		Health:    handlers.NewHealthHandler(health.NewService(checks...), log),
	}, jwt.NewAuthMiddleware(verifier), jwt.RequireScope(cfg.Auth.RoleAdminScope))

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("port", cfg.Port), zap.String("auth_mode", cfg.Auth.Mode))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		log.Warn("listener returned", zap.Error(err))
	}
	return nil
}

func newVerifier(cfg config.Auth) (jwt.Verifier, error) {
	if cfg.Mode == config.AuthModeJWKS {
		v, err := jwt.NewJWKSVerifier(cfg.Issuer, cfg.Audience, cfg.JWKSCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("init jwks verifier: %w", err)
		}
		return v, nil
	}
	return jwt.NewHMACVerifier(cfg.JWTSecret, cfg.Issuer, cfg.Audience), nil
}

func migrateUp(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	m, err := postgres.NewMigrator(pool)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	defer func() { _ = m.Close() }()

	applied, err := m.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	log.Info("migrations applied", zap.Int("count", applied))
	return nil
}
