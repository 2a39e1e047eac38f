package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/supa-modo/digiplotClassic/internal/demoapi"
)

// Runtime wires the demo backend: store selection, seeding, and the HTTP
// server with graceful shutdown.
type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping demo backend",
		"service", cfg.ServiceID,
		"http_port", cfg.HTTPPort,
		"postgres", cfg.PostgresURL != "",
		"redis", cfg.RedisURL != "",
	)

	cleanup := func(context.Context) {}

	var data demoapi.DataStore
	freshStore := true
	if cfg.PostgresURL != "" {
		db, err := demoapi.ConnectPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store, err := demoapi.NewPgStore(db)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		freshStore, err = store.Empty(ctx)
		if err != nil {
			return nil, fmt.Errorf("inspect postgres store: %w", err)
		}
		data = store
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			cleanup = func(context.Context) { _ = sqlDB.Close() }
		}
	} else {
		data = demoapi.NewMemStore()
	}

	var challenges demoapi.ChallengeStore = demoapi.NewMemChallengeStore()
	var lockouts demoapi.LockoutStore = demoapi.NewMemLockoutStore()
	if cfg.RedisURL != "" {
		redisClient, err := demoapi.ConnectRedis(cfg.RedisURL)
		if err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		challenges = demoapi.NewRedisChallengeStore(redisClient)
		lockouts = demoapi.NewRedisLockoutStore(redisClient)
		prev := cleanup
		cleanup = func(ctx context.Context) {
			_ = redisClient.Close()
			prev(ctx)
		}
	}

	hasher := demoapi.NewBcryptHasher(cfg.BcryptCost)
	if cfg.SeedDemoData && freshStore {
		if err := demoapi.Seed(ctx, data, hasher, time.Now().UTC()); err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
		logger.Info("seeded demo accounts",
			"landlord", demoapi.SeedLandlordEmail,
			"tenant", demoapi.SeedTenantEmail,
			"tenant_2fa", demoapi.SeedTenant2FAEmail,
			"admin", demoapi.SeedAdminEmail,
		)
	}

	svc := demoapi.NewService(demoapi.ServiceDependencies{
		Config: demoapi.ServiceConfig{
			TokenTTL:        cfg.TokenTTL,
			ChallengeTTL:    cfg.ChallengeTTL,
			FailedThreshold: cfg.FailedThreshold,
			LockoutDuration: cfg.LockoutDuration,
			DefaultUnitID:   demoapi.SeedUnitID,
		},
		Data:       data,
		Challenges: challenges,
		Lockouts:   lockouts,
		Hasher:     hasher,
		Signer:     demoapi.NewTokenSigner(cfg.JWTSecret, cfg.TokenTTL),
		Logger:     logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           demoapi.NewHandler(svc).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		cleanupFn:  cleanup,
	}, nil
}

// Run serves HTTP until a signal or server failure, then shuts down
// gracefully.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}
