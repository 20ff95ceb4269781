/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/suparena/contentgate"
	"github.com/suparena/contentgate/api"
	"github.com/suparena/contentgate/config"
	"github.com/suparena/contentgate/datastore/memory"
	"github.com/suparena/contentgate/editlock"
	"github.com/suparena/contentgate/editlock/ddb"
	"github.com/suparena/contentgate/editlock/redislock"
	"github.com/suparena/contentgate/permission"
	"github.com/suparena/contentgate/permission/rules"
	"github.com/suparena/contentgate/registry"
	"github.com/suparena/contentgate/telemetry"
)

var (
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
	envFile     = flag.String("env", ".env", "Path to a .env file")
)

func main() {
	flag.Parse()

	if *versionFlag || *vFlag {
		info := contentgate.GetVersionInfo()
		fmt.Printf("contentgate version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		os.Exit(0)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("contentgate stopped", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = lvl
	return zc.Build()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	models, err := loadModels(cfg.ModelsFile)
	if err != nil {
		return err
	}
	abilities, err := loadAbilities(cfg.AbilitiesFile)
	if err != nil {
		return err
	}

	lockStore, closeLocks, err := newLockStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocks()

	lockOpts := []editlock.Option{
		editlock.WithTTL(cfg.Lock.TTL),
		editlock.WithLogger(logger.Named("editlock")),
	}
	if cfg.Lock.Retention > 0 {
		lockOpts = append(lockOpts, editlock.WithRetention(cfg.Lock.Retention))
	}

	opts := []contentgate.Option{
		contentgate.WithModels(models),
		contentgate.WithStore(memory.New()),
		contentgate.WithPermissions(rules.NewFactory(models)),
		contentgate.WithLockManager(editlock.NewManager(lockStore, lockOpts...)),
		contentgate.WithBulkLockConcurrency(cfg.BulkLockConcurrency),
		contentgate.WithLogger(logger.Named("gateway")),
	}
	if cfg.Telemetry {
		sender := telemetry.LogSender(logger.Named("telemetry"))
		opts = append(opts, contentgate.WithTelemetry(
			telemetry.NewNotifier(sender, telemetry.WithLogger(logger.Named("telemetry")))))
	}
	gw, err := contentgate.New(opts...)
	if err != nil {
		return err
	}
	defer gw.Wait()

	handler := api.NewContentHandler(gw, api.StaticAbilities(abilities), api.WithLogger(logger.Named("api")))
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("lock_backend", cfg.Lock.Backend),
			zap.Strings("models", models.UIDs()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func loadModels(path string) (*registry.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open models file: %w", err)
	}
	defer f.Close()
	return registry.LoadYAML(f)
}

func loadAbilities(path string) (map[string]permission.Ability, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open abilities file: %w", err)
	}
	defer f.Close()

	loaded, err := rules.LoadYAML(f)
	if err != nil {
		return nil, err
	}
	out := make(map[string]permission.Ability, len(loaded))
	for id, a := range loaded {
		out[id] = a
	}
	return out, nil
}

func newLockStore(ctx context.Context, cfg *config.Config) (editlock.Store, func(), error) {
	switch cfg.Lock.Backend {
	case config.LockBackendRedis:
		client, err := redislock.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return redislock.New(client), func() { _ = client.Close() }, nil
	case config.LockBackendDynamoDB:
		client, err := ddb.NewDynamoDBClient(ctx, cfg.DDB)
		if err != nil {
			return nil, nil, err
		}
		return ddb.New(client, cfg.DDB.Table), func() {}, nil
	default:
		return editlock.NewMemoryStore(), func() {}, nil
	}
}
