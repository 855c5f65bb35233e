package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/auth"
	"spendlog/internal/backend"
	"spendlog/internal/cache"
	"spendlog/internal/cli"
	"spendlog/internal/config"
	"spendlog/internal/core"
	apphttp "spendlog/internal/http"
	"spendlog/internal/log"
	"spendlog/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.MustValidate(logger, cfg.Validate)

	logger.Info("Starting spendlog", log.FieldOperation, log.OpStartup, "backend", cfg.DataBackend, "port", cfg.Port)

	limits, err := cfg.AmountLimits()
	if err != nil {
		logger.Error("Invalid amount limits", log.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error())
		os.Exit(1)
	}

	categories := cache.NewLRUCache[[]string](cfg.CategoryCacheSize, cfg.CategoryCacheTTL)
	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	cacheManager.Register(categories)
	cacheManager.StartCleanup(cfg.CategoryCacheTTL)

	expenseOpts := []services.ExpenseOption{services.WithCategoryCache(categories)}
	if res.Events != nil {
		expenseOpts = append(expenseOpts, services.WithPublisher(res.Events))
	}
	expenses := services.NewExpenseService(res.Store, core.NewValidator(limits), expenseOpts...)
	users := services.NewUserService(res.Store, cfg.PasswordMinLength)

	var resolver auth.OwnerResolver = auth.HeaderResolver{Header: cfg.OwnerHeader}
	if cfg.OwnerVerify {
		resolver = auth.VerifiedOwnerResolver{Next: resolver, Users: res.Store}
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Expenses:           expenses,
		Users:              users,
		Store:              res.Store,
		Resolver:           resolver,
		Logger:             logger,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		OwnerHeader:        cfg.OwnerHeader,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		cli.Shutdown(logger, 10*time.Second,
			srv.Shutdown,
			func(context.Context) error { cacheManager.Stop(); return nil },
			func(context.Context) error { return res.Cleanup() },
		)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", log.FieldError, err.Error())
		os.Exit(1)
	}
}
