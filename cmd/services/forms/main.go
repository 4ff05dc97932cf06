package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/intrigue/searchforms/internal/config"
	"github.com/intrigue/searchforms/internal/executor"
	"github.com/intrigue/searchforms/internal/forms"
	"github.com/intrigue/searchforms/internal/graphql"
	grpcserver "github.com/intrigue/searchforms/internal/grpc"
	"github.com/intrigue/searchforms/internal/handlers"
	"github.com/intrigue/searchforms/internal/logging"
	"github.com/intrigue/searchforms/internal/metrics"
	"github.com/intrigue/searchforms/internal/queue"
	"github.com/intrigue/searchforms/internal/router"
	"github.com/intrigue/searchforms/internal/services"
	"github.com/intrigue/searchforms/internal/store"
	"github.com/intrigue/searchforms/internal/utils"
	"github.com/intrigue/searchforms/internal/visualization"
	"golang.org/x/sync/errgroup"
)

// Set with -ldflags "-X main.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "searchforms: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		return err
	}
	logging.SetGlobal(logger)
	defer func() { _ = logger.Sync() }()

	handlers.Version = Version
	logger.Info("Starting search forms service",
		"version", Version,
		"commit", GitCommit,
		"built", BuildTime)

	if err := graphql.ValidateOperations(); err != nil {
		return fmt.Errorf("catalog operations do not match the schema: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	formStore, err := store.New(cfg.Store, cfg.Etcd)
	if err != nil {
		return fmt.Errorf("open %s form store: %w", cfg.Store.Type, err)
	}
	defer func() { _ = formStore.Close() }()

	events, err := queue.NewQueue(cfg.Queue)
	if err != nil {
		return fmt.Errorf("open %s event queue: %w", cfg.Queue.Type, err)
	}
	defer func() { _ = events.Close() }()
	logger.Info("Form events enabled", "queue", cfg.Queue.Type, "subject", cfg.Queue.Subject)

	listener := services.NewEventListener(logger, events, cfg.Queue.Subject, nil)
	if err := listener.Start(); err != nil {
		logger.Warn("Form event listener not started", "error", err)
	} else {
		defer func() { _ = listener.Stop() }()
	}

	exec, err := executor.New(ctx, cfg.Executor, logger)
	if err != nil {
		return fmt.Errorf("create executor: %w", err)
	}
	logger.Info("Executor selected", "executor", exec.Name(), "config", cfg.Executor.String())

	registry := visualization.NewRegistry(cfg.Visualization.LoadTimeout)
	if err := visualization.RegisterBuiltins(registry); err != nil {
		return fmt.Errorf("register visualizations: %w", err)
	}
	if cfg.Visualization.Preload {
		registry.Preload(ctx)
	}

	validator, err := forms.NewValidator()
	if err != nil {
		return fmt.Errorf("compile form schema: %w", err)
	}

	m := metrics.New()
	formService := services.NewFormService(logger, formStore,
		queue.NewNotifier(events, cfg.Queue.Subject), validator, m)
	searchService := services.NewSearchService(logger, formService, exec, registry,
		cfg.Visualization.LoadTimeout, m)

	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication disabled, /v1 is open")
	}

	app := router.New(logger, router.Deps{
		Forms:   formService,
		Search:  searchService,
		Metrics: m,
	}, *cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := cfg.GetServerAddress()
		logger.Info("HTTP server listening", "address", addr)
		return app.Listen(addr)
	})
	if addr := cfg.GetGRPCAddress(); addr != "" {
		health := grpcserver.NewHealthServer(addr, logger)
		g.Go(func() error { return health.Start(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", "timeout", utils.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Search forms service stopped")
	return nil
}
