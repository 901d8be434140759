package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexanderramin/loopmode/internal/cli"
	"github.com/alexanderramin/loopmode/internal/config"
	"github.com/alexanderramin/loopmode/internal/db"
	"github.com/alexanderramin/loopmode/internal/repository"
	"github.com/alexanderramin/loopmode/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// An explicit LOOPMODE_CONFIG must exist; the default location may not.
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path, os.Getenv("LOOPMODE_CONFIG") != "")
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stderr)

	database, err := db.OpenDB(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	profileRepo := repository.NewSQLiteProfileRepo(database)
	auditRepo := repository.NewSQLiteAuditRepo(database)
	flagRepo := repository.NewSQLiteFeatureFlagRepo(database)
	recordRepo := repository.NewSQLiteRunningModeRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	profiles := service.NewProfileService(profileRepo, uow)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics, err := service.NewMetricsObserver(registry)
	if err != nil {
		return err
	}

	observers := []service.TransitionObserver{metrics}
	if cfg.Log.Transitions {
		observers = append(observers, service.NewLogTransitionObserver(logger))
	}

	loop := service.NewLoopController(service.LoopDeps{
		System:   cfg.System,
		Profiles: profiles,
		Pump:     service.StaticPump(cfg.Pump.Capabilities()),
		Audit:    auditRepo,
		Flags:    flagRepo,
		Records:  recordRepo,
		Logger:   logger,
	}, observers...)
	if err := loop.Start(ctx); err != nil {
		return fmt.Errorf("restoring running mode: %w", err)
	}
	defer loop.Close()

	app := &cli.App{
		Loop:     loop,
		Profiles: profiles,
		History:  service.NewHistoryService(auditRepo, flagRepo),
		Metrics:  registry,
	}

	// Mode changes are only confirmed on an interactive terminal.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}
