package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"holdem-live/apps/server/internal/auth"
	"holdem-live/apps/server/internal/config"
	"holdem-live/apps/server/internal/gateway"
	"holdem-live/apps/server/internal/ledger"
	"holdem-live/apps/server/internal/lobby"
	"holdem-live/apps/server/internal/store"
	"holdem-live/apps/server/internal/table"
	"holdem-live/holdem/handeval"
)

type ServeCmd struct {
	Config   string `short:"c" default:"holdem.hcl" help:"Path to HCL configuration file"`
	EnvFile  string `name:"env-file" default:".env" help:"Optional dotenv file"`
	Addr     string `short:"a" help:"Listen address host:port (overrides config)"`
	LogLevel string `short:"l" name:"log-level" help:"Log level (overrides config)"`
}

type CheckConfigCmd struct {
	Config  string `short:"c" default:"holdem.hcl" help:"Path to HCL configuration file"`
	EnvFile string `name:"env-file" default:".env" help:"Optional dotenv file"`
}

func loadConfig(path, envFile string) (*config.ServerConfig, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *CheckConfigCmd) Run() error {
	cfg, err := loadConfig(c.Config, c.EnvFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fmt.Printf("%s: ok (%d tables, ledger %s, snapshots %s, auth %s)\n",
		c.Config, len(cfg.Tables), cfg.Ledger.Mode, cfg.Snapshots.Mode, cfg.Server.AuthMode)
	return nil
}

func (c *ServeCmd) Run() error {
	cfg, err := loadConfig(c.Config, c.EnvFile)
	if err != nil {
		return err
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "holdem"})
	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	authService, authMode, err := auth.NewService(cfg.Server.AuthMode, cfg.Server.JWTSecret, cfg.Server.JWTIssuer)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	defer authService.Close()

	ledgerService, ledgerMode, err := ledger.NewService(ledger.Options{
		Mode:            cfg.Ledger.Mode,
		SQLitePath:      cfg.Ledger.Path,
		PostgresDSN:     cfg.Ledger.DSN,
		StartingBalance: cfg.Ledger.StartingBalance,
	})
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer ledgerService.Close()

	snapshots, snapshotMode, err := store.New(store.Options{
		Mode:       cfg.Snapshots.Mode,
		SQLitePath: cfg.Snapshots.Path,
		RedisURL:   cfg.Snapshots.RedisURL,
		KeyPrefix:  cfg.Snapshots.KeyPrefix,
	})
	if err != nil {
		return fmt.Errorf("init snapshots: %w", err)
	}
	defer snapshots.Close()

	// the gateway is the outbound sink of every table, so it exists first
	gw := gateway.New(nil, authService, logger)
	lby, err := lobby.New(ctx, cfg.Tables, table.Deps{
		Clock:     quartz.NewReal(),
		Logger:    logger,
		Ledger:    ledgerService,
		Store:     snapshots,
		Evaluator: handeval.New(),
		Send:      gw.Send,
	}, table.Options{})
	if err != nil {
		return fmt.Errorf("init tables: %w", err)
	}
	defer lby.Close()
	gw.SetLobby(lby)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	auth.NewHTTPHandler(authService).RegisterRoutes(mux)
	ledger.NewHTTPHandler(authService, ledgerService).RegisterRoutes(mux)
	lby.RegisterRoutes(mux)

	addr := cfg.ListenAddress()
	if c.Addr != "" {
		addr = c.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting holdem server",
		"addr", addr,
		"tables", len(cfg.Tables),
		"auth", authMode,
		"ledger", ledgerMode,
		"snapshots", snapshotMode,
		"version", version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
