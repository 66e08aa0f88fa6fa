package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjackroom/internal/bank"
	"github.com/lox/blackjackroom/internal/game"
	"github.com/lox/blackjackroom/internal/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"blackjackroom.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Listen address (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Lobby    int    `long:"lobby" help:"Lobby window in seconds (overrides config)"`
	Seed     int64  `long:"seed" help:"Shuffle seed for reproducible decks (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Lobby > 0 {
		cfg.Table.LobbySeconds = CLI.Lobby
	}
	if CLI.Seed != 0 {
		cfg.Table.Seed = CLI.Seed
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	addr := cfg.Addr()
	if CLI.Addr != "" {
		addr = CLI.Addr
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	logger.Info("starting blackjack room",
		"addr", addr,
		"lobby", cfg.Table.LobbySeconds,
		"startingBalance", cfg.Table.StartingBalance)

	ledger := bank.NewLedger(cfg.Table.StartingBalance)
	bus := game.NewEventBus()

	opts := []game.ManagerOption{
		game.WithRules(cfg.Rules()),
		game.WithLogger(logger),
	}
	if cfg.Table.Seed != 0 {
		opts = append(opts, game.WithSeed(cfg.Table.Seed))
	}
	manager := game.NewManager(ledger, bus, opts...)

	srv := server.NewServer(addr, logger)
	srv.SetService(server.NewService(manager, ledger, cfg.Server.AdminSecret, logger))
	bus.Subscribe(server.NewEventBroadcaster(srv, logger))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return srv.Stop()
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		kctx.Exit(1)
	}
}
