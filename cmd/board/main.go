package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/board/internal/alert"
	"github.com/Makepad-fr/board/internal/api"
	"github.com/Makepad-fr/board/internal/auth"
	"github.com/Makepad-fr/board/internal/background"
	"github.com/Makepad-fr/board/internal/cli"
	"github.com/Makepad-fr/board/internal/config"
	"github.com/Makepad-fr/board/internal/session"
	"github.com/Makepad-fr/board/internal/store"
	"github.com/Makepad-fr/board/internal/tui"
	"github.com/Makepad-fr/board/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand)
	apiURL := flag.String("api", "", "API base URL (overrides config and BOARD_API_URL)")
	verbose := flag.Bool("v", false, "debug logging and API spans to stderr")
	theme := flag.String("theme", "", "color theme: classic, neon or mono")
	flag.Usage = func() { (&cli.App{Out: os.Stderr}).PrintHelp() }
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		ui.Fail(os.Stderr, err.Error())
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}
	if *theme != "" {
		cfg.Theme = *theme
	}
	if *verbose {
		cfg.Trace = true
	}
	if cfg.Trace {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		ui.Fail(os.Stderr, err.Error())
		os.Exit(2)
	}

	logger := newLogger(cfg)
	ui.SetTheme(cfg.Theme)
	shutdownTracing := func(context.Context) error { return nil }
	if cfg.Trace {
		shutdownTracing = api.InstallTracing(logger)
	}

	dir, err := config.Dir()
	if err != nil {
		logger.WithError(err).Warn("no user config dir, using the working directory")
		dir = "."
	}
	creds := auth.NewManager(dir, auth.DefaultSessionDir())
	client, err := api.New(cfg.APIURL, creds, api.WithTimeout(cfg.Timeout), api.WithLogger(logger))
	if err != nil {
		ui.Fail(os.Stderr, err.Error())
		os.Exit(2)
	}
	ctl := session.New(client, creds, logger)

	alerts := alert.New(alert.WithTTL(cfg.AlertTTL))
	opts := []store.Option{
		store.WithAlerts(alerts),
		store.WithLogger(logger),
		store.WithErrorHook(ctl.Handle),
	}
	boards := store.NewBoardStore(client, opts...)

	app := &cli.App{
		Out:           os.Stdout,
		Err:           os.Stderr,
		In:            os.Stdin,
		Session:       ctl,
		Boards:        boards,
		Details:       store.NewDetails(client, opts...),
		Notifications: store.NewNotifications(client, opts...),
		Backgrounds:   background.Open(filepath.Join(dir, "backgrounds")),
		Log:           logger,
		Interactive: func(ctx context.Context, boardID int) error {
			return tui.Run(ctx, boardID, tui.Deps{Boards: boards, Alerts: alerts, Log: logger})
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.Run(ctx, flag.Args())
	stop()
	if err := shutdownTracing(context.Background()); err != nil {
		logger.WithError(err).Warn("flush spans")
	}
	os.Exit(code)
}

func newLogger(cfg config.Config) *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stderr)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	}
	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unknown log level %q, using %s\n", cfg.LogLevel, config.DefaultLogLevel)
		lvl, _ = log.ParseLevel(config.DefaultLogLevel)
	}
	logger.SetLevel(lvl)
	return logger
}
