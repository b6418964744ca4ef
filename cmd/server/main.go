// Package main implements the entry point for the lexibox server, which
// schedules vocabulary cards through Leitner boxes and turns imported text
// into card proposals.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/phrazzld/lexibox/internal/config"
	"github.com/phrazzld/lexibox/internal/platform/logger"
	"github.com/phrazzld/lexibox/internal/platform/postgres"
	"github.com/spf13/pflag"
)

// options holds the command-line flags that select what the binary does.
// Flags that override configuration values are bound into viper by
// config.LoadWithFlags.
type options struct {
	migrate        string
	cleanupExpired bool
}

// newFlagSet declares every flag the server accepts.
func newFlagSet() (*pflag.FlagSet, *options) {
	opts := &options{}
	fs := pflag.NewFlagSet("lexibox", pflag.ContinueOnError)
	fs.String("config", "", "path to a config file (default ./config.yaml when present)")
	fs.Int("port", 0, "HTTP port, overrides server.port")
	fs.String("log-level", "", "log level (debug, info, warn, error), overrides server.log_level")
	fs.String("database-url", "", "PostgreSQL connection URL, overrides database.url")
	fs.StringVar(&opts.migrate, "migrate", "",
		"run a migration command and exit: "+strings.Join(postgres.MigrationCommands, "|"))
	fs.BoolVar(&opts.cleanupExpired, "cleanup-expired", false,
		"delete expired import sessions and their proposals, then exit")
	return fs, opts
}

// parseFlags parses args and checks flag combinations.
func parseFlags(args []string) (*pflag.FlagSet, *options, error) {
	fs, opts := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if opts.migrate != "" && !slices.Contains(postgres.MigrationCommands, opts.migrate) {
		return nil, nil, fmt.Errorf("unknown migration command %q (expected one of %s)",
			opts.migrate, strings.Join(postgres.MigrationCommands, ", "))
	}
	if opts.migrate != "" && opts.cleanupExpired {
		return nil, nil, errors.New("--migrate and --cleanup-expired cannot be combined")
	}
	return fs, opts, nil
}

func main() {
	fs, opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Invalid arguments: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, fs, opts); err != nil {
		slog.Error("lexibox exited with error", "error", err)
		stop()
		os.Exit(1)
	}
}

// run loads configuration and performs the selected mode: a migration
// command, the expired-session cleanup, or the HTTP server.
func run(ctx context.Context, fs *pflag.FlagSet, opts *options) error {
	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"generation_enabled", cfg.LLM.Enabled())

	db, err := openDatabase(ctx, cfg.Database, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.Error("failed to close database", "error", err)
		}
	}()

	switch {
	case opts.migrate != "":
		return postgres.Migrate(ctx, db, opts.migrate, l)
	case opts.cleanupExpired:
		app, err := newApplication(ctx, cfg, l, db)
		if err != nil {
			return err
		}
		return app.cleanupExpired(ctx)
	}

	app, err := newApplication(ctx, cfg, l, db)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
