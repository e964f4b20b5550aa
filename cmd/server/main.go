// Package main is the entry point for the taskflow API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/urfave/cli/v3"
)

// Populated at build time via -ldflags.
var version = "dev"

// flags holds the global command-line options.
type flags struct {
	configPath string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "taskflow: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	f := &flags{}

	return &cli.Command{
		Name:    "taskflow",
		Usage:   "Task lifecycle API server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file (defaults to ./config.yaml when present)",
				Sources:     cli.EnvVars("TASKFLOW_CONFIG"),
				Destination: &f.configPath,
			},
		},
		Commands: []*cli.Command{
			newServeCommand(f),
			newMigrateCommand(f),
			newTokenCommand(f),
		},
		DefaultCommand: "serve",
	}
}

func newServeCommand(f *flags) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server",
		Action: func(ctx context.Context, _ *cli.Command) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log, err := logger.Setup(cfg.Server)
			if err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}

			db, err := setupAppDatabase(ctx, cfg.Database, log)
			if err != nil {
				return err
			}

			app, err := newApplication(cfg, log, db)
			if err != nil {
				_ = db.Close()
				return fmt.Errorf("initialize application: %w", err)
			}

			return app.Run(ctx)
		},
	}
}

func newMigrateCommand(f *flags) *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "Manage the database schema",
		ArgsUsage: "<" + strings.Join(postgres.MigrationCommands, "|") + ">",
		Action: func(ctx context.Context, c *cli.Command) error {
			command := c.Args().First()
			if command == "" {
				command = "up"
			}

			cfg, err := config.Load(f.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log, err := logger.Setup(cfg.Server)
			if err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}

			db, err := setupAppDatabase(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return postgres.Migrate(ctx, db, command, log)
		},
	}
}

func newTokenCommand(f *flags) *cli.Command {
	var userID string

	return &cli.Command{
		Name:  "token",
		Usage: "Print a signed access token for local testing",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "user",
				Usage:       "user ID recorded as the actor (random when omitted)",
				Destination: &userID,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			return printToken(ctx, c, cfg.Auth, userID)
		},
	}
}

// printToken writes a token for userID to the command's writer.
func printToken(ctx context.Context, c *cli.Command, cfg config.AuthConfig, userID string) error {
	id := uuid.New()
	if userID != "" {
		parsed, err := uuid.Parse(userID)
		if err != nil {
			return fmt.Errorf("invalid --user %q: %w", userID, err)
		}
		id = parsed
	}

	jwtService, err := auth.NewJWTService(cfg)
	if err != nil {
		return fmt.Errorf("initialize JWT service: %w", err)
	}

	token, err := jwtService.GenerateToken(ctx, id)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	_, err = fmt.Fprintln(c.Root().Writer, token)
	return err
}
