package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/arbor/internal"
)

var version = "dev"

// newLogger returns a human-readable logger for the one-shot subcommands.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return slog.New(log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	}))
}

func options(cmd *cli.Command, subcommand bool) ([]internal.Option, error) {
	cfg, err := internal.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}
	if subcommand {
		opts = append(opts, internal.WithLogger(newLogger(os.Stderr, cmd.Bool("verbose"))))
	}
	return opts, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd, false)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func layoutCmd(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd, true)
	if err != nil {
		return err
	}
	return internal.Layout(ctx, os.Stdout, opts...)
}

func validateCmd(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd, true)
	if err != nil {
		return err
	}
	err = internal.Validate(ctx, os.Stdout, opts...)
	if errors.Is(err, internal.ErrHierarchyIssues) {
		return cli.Exit("", 1)
	}
	return err
}

func mcpCmd(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd, true)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "arbor",
		Usage:   "Hierarchy and graph layout engine for Markdown note vaults",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Debug logging for subcommands",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, event stream and vault watcher",
				Action: serve,
			},
			{
				Name:   "layout",
				Usage:  "Print the positioned graph of the vault as JSON",
				Action: layoutCmd,
			},
			{
				Name:   "validate",
				Usage:  "Report hierarchy issues; exits 1 when any are found",
				Action: validateCmd,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools on stdin/stdout",
				Action: mcpCmd,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
