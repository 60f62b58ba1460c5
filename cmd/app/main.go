package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/lint"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/storage"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// runCheck lints the corpus (or the given paths) and exits non-zero when
// the contract is violated.
func runCheck(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := storage.NewFS(cfg.Site.Path)
	if err != nil {
		return err
	}
	linter := lint.New(cfg.Site.Layouts)

	report := &lint.Report{}
	if args := cmd.Args().Slice(); len(args) > 0 {
		resolver := lint.NewCorpusResolver(store)
		for _, path := range args {
			data, err := store.Read(path)
			if err != nil {
				return err
			}
			report.Findings = append(report.Findings, linter.CheckPost(path, data, resolver)...)
			report.Checked++
		}
	} else {
		report, err = linter.CheckCorpus(store)
		if err != nil {
			return err
		}
	}

	for _, f := range report.Findings {
		fmt.Println(f)
	}
	fmt.Printf("%d posts checked, %d errors, %d warnings\n",
		report.Checked, report.Errors(), report.Warnings())

	if !report.Passed() {
		return cli.Exit("corpus contract violated", 1)
	}
	if cmd.Bool("strict") && report.Warnings() > 0 {
		return cli.Exit("warnings present (strict mode)", 1)
	}
	return nil
}

// runMCP serves the post tools over stdio for LLM integration.
func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := storage.NewFS(cfg.Site.Path)
	if err != nil {
		return err
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	// Logs go to stderr so stdout stays clean for the MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	srv := mcpserver.New(store, db, lint.New(cfg.Site.Layouts))
	return srv.ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "ansuz",
		Usage:  "Local-first essay corpus service: frontmatter contract, link integrity, and full-text search over a Markdown site directory",
		Action: runServe,
		Flags:  []cli.Flag{configFlag()},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, file watcher, and SSE event stream",
				Flags:  []cli.Flag{configFlag()},
				Action: runServe,
			},
			{
				Name:      "check",
				Usage:     "Lint the corpus: frontmatter contract and cross-reference integrity",
				ArgsUsage: "[post paths...]",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Treat warnings as failures",
					},
				},
				Action: runCheck,
			},
			{
				Name:   "mcp",
				Usage:  "Serve post tools over stdio (Model Context Protocol)",
				Flags:  []cli.Flag{configFlag()},
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
