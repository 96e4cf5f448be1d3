package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/metacrate/internal"
	pkgconfig "github.com/starford/metacrate/pkg/config"
)

var version = "dev"

// loadConfig reads the config file, when present, and applies the
// --workspace override.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if ws := cmd.String("workspace"); ws != "" {
		cfg.Workspace.Path = ws
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func watchCmd(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("push") {
		cfg.Watch.Push = true
	}
	return internal.RunWatch(ctx,
		internal.WithConfig(cfg),
		internal.WithLogger(internal.NewLogger(os.Stderr, cfg.App.LogLevel)),
		internal.WithOutput(os.Stdout),
	)
}

func mcpCmd(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithLogger(internal.NewLogger(os.Stderr, cfg.App.LogLevel)),
		internal.WithVersion(version),
	)
}

func main() {
	cmd := &cli.Command{
		Name:    "metacrate",
		Usage:   "Describe a working directory with tags and fields and export it as an RO-Crate",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "workspace",
				Aliases: []string{"w"},
				Usage:   "Workspace directory (overrides workspace.path)",
				Sources: cli.EnvVars("METACRATE_WORKSPACE"),
			},
		},
		Commands: []*cli.Command{
			exportCommand(),
			importCommand(),
			schematicCommand(),
			tagsCommand(),
			fieldsCommand(),
			pushCommand(),
			{
				Name:   "serve",
				Usage:  "Run the ingestion API that receives pushed crates",
				Action: serve,
			},
			{
				Name:  "watch",
				Usage: "Re-export the crate whenever the workspace changes",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "push", Usage: "Push every export to the ingestion endpoint"},
				},
				Action: watchCmd,
			},
			{
				Name:   "mcp",
				Usage:  "Serve workspace metadata tools over MCP stdio",
				Action: mcpCmd,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
