// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/questionbank/config"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "questionbank",
		Usage: "Search and enrich a bank of interview questions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to .env file loaded before reading the environment",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Record store backend (badger, sqlite, postgres)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the badger directory or sqlite file",
			},
			&cli.StringFlag{
				Name:  "dsn",
				Usage: "Postgres connection string",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.StringFlag{
				Name:  "normalizer-host",
				Usage: "Chat completion host URL used to normalize questions",
			},
			&cli.StringFlag{
				Name:  "normalizer-model",
				Usage: "Chat model name used to normalize questions",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Usage: "Interface to listen on",
					},
					&cli.IntFlag{
						Name:  "port",
						Usage: "Port to listen on",
					},
				},
			},
			{
				Name:   "enrich",
				Usage:  "Normalize and embed stored questions",
				Action: enrichCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of questions processed concurrently per batch",
					},
					&cli.DurationFlag{
						Name:  "batch-delay",
						Usage: "Pause between batches",
					},
					&cli.IntFlag{
						Name:  "fetch-limit",
						Usage: "Maximum number of questions loaded per run",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Retries after a failed service call",
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Search questions and print the results as JSON",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "company",
						Usage: "Company filter (case-insensitive substring)",
					},
					&cli.StringFlag{
						Name:  "role",
						Usage: "Role filter (case-insensitive substring)",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Free-text query; enables semantic ranking",
					},
					&cli.BoolFlag{
						Name:  "semantic-only",
						Usage: "Keep semantic matches that fail both filters",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of nearest neighbours considered",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print search diagnostics to stderr",
					},
				},
			},
			{
				Name:   "import",
				Usage:  "Import questions from a CSV file",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "csv",
						Usage:    "Path to the CSV file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "write-batch",
						Usage: "Rows written per storage call",
						Value: 100,
					},
				},
			},
			{
				Name:   "export",
				Usage:  "Export all questions as CSV",
				Action: exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Output file (defaults to stdout)",
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig layers the config file, the environment and command-line flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadEnv(c.String("env-file")); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	setString := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	setInt := func(flag string, dst *int) {
		if c.IsSet(flag) {
			*dst = c.Int(flag)
		}
	}
	setIntPtr := func(flag string, dst **int) {
		if c.IsSet(flag) {
			v := c.Int(flag)
			*dst = &v
		}
	}
	setDurationPtr := func(flag string, dst **time.Duration) {
		if c.IsSet(flag) {
			v := c.Duration(flag)
			*dst = &v
		}
	}

	setString("store", &cfg.Storage.Type)
	setString("db", &cfg.Storage.Path)
	setString("dsn", &cfg.Storage.DSN)
	setString("embedding-host", &cfg.AI.EmbeddingHost)
	setString("embedding-model", &cfg.AI.EmbeddingModel)
	setString("normalizer-host", &cfg.AI.NormalizerHost)
	setString("normalizer-model", &cfg.AI.NormalizerModel)

	setString("host", &cfg.Server.Host)
	setInt("port", &cfg.Server.Port)

	setInt("batch-size", &cfg.Enrichment.BatchSize)
	setDurationPtr("batch-delay", &cfg.Enrichment.BatchDelay)
	setInt("fetch-limit", &cfg.Enrichment.FetchLimit)
	setIntPtr("max-retries", &cfg.Enrichment.MaxRetries)
	setDurationPtr("retry-delay", &cfg.Enrichment.RetryDelay)

	setInt("top-k", &cfg.Search.TopK)
	if c.IsSet("semantic-only") {
		v := c.Bool("semantic-only")
		cfg.Search.SemanticOnlyMatches = &v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
