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

	"github.com/poiesic/docchat/config"
	"github.com/poiesic/docchat/watch"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docchat",
		Usage: "Ask questions about your documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"DOCCHAT_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log output format (text, json)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Value:   "docchat.yaml",
				EnvVars: []string{"DOCCHAT_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file loaded before the config",
				Value: ".env",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP chat and ingestion API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Load, split, embed and index a document",
				ArgsUsage: "<path|url|text>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Source type (upload, url, raw)",
						Value:   "upload",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name recorded as the chunk source",
					},
					&cli.BoolFlag{
						Name:  "replace",
						Usage: "Replace any file previously ingested under the same name, even if its content differs",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a single question and stream the answer",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "locale",
						Usage: "Answer language (en, ar)",
						Value: "en",
					},
					&cli.BoolFlag{
						Name:  "sources",
						Usage: "Print the retrieved passages after the answer",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all indexed chunks with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:      "watch",
				Usage:     "Ingest files as they change in a directory",
				ArgsUsage: "<dir>",
				Action:    watchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "ext",
						Usage: "File extensions to watch (repeatable)",
						Value: cli.NewStringSlice(watch.DefaultExtensions...),
					},
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "Quiet period before a changed file is ingested",
						Value: watch.DefaultDebounce,
					},
					&cli.BoolFlag{
						Name:  "scan",
						Usage: "Ingest files already in the directory on start",
						Value: true,
					},
				},
			},
			{
				Name:   "events",
				Usage:  "Print ingestion events published on NATS",
				Action: eventsCommand,
			},
			{
				Name:  "config",
				Usage: "Manage the config file",
				Subcommands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Write the default config to --config",
						Action: configInitCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite an existing file",
							},
						},
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	if err := config.LoadDotEnv(c.String("env-file")); err != nil {
		return err
	}
	return configureLogger(c.String("log-level"), c.String("log-format"))
}

func configureLogger(levelStr, format string) error {
	levelStr = strings.ToLower(levelStr)

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

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", format)
	}
	slog.SetDefault(slog.New(handler))

	return nil
}

// loadConfig reads --config. The file's log level applies unless
// --log-level was given.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !c.IsSet("log-level") && cfg.LogLevel != "" {
		if err := configureLogger(cfg.LogLevel, c.String("log-format")); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
