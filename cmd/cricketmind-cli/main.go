// Command cricketmind-cli manages the match corpus and index artifacts and
// provides terminal access to the question answering pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/cricketmind/cricketmind/internal/config"
	"github.com/cricketmind/cricketmind/internal/corpus"
	dbRedis "github.com/cricketmind/cricketmind/internal/db/redis"
	"github.com/cricketmind/cricketmind/internal/index"
	logpkg "github.com/cricketmind/cricketmind/internal/logger"
	"github.com/cricketmind/cricketmind/internal/metadata"
	"github.com/cricketmind/cricketmind/internal/metrics"
	"github.com/cricketmind/cricketmind/internal/repository/matches"
	openaiTransport "github.com/cricketmind/cricketmind/internal/transport/openai"
	"github.com/cricketmind/cricketmind/internal/tui"
	"github.com/cricketmind/cricketmind/internal/usecase/answer"
	"github.com/cricketmind/cricketmind/internal/usecase/buildindex"
	reasonuc "github.com/cricketmind/cricketmind/internal/usecase/reason"
	"github.com/cricketmind/cricketmind/internal/usecase/retrieve"
	"github.com/cricketmind/cricketmind/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:    "cricketmind-cli",
		Usage:   "cricket match corpus and index management",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "path to an env file with API credentials",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "preprocess",
				Usage: "convert raw match JSON files into the summary table",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Usage:    "directory of raw match JSON files",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "summary CSV path",
						Value: "data/matches_summary.csv",
					},
				},
				Action: preprocessAction,
			},
			{
				Name:  "build-index",
				Usage: "embed match summaries and build the vector index",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "summary",
						Usage: "summary CSV path",
						Value: "data/matches_summary.csv",
					},
				},
				Action: buildIndexAction,
			},
			{
				Name:  "query",
				Usage: "retrieve the most similar matches for a question",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "question",
						Usage:    "cricket question",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "number of matches to retrieve",
						Value: 0,
					},
				},
				Action: queryAction,
			},
			{
				Name:   "ask",
				Usage:  "interactive question answering session",
				Action: askAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads the env file, config and logger shared by every command.
func setup(cmd *cli.Command) (config.Config, *zap.Logger, error) {
	if envFile := cmd.String("env-file"); envFile != "" {
		// Missing env file is fine: credentials may come from the environment.
		_ = godotenv.Load(envFile)
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}

// preprocessAction is pure-local and needs no provider credentials, so it
// builds a logger directly instead of loading the validated config.
func preprocessAction(_ context.Context, cmd *cli.Command) error {
	logger, err := logpkg.NewLogger(config.GetEnv(), "")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	records, err := corpus.LoadDir(cmd.String("input"), logger)
	if err != nil {
		return fmt.Errorf("load match files: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no match files found in %s", cmd.String("input"))
	}

	output := cmd.String("output")
	if err := corpus.WriteSummary(output, records); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	fmt.Printf("Wrote %d match summaries to %s\n", len(records), output)
	return nil
}

func buildIndexAction(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	records, err := corpus.LoadSummary(cmd.String("summary"))
	if err != nil {
		return fmt.Errorf("load summary: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()
	embedder := newEmbedder(cfg, logger)

	sink, cleanup, err := newSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := buildindex.New(embedder, sink, logger)
	stats, err := svc.Build(ctx, records)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	fmt.Printf("Indexed %d matches (%d skipped), dim=%d, tokens=%d\n",
		stats.Indexed, stats.Skipped, stats.Dim, stats.TotalTokens)
	return nil
}

func queryAction(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()

	repo, cleanup, err := openRepo(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := retrieve.New(newEmbedder(cfg, logger), repo)

	results, err := svc.Retrieve(ctx, cmd.String("question"), cmd.Int("top-k"))
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}

	for i, m := range results {
		fmt.Printf("%2d. [%.3f] %s\n    %s\n", i+1, m.Score, m.MatchID, m.TextRepr)
	}
	return nil
}

func askAction(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()

	repo, cleanup, err := openRepo(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	retrieveSvc := retrieve.New(newEmbedder(cfg, logger), repo)
	chat := openaiTransport.NewChatClient(&openaiTransport.ChatConfig{
		APIKey:      cfg.Chat.APIKey,
		BaseURL:     cfg.Chat.BaseURL,
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
		Provider:    cfg.Chat.Provider,
		Logger:      logger,
	})
	reasonSvc := reasonuc.New(retrieveSvc, answer.New(chat, logger), logger)

	program := tea.NewProgram(tui.New(reasonSvc, cfg.Index.TopK), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func newEmbedder(cfg config.Config, logger *zap.Logger) *openaiTransport.Embedder {
	return openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
}

// newSink picks the index destination for build-index based on the driver.
func newSink(ctx context.Context, cfg config.Config) (buildindex.Sink, func(), error) {
	switch cfg.Index.Driver {
	case "flat":
		return matches.NewFileSink(cfg.Artifacts.SnapshotPath, cfg.Artifacts.MetadataPath), func() {}, nil

	case "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create database store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("database not ready: %w", err)
		}
		repo := matches.NewRedis(store, cfg.Embedding.Dimensions, 0)
		return repo, func() { store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown index driver %q", cfg.Index.Driver)
	}
}

// openRepo attaches to an existing index for query and ask.
func openRepo(ctx context.Context, cfg config.Config, logger *zap.Logger) (retrieve.Repository, func(), error) {
	switch cfg.Index.Driver {
	case "flat":
		flat, matchIDs, err := index.ReadSnapshot(cfg.Artifacts.SnapshotPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load index snapshot (run build-index first): %w", err)
		}
		meta, err := metadata.LoadFile(cfg.Artifacts.MetadataPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load metadata: %w", err)
		}
		repo, err := matches.NewFlat(flat, matchIDs, meta)
		if err != nil {
			return nil, nil, fmt.Errorf("index artifacts misaligned (rebuild with build-index): %w", err)
		}
		logger.Debug("Loaded flat index", zap.Int("matches", repo.Len()), zap.Int("dim", repo.Dim()))
		return repo, func() {}, nil

	case "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create database store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("database not ready: %w", err)
		}
		repo := matches.NewRedis(store, cfg.Embedding.Dimensions, 0)
		if err := repo.LoadSize(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("discover corpus size: %w", err)
		}
		if repo.Len() == 0 {
			store.Close()
			return nil, nil, fmt.Errorf("redis index is empty (run build-index first)")
		}
		return repo, func() { store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown index driver %q", cfg.Index.Driver)
	}
}
