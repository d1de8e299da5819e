package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/docchat"
	"github.com/poiesic/docchat/config"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/events"
	"github.com/poiesic/docchat/ingestion"
	"github.com/poiesic/docchat/rag"
	"github.com/poiesic/docchat/reembed"
	"github.com/poiesic/docchat/search"
	"github.com/poiesic/docchat/server"
	"github.com/poiesic/docchat/watch"
	"github.com/urfave/cli/v2"
)

var (
	errMissingArgument = errors.New("missing argument")
	errEventsDisabled  = errors.New("events are disabled: set events.nats_url or NATS_URL")
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func openAssistant(cfg *config.Config, publisher events.Publisher) (*docchat.Assistant, error) {
	assistant, err := docchat.Open(cfg.Storage.Path,
		docchat.WithAIConfig(cfg.AIConfig()),
		docchat.WithNamespace(cfg.Storage.Namespace),
		docchat.WithPublisher(publisher),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return assistant, nil
}

func ingestionOptions(cfg *config.Config) []ingestion.Option {
	return []ingestion.Option{
		ingestion.WithChunkSize(cfg.Ingestion.ChunkSize),
		ingestion.WithChunkOverlap(cfg.Ingestion.ChunkOverlap),
		ingestion.WithBatchSize(cfg.Ingestion.BatchSize),
		ingestion.WithPoolSize(cfg.Ingestion.PoolSize),
		ingestion.WithMaxDownloadSize(cfg.Ingestion.MaxDownloadSize),
	}
}

func newChatPipeline(assistant *docchat.Assistant, cfg *config.Config) (*rag.Pipeline, error) {
	searcher, err := assistant.NewSearcher(
		search.WithTopK(cfg.Retrieval.TopK),
		search.WithMinScore(cfg.Retrieval.MinScore),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create searcher: %w", err)
	}
	chat, err := assistant.NewChatPipeline(searcher)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat pipeline: %w", err)
	}
	return chat, nil
}

// connectEvents returns a NATS publisher when one is configured, or nil.
func connectEvents(cfg *config.Config) (*events.NATSPublisher, error) {
	if cfg.Events.NatsURL == "" {
		return nil, nil
	}
	publisher, err := events.NewNATSPublisher(cfg.Events.NatsURL, cfg.Events.NatsToken, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return publisher, nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	var publisher events.Publisher = events.NoopPublisher{}
	nats, err := connectEvents(cfg)
	if err != nil {
		return err
	}
	if nats != nil {
		defer nats.Close()
		publisher = nats
	}

	assistant, err := openAssistant(cfg, publisher)
	if err != nil {
		return err
	}
	defer assistant.Close()

	pipeline, err := assistant.NewIngestionPipeline(ingestionOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	chat, err := newChatPipeline(assistant, cfg)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(chat,
		server.WithChatTimeout(cfg.Server.ChatTimeout),
		server.WithIngestTimeout(cfg.Server.IngestTimeout),
		server.WithMaxUploadSize(cfg.Server.MaxUploadSize),
		server.WithIngester(pipeline),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	slog.Info("docchat starting",
		"addr", cfg.Server.Addr,
		"db", cfg.Storage.Path,
		"namespace", cfg.Storage.Namespace,
		"chat_model", cfg.AI.ChatModel,
		"events", nats != nil)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func parseSourceType(value string) (core.SourceType, error) {
	switch t := core.SourceType(strings.ToLower(value)); t {
	case core.SourceTypeURL, core.SourceTypeUpload, core.SourceTypeRaw:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnknownSourceType, value)
	}
}

func ingestCommand(c *cli.Context) error {
	sourceType, err := parseSourceType(c.String("type"))
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		return fmt.Errorf("%w: source to ingest", errMissingArgument)
	}
	source := core.Source{
		Type:   sourceType,
		Source: strings.Join(c.Args().Slice(), " "),
		Name:   c.String("name"),
	}
	if err := core.ValidateSource(source); err != nil {
		return err
	}
	if source.Type == core.SourceTypeUpload && !c.Bool("replace") {
		digest, err := fileDigest(source.Source)
		if err != nil {
			return err
		}
		source.Digest = digest
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.NoopPublisher{}
	nats, err := connectEvents(cfg)
	if err != nil {
		return err
	}
	if nats != nil {
		defer nats.Close()
		publisher = nats
	}

	assistant, err := openAssistant(cfg, publisher)
	if err != nil {
		return err
	}
	defer assistant.Close()

	pipeline, err := assistant.NewIngestionPipeline(ingestionOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Server.IngestTimeout)
	defer cancel()

	result, err := pipeline.Ingest(ctx, source)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Ingested %s: %d chunks from %d documents in namespace %q",
		source.Label(), result.Chunks, result.Documents, result.Namespace)
	if result.Replaced > 0 {
		fmt.Fprintf(c.App.Writer, " (replaced %d)", result.Replaced)
	}
	fmt.Fprintf(c.App.Writer, " in %v\n", result.Duration.Round(time.Millisecond))
	return nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return core.ContentDigest(f)
}

func askCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("%w: question", errMissingArgument)
	}
	req := rag.Request{
		Messages: []core.Message{{Role: core.RoleUser, Content: strings.Join(c.Args().Slice(), " ")}},
		Locale:   c.String("locale"),
	}
	if err := core.ValidateMessages(req.Messages); err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	assistant, err := openAssistant(cfg, events.NoopPublisher{})
	if err != nil {
		return err
	}
	defer assistant.Close()

	chat, err := newChatPipeline(assistant, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Server.ChatTimeout)
	defer cancel()

	stream, err := chat.Answer(ctx, req)
	if err != nil {
		return err
	}
	for fragment := range stream.Fragments() {
		fmt.Fprint(c.App.Writer, fragment.Text)
	}
	fmt.Fprintln(c.App.Writer)
	if err := stream.Err(); err != nil {
		return err
	}

	if c.Bool("sources") {
		for i, result := range stream.Sources {
			fmt.Fprintf(c.App.Writer, "\n[%d] %s #%d (score %.3f)\n%s\n",
				i+1, result.Chunk.Source, result.Chunk.Index, result.Score, result.Chunk.Text)
		}
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	reembedConfig.Namespace = cfg.Storage.Namespace

	assistant, err := openAssistant(cfg, events.NoopPublisher{})
	if err != nil {
		return err
	}
	defer assistant.Close()

	ctx, stop := signalContext()
	defer stop()

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Storage.Path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	if _, err := assistant.NewReembedder(reembedConfig, os.Stderr).Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: directory to watch", errMissingArgument)
	}
	dir := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.NoopPublisher{}
	nats, err := connectEvents(cfg)
	if err != nil {
		return err
	}
	if nats != nil {
		defer nats.Close()
		publisher = nats
	}

	assistant, err := openAssistant(cfg, publisher)
	if err != nil {
		return err
	}
	defer assistant.Close()

	pipeline, err := assistant.NewIngestionPipeline(ingestionOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	watcher, err := watch.New(pipeline,
		watch.WithExtensions(c.StringSlice("ext")...),
		watch.WithDebounce(c.Duration("debounce")),
		watch.WithInitialScan(c.Bool("scan")),
	)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	return watcher.Run(ctx, dir)
}

func eventsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	nats, err := connectEvents(cfg)
	if err != nil {
		return err
	}
	if nats == nil {
		return errEventsDisabled
	}
	defer nats.Close()

	err = nats.Subscribe(events.SubjectIngestAll, func(subject string, data []byte) {
		var event events.IngestEvent
		if err := json.Unmarshal(data, &event); err != nil {
			slog.Warn("malformed ingest event", "subject", subject, "err", err)
			return
		}
		fmt.Fprintln(c.App.Writer, formatEvent(subject, event))
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()
	<-ctx.Done()
	return nil
}

func formatEvent(subject string, event events.IngestEvent) string {
	line := fmt.Sprintf("%s job=%s source=%s namespace=%s duration=%dms",
		subject, event.JobID, event.Source, event.Namespace, event.DurationMs)
	if event.Error != "" {
		return line + fmt.Sprintf(" stage=%s error=%q", event.Stage, event.Error)
	}
	return line + fmt.Sprintf(" chunks=%d", event.Chunks)
}

func configInitCommand(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists; use --force to overwrite", path)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote default config to %s\n", path)
	return nil
}
