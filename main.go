package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"monoscan/classify"
	"monoscan/config"
	"monoscan/extract"
	"monoscan/parser"
	"monoscan/providers"
	"monoscan/pubsub"
	"monoscan/service"
	"monoscan/tui/review"
	"monoscan/vector"
)

const usage = `monoscan - ingredient extraction and classification for product documents

Usage:
  monoscan analyze <file>     analyze one document (add -tui for interactive review)
  monoscan ingest [dir]       rebuild the monograph knowledge base
  monoscan status             show knowledge base status
  monoscan reset              clear the knowledge base and classification cache
`

func init() {
	// Load .env file if exists
	_ = godotenv.Load()
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cfg := config.Load()
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(ctx, cfg, os.Args[2:])
	case "ingest":
		err = runIngest(ctx, cfg, os.Args[2:])
	case "status":
		err = runStatus(ctx, cfg)
	case "reset":
		err = runReset(ctx, cfg)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// newRegistry builds the parser registry with the PDF parser wired to the
// configured external tools.
func newRegistry(cfg *config.Config) *parser.Registry {
	reg := parser.DefaultRegistry()
	reg.Register(parser.NewPDFParser(cfg.PDFToTextPath, parser.WithOCRTool(cfg.OCRToolPath)))
	return reg
}

// newStore connects to Redis and ensures the vector index.
func newStore(ctx context.Context, cfg *config.Config) (vector.Store, error) {
	embedder, err := providers.NewEmbeddingModel(ctx, &providers.EmbeddingConfig{
		APIKey:  cfg.EmbeddingAPIKey,
		BaseURL: cfg.EmbeddingBaseURL,
		Model:   cfg.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding model: %w", err)
	}

	return vector.NewRedisStore(ctx, embedder, vector.RedisConfig{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		PoolSize:  cfg.RedisPoolSize,
		IndexName: cfg.IndexName,
		VectorDim: cfg.VectorDim,
	})
}

// newAnalyzer assembles the full analysis pipeline. A missing LLM key or
// unreachable Redis degrades classification instead of failing startup.
func newAnalyzer(ctx context.Context, cfg *config.Config) (*service.Analyzer, func(), error) {
	cache, err := classify.OpenCache(cfg.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("classification cache: %w", err)
	}

	var retriever classify.Retriever
	cleanup := func() {}
	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Printf("knowledge base unavailable, classifying without retrieval: %v", err)
	} else {
		retriever = service.StoreRetriever{Store: store}
		cleanup = func() { store.Close() }
	}

	var completer classify.Completer
	if cfg.LLMAPIKey == "" {
		log.Printf("API_KEY not set, using fallback classification")
	} else {
		model, err := providers.NewModel(ctx, &providers.ChatModelConfig{
			Provider: cfg.LLMProvider,
			APIKey:   cfg.LLMAPIKey,
			BaseURL:  cfg.LLMBaseURL,
			Model:    cfg.LLMModel,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("chat model: %w", err)
		}
		completer = providers.NewModelCompleter(model)
	}

	classifier := classify.NewClassifier(cache, retriever, completer,
		classify.WithTopK(cfg.TopK),
		classify.WithTimeout(cfg.LLMTimeout),
	)

	engine, err := newEngine(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return service.NewAnalyzer(newRegistry(cfg), engine, classifier), cleanup, nil
}

// newEngine builds the extraction cascade, honoring a configured strategy
// order override.
func newEngine(cfg *config.Config) (*extract.Engine, error) {
	if len(cfg.StrategyOrder) == 0 {
		return extract.NewDefaultEngine(), nil
	}
	strategies, err := extract.StrategiesFromNames(cfg.StrategyOrder, extract.NewSanitizer())
	if err != nil {
		return nil, err
	}
	return extract.NewEngine(strategies), nil
}

func runAnalyze(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	useTUI := fs.Bool("tui", false, "interactive review UI")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: monoscan analyze [-tui] <file>")
	}
	path := fs.Arg(0)

	analyzer, cleanup, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if *useTUI {
		return review.Run(analyzer, path)
	}

	analysis, err := analyzer.AnalyzeFile(ctx, path)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(analysis)
}

func runIngest(ctx context.Context, cfg *config.Config, args []string) error {
	dir := cfg.MonographDir
	if len(args) > 0 {
		dir = args[0]
	}

	knowledge, cleanup, err := newKnowledge(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// Print progress as it streams in.
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := knowledge.Events().Subscribe(subCtx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			switch ev.Type {
			case pubsub.ProgressEvent:
				log.Printf("ingested %s (%d/%d files, %d chunks)",
					ev.Payload.File, ev.Payload.FilesDone, ev.Payload.FilesTotal, ev.Payload.Chunks)
			case pubsub.FailedEvent:
				log.Printf("ingestion failed at %s: %s", ev.Payload.File, ev.Payload.Err)
			case pubsub.FinishedEvent:
				return
			}
		}
	}()

	err = knowledge.Rebuild(ctx, dir)
	knowledge.Shutdown()
	<-done
	return err
}

// newKnowledge assembles the knowledge-base manager.
func newKnowledge(ctx context.Context, cfg *config.Config) (*service.Knowledge, func(), error) {
	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	cache, err := classify.OpenCache(cfg.CachePath)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("classification cache: %w", err)
	}

	chunkCfg := vector.ChunkConfig{ChunkWords: cfg.ChunkWords, OverlapWords: cfg.OverlapWords}
	knowledge := service.NewKnowledge(store, cache, newRegistry(cfg), chunkCfg)
	return knowledge, func() { store.Close() }, nil
}

func runStatus(ctx context.Context, cfg *config.Config) error {
	knowledge, cleanup, err := newKnowledge(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	return json.NewEncoder(os.Stdout).Encode(knowledge.Status(ctx))
}

func runReset(ctx context.Context, cfg *config.Config) error {
	knowledge, cleanup, err := newKnowledge(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := knowledge.Reset(ctx); err != nil {
		return err
	}
	log.Printf("knowledge base and classification cache cleared")
	return nil
}
