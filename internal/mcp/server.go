package mcp

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/Sridattasai18/repologic/internal/assembler"
	"github.com/Sridattasai18/repologic/internal/chunker"
	"github.com/Sridattasai18/repologic/internal/config"
	"github.com/Sridattasai18/repologic/internal/embedder"
	"github.com/Sridattasai18/repologic/internal/generation"
	"github.com/Sridattasai18/repologic/internal/index"
	"github.com/Sridattasai18/repologic/internal/indexer"
	"github.com/Sridattasai18/repologic/internal/retriever"
	"github.com/Sridattasai18/repologic/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "repologic"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp       *server.MCPServer
	cfg       *config.Config
	log       *zap.Logger
	registry  *index.Registry
	store     *storage.Store
	embedder  *embedder.Client
	builder   *indexer.Builder
	retriever *retriever.Retriever
	assembler *assembler.Assembler
	generator generation.Generator
}

// NewServer creates a new MCP server instance wired from cfg. The
// answer generator is optional: without a Gemini API key the tools
// still return assembled context, just no generated answer.
func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}

	if err := os.MkdirAll(cfg.Index.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	store, err := storage.NewStore(cfg.Index.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	provider := cfg.Embedding.Provider
	if provider == "" {
		provider = embedder.DetectProvider()
	}
	emb, err := embedder.New(embedder.Config{
		Provider:    provider,
		CacheSize:   cfg.Embedding.CacheSize,
		MaxInFlight: cfg.Embedding.MaxInFlight,
		BatchSize:   cfg.Embedding.BatchSize,
		Retry: embedder.RetryConfig{
			MaxRetries: cfg.Embedding.MaxRetries,
			BaseDelay:  cfg.Embedding.BaseDelay.Std(),
			MaxDelay:   cfg.Embedding.MaxDelay.Std(),
			Multiplier: embedder.BackoffMultiplier,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	registry := index.NewRegistry()

	ch := chunker.New(cfg.Chunking.MaxTokens, cfg.Chunking.OverlapLines)
	builder := indexer.New(ch, emb, store, registry, log, indexer.Options{
		Workers:     cfg.Index.Workers,
		MaxFileSize: cfg.Index.MaxFileSize,
	})

	retr := retriever.New(registry, store, emb, log)
	retr.SetTimeout(cfg.Retrieval.Timeout.Std())

	var gen generation.Generator
	if key := os.Getenv(generation.EnvGeminiAPIKey); key != "" {
		gen, err = generation.NewGeminiGenerator(key, "")
		if err != nil {
			log.Warn("answer generation disabled", zap.Error(err))
			gen = nil
		}
	}

	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		cfg:       cfg,
		log:       log,
		registry:  registry,
		store:     store,
		embedder:  emb,
		builder:   builder,
		retriever: retr,
		assembler: assembler.New(cfg.Assembly.MaxChars),
		generator: gen,
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.embedder.Close() }()
	s.log.Info("server starting",
		zap.String("provider", s.embedder.Provider()),
		zap.String("index_dir", s.store.Root()),
		zap.Bool("generation", s.generator != nil))
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexRepositoryTool(), s.handleIndexRepository)
	s.mcp.AddTool(askQuestionTool(), s.handleAskQuestion)
	s.mcp.AddTool(explainSelectionTool(), s.handleExplainSelection)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(removeRepositoryTool(), s.handleRemoveRepository)
}
