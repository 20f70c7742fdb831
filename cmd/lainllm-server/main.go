// Package main provides the entry point for the LainLLM server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lainlives/lainllm-go/internal/config"
	"github.com/lainlives/lainllm-go/internal/engagement"
	"github.com/lainlives/lainllm-go/internal/history"
	"github.com/lainlives/lainllm-go/internal/knowledge"
	"github.com/lainlives/lainllm-go/internal/llm"
	"github.com/lainlives/lainllm-go/internal/metrics"
	"github.com/lainlives/lainllm-go/internal/parser"
	"github.com/lainlives/lainllm-go/internal/persona"
	"github.com/lainlives/lainllm-go/internal/pipeline"
	"github.com/lainlives/lainllm-go/internal/prompt"
	"github.com/lainlives/lainllm-go/internal/server"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()
	// Package-level slog calls in the pipeline go through the same handler.
	slog.SetDefault(logger)

	logger.Info("lainllm starting",
		"version", version,
		"backend", cfg.Backend,
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModel,
	)

	// Create context canceled on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	collector := metrics.NewCollector()

	// Embedder and knowledge backend
	embedder, err := llm.NewEmbedder(cfg)
	if err != nil {
		logger.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}
	embedder.AttachCollector(collector)
	logger.Info("embedder initialized", "model", embedder.Model(), "dimension", embedder.Dimension())

	backend, err := knowledge.New(ctx, cfg, embedder)
	if err != nil {
		logger.Error("failed to create knowledge backend", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing knowledge backend")
		_ = backend.Close(context.Background())
	}()

	// LLM
	model, err := llm.NewModel(cfg)
	if err != nil {
		logger.Error("failed to create model", "error", err)
		os.Exit(1)
	}
	logger.Info("model initialized", "model", model.Model())

	// Persona
	spec, err := persona.Load(cfg.PersonaPath)
	if err != nil {
		logger.Error("failed to load persona", "error", err, "path", cfg.PersonaPath)
		os.Exit(1)
	}
	logger.Info("persona loaded", "name", spec.Name, "version", spec.Version)

	// Optional sender tracking
	tracker := history.NewTracker(cfg.RedisAddr, cfg.RedisPassword)
	if tracker != nil {
		defer tracker.Close()
		logger.Info("sender tracking enabled", "addr", cfg.RedisAddr)
	}

	genConfig := llm.GenerationConfigFrom(cfg)

	orchestrator := pipeline.New(pipeline.Options{
		Scorer:         engagement.NewScorer(cfg.CharacterName),
		Backend:        backend,
		Assembler:      prompt.NewAssembler(spec),
		Model:          model,
		GenConfig:      genConfig,
		Parser:         parser.New(cfg.SpeakThreshold),
		Tracker:        tracker,
		Collector:      collector,
		KnowledgeLimit: cfg.KnowledgeLimit,
		HistoryLimit:   cfg.HistoryLimit,
	})

	srv := server.New(cfg.ServerPort, server.Deps{
		Orchestrator: orchestrator,
		Backend:      backend,
		Collector:    collector,
		ModelName:    model.Model(),
		EmbedModel:   embedder.Model(),
		GenConfig:    genConfig,
		Version:      version,
	}, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
