package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Backend != BackendLocal {
		t.Errorf("backend = %q, want local", cfg.Backend)
	}
	if cfg.KnowledgeLimit != 10 || cfg.HistoryLimit != 5 {
		t.Errorf("limits = %d/%d, want 10/5", cfg.KnowledgeLimit, cfg.HistoryLimit)
	}
	if cfg.KnowledgeThreshold != 0.3 || cfg.HistoryThreshold != 0.5 {
		t.Errorf("thresholds = %v/%v, want 0.3/0.5", cfg.KnowledgeThreshold, cfg.HistoryThreshold)
	}
	if cfg.EmbedDimension != 384 {
		t.Errorf("embed dimension = %d, want 384", cfg.EmbedDimension)
	}
	if cfg.SpeakThreshold != 5 {
		t.Errorf("speak threshold = %d, want 5", cfg.SpeakThreshold)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LAINLLM_BACKEND", "rpc")
	t.Setenv("MAX_TOKENS", "200")
	t.Setenv("TEMPERATURE", "0.5")
	t.Setenv("LAINLLM_LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.Backend != BackendRPC {
		t.Errorf("backend = %q, want rpc", cfg.Backend)
	}
	if cfg.MaxTokens != 200 {
		t.Errorf("max tokens = %d, want 200", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.5 {
		t.Errorf("temperature = %v, want 0.5", cfg.Temperature)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", cfg.LogLevel)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_TOKENS", "many")
	t.Setenv("TEMPERATURE", "warm")

	cfg := Load()

	if cfg.MaxTokens != 150 {
		t.Errorf("max tokens = %d, want default 150", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.8 {
		t.Errorf("temperature = %v, want default 0.8", cfg.Temperature)
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("pipeline ready", "backend", "local")
	logger.Debug("dropped")

	if !strings.Contains(stderr.String(), "pipeline ready") {
		t.Errorf("stderr output missing message: %q", stderr.String())
	}
	if strings.Contains(stderr.String(), "dropped") {
		t.Error("debug record must be filtered at info level")
	}

	var record map[string]any
	if err := json.Unmarshal(file.Bytes(), &record); err != nil {
		t.Fatalf("file output is not JSON: %v", err)
	}
	if record["backend"] != "local" {
		t.Errorf("file record = %v", record)
	}
}
