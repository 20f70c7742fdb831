package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/lainlives/lainllm-go/internal/config"
)

// defaultStopSequences terminate generation at chat-template boundaries
// so the model cannot continue past its own turn.
var defaultStopSequences = []string{
	"<|eot_id|>",
	"<|end_of_text|>",
	"User:",
	"\n\n\n",
}

// GenerationConfig carries sampling parameters for a single generation.
type GenerationConfig struct {
	MaxTokens     int
	Temperature   float64
	TopP          float64
	RepeatPenalty float64
	StopSequences []string
}

// GenerationConfigFrom builds sampling parameters from process config.
func GenerationConfigFrom(cfg config.Config) GenerationConfig {
	return GenerationConfig{
		MaxTokens:     cfg.MaxTokens,
		Temperature:   cfg.Temperature,
		TopP:          cfg.TopP,
		RepeatPenalty: cfg.RepeatPenalty,
		StopSequences: defaultStopSequences,
	}
}

// Model wraps a langchaingo LLM for text generation.
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates an LLM model based on configuration.
func NewModel(cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
	}, nil
}

// Generate produces a completion for an already-templated prompt. The
// prompt carries its own chat markers, so it is sent as a single raw
// completion request rather than a structured message list.
func (m *Model) Generate(ctx context.Context, prompt string, gen GenerationConfig) (string, error) {
	opts := []llms.CallOption{
		llms.WithMaxTokens(gen.MaxTokens),
		llms.WithTemperature(gen.Temperature),
		llms.WithTopP(gen.TopP),
		llms.WithRepetitionPenalty(gen.RepeatPenalty),
	}
	if len(gen.StopSequences) > 0 {
		opts = append(opts, llms.WithStopWords(gen.StopSequences))
	}

	start := time.Now()
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt, opts...)
	duration := time.Since(start)

	if err != nil {
		slog.Warn("generation failed",
			"model", m.modelName,
			"prompt_len", len(prompt),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", wrapFatalError(fmt.Errorf("generate: %w", err))
	}

	slog.Debug("generation complete",
		"model", m.modelName,
		"prompt_len", len(prompt),
		"response_len", len(response),
		"duration_ms", duration.Milliseconds())
	return response, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}
