// Package config loads process-wide configuration from the environment.
// The configuration is built once at startup and treated as immutable.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Backend variant identifiers.
const (
	BackendLocal = "local"
	BackendHTTP  = "http"
	BackendRPC   = "rpc"
)

// LLM / embedding provider identifiers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration values.
type Config struct {
	// Knowledge backend selection
	Backend string

	// Local store (sqlite)
	LocalDBPath string

	// Remote HTTP knowledge service
	KnowledgeServiceURL string
	KnowledgeCollection string

	// Remote RPC service (SurrealDB)
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Embedding
	EmbedProvider  string
	EmbedModel     string
	EmbedDimension int
	OllamaHost     string

	// LLM
	LLMProvider     string
	LLMModel        string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Generation parameters
	Temperature   float64
	TopP          float64
	RepeatPenalty float64
	MaxTokens     int

	// Retrieval tuning
	KnowledgeLimit     int
	HistoryLimit       int
	KnowledgeThreshold float64
	HistoryThreshold   float64

	// Engagement
	CharacterName  string
	SpeakThreshold int

	// Sender history (optional, empty addr disables)
	RedisAddr     string
	RedisPassword string

	// Persona
	PersonaPath string

	// Server
	ServerPort string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables, with defaults
// matching the agent's deployed configuration.
func Load() Config {
	return Config{
		Backend: getEnv("LAINLLM_BACKEND", BackendLocal),

		LocalDBPath: getEnv("LAINLLM_DB_PATH", "lainllm.db"),

		KnowledgeServiceURL: getEnv("KNOWLEDGE_SERVICE_URL", "http://localhost:6333"),
		KnowledgeCollection: getEnv("KNOWLEDGE_COLLECTION", "lain_memory"),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "lain"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "memory"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		EmbedProvider:  getEnv("LAINLLM_EMBED_PROVIDER", ProviderOllama),
		EmbedModel:     getEnv("LAINLLM_EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("LAINLLM_EMBED_DIMENSION", 384),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),

		LLMProvider:     getEnv("LAINLLM_LLM_PROVIDER", ProviderOllama),
		LLMModel:        getEnv("LAINLLM_LLM_MODEL", "llama3"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		Temperature:   getEnvFloat("TEMPERATURE", 0.8),
		TopP:          getEnvFloat("TOP_P", 0.9),
		RepeatPenalty: getEnvFloat("REPEAT_PENALTY", 1.1),
		MaxTokens:     getEnvInt("MAX_TOKENS", 150),

		KnowledgeLimit:     getEnvInt("KNOWLEDGE_LIMIT", 10),
		HistoryLimit:       getEnvInt("HISTORY_LIMIT", 5),
		KnowledgeThreshold: getEnvFloat("KNOWLEDGE_THRESHOLD", 0.3),
		HistoryThreshold:   getEnvFloat("HISTORY_THRESHOLD", 0.5),

		CharacterName:  getEnv("CHARACTER_NAME", "lain"),
		SpeakThreshold: getEnvInt("SPEAK_THRESHOLD", 5),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		PersonaPath: getEnv("PERSONA_PATH", ""),

		ServerPort: getEnv("LAINLLM_PORT", "8001"),

		LogFile:  getEnv("LAINLLM_LOG_FILE", "/tmp/lainllm.log"),
		LogLevel: parseLogLevel(getEnv("LAINLLM_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
