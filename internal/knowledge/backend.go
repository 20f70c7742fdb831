// Package knowledge provides the pluggable memory backends: a local
// sqlite store, a remote HTTP vector service, and a SurrealDB RPC
// service. All three expose the same recall and persistence contract.
package knowledge

import (
	"context"
	"fmt"

	"github.com/lainlives/lainllm-go/internal/config"
	"github.com/lainlives/lainllm-go/internal/models"
)

// Embedder turns text into a vector. Satisfied by llm.Embedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// FactRecall is the result of a knowledge lookup. Degraded marks a
// failed or unavailable backend; the pipeline proceeds with whatever
// facts are present.
type FactRecall struct {
	Facts    []models.KnowledgeFact
	Degraded bool
}

// HistoryRecall is the result of a conversation-memory lookup.
type HistoryRecall struct {
	Memories []models.ConversationMemory
	Degraded bool
}

// Stats reports stored record counts for the /stats endpoint.
type Stats struct {
	Facts     int `json:"facts"`
	Exchanges int `json:"exchanges"`
}

// Backend is the memory contract. Recall methods never return errors:
// a backend failure degrades to an empty result so generation always
// proceeds. Write methods do return errors; their callers decide
// whether a failed write matters.
type Backend interface {
	// RecallKnowledge returns facts relevant to the query, best first.
	RecallKnowledge(ctx context.Context, query string, limit int) FactRecall

	// RecallHistory returns past exchanges with the given sender that
	// are relevant to the query, best first.
	RecallHistory(ctx context.Context, senderID, query string, limit int) HistoryRecall

	// Remember persists a completed exchange for future recall.
	Remember(ctx context.Context, ex models.Exchange) error

	// StoreFact adds or updates a knowledge fact.
	StoreFact(ctx context.Context, topic, content string) error

	// Healthy reports whether the backend can serve queries.
	Healthy(ctx context.Context) bool

	// Stats returns stored record counts.
	Stats(ctx context.Context) (Stats, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// New creates the backend selected by configuration.
func New(ctx context.Context, cfg config.Config, embedder Embedder) (Backend, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		return NewLocalStore(cfg.LocalDBPath, embedder, Thresholds{
			Knowledge: cfg.KnowledgeThreshold,
			History:   cfg.HistoryThreshold,
		})
	case config.BackendHTTP:
		svc := NewHTTPService(cfg.KnowledgeServiceURL, cfg.KnowledgeCollection, embedder, Thresholds{
			Knowledge: cfg.KnowledgeThreshold,
			History:   cfg.HistoryThreshold,
		})
		// Writes fail against a service without the collection, so it is
		// created up front rather than lazily.
		if err := svc.EnsureCollection(ctx); err != nil {
			return nil, fmt.Errorf("create http backend: %w", err)
		}
		return svc, nil
	case config.BackendRPC:
		return NewRPCService(ctx, cfg, embedder)
	default:
		return nil, fmt.Errorf("unsupported knowledge backend: %s", cfg.Backend)
	}
}

// Thresholds are minimum similarity scores for recall results. Matches
// below the threshold are discarded.
type Thresholds struct {
	Knowledge float64
	History   float64
}
