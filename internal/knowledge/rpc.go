package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lainlives/lainllm-go/internal/config"
	"github.com/lainlives/lainllm-go/internal/db"
	"github.com/lainlives/lainllm-go/internal/models"
)

// RPCService is the SurrealDB-backed memory backend. Vector search runs
// server-side against HNSW indexes; thresholds are applied here because
// the index operator has no score cutoff.
type RPCService struct {
	client     *db.Client
	embedder   Embedder
	thresholds Thresholds
}

var _ Backend = (*RPCService)(nil)

// NewRPCService connects to SurrealDB and initializes the memory
// schema.
func NewRPCService(ctx context.Context, cfg config.Config, embedder Embedder) (*RPCService, error) {
	client, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("connect rpc backend: %w", err)
	}

	if err := client.InitSchema(ctx, embedder.Dimension()); err != nil {
		_ = client.Close(ctx)
		return nil, fmt.Errorf("init rpc schema: %w", err)
	}

	return &RPCService{
		client:   client,
		embedder: embedder,
		thresholds: Thresholds{
			Knowledge: cfg.KnowledgeThreshold,
			History:   cfg.HistoryThreshold,
		},
	}, nil
}

func (s *RPCService) RecallKnowledge(ctx context.Context, query string, limit int) FactRecall {
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("rpc knowledge recall degraded", "stage", "embed", "error", err)
		return FactRecall{Degraded: true}
	}

	records, err := s.client.QuerySearchFacts(ctx, emb, limit)
	if err != nil {
		slog.Warn("rpc knowledge recall degraded", "stage", "search", "error", err)
		return FactRecall{Degraded: true}
	}

	var facts []models.KnowledgeFact
	for _, r := range records {
		if r.Relevance < s.thresholds.Knowledge {
			continue
		}
		facts = append(facts, models.KnowledgeFact{
			Topic:     r.Topic,
			Content:   r.Content,
			Relevance: r.Relevance,
		})
	}
	return FactRecall{Facts: facts}
}

func (s *RPCService) RecallHistory(ctx context.Context, senderID, query string, limit int) HistoryRecall {
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("rpc history recall degraded", "stage", "embed", "error", err)
		return HistoryRecall{Degraded: true}
	}

	records, err := s.client.QuerySearchExchanges(ctx, senderID, emb, limit)
	if err != nil {
		slog.Warn("rpc history recall degraded", "stage", "search", "error", err)
		return HistoryRecall{Degraded: true}
	}

	var memories []models.ConversationMemory
	for _, r := range records {
		if r.Relevance < s.thresholds.History {
			continue
		}
		memories = append(memories, models.ConversationMemory{
			SenderID:      r.SenderID,
			PriorMessage:  r.Message,
			PriorResponse: r.Response,
			Relevance:     r.Relevance,
		})
		if len(memories) == limit {
			break
		}
	}
	return HistoryRecall{Memories: memories}
}

func (s *RPCService) Remember(ctx context.Context, ex models.Exchange) error {
	emb, err := s.embedder.Embed(ctx, ex.Message)
	if err != nil {
		return fmt.Errorf("embed exchange: %w", err)
	}
	return s.client.QueryCreateExchange(ctx, uuid.NewString(),
		ex.SenderID, ex.Message, ex.Response, string(ex.Mood), emb)
}

func (s *RPCService) StoreFact(ctx context.Context, topic, content string) error {
	emb, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed fact: %w", err)
	}
	_, err = s.client.QueryUpsertFact(ctx, topicSlug(topic), topic, content, emb)
	return err
}

func (s *RPCService) Healthy(ctx context.Context) bool {
	return s.client.Ping(ctx) == nil
}

func (s *RPCService) Stats(ctx context.Context) (Stats, error) {
	facts, err := s.client.QueryCountFacts(ctx)
	if err != nil {
		return Stats{}, err
	}
	exchanges, err := s.client.QueryCountExchanges(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Facts: facts, Exchanges: exchanges}, nil
}

func (s *RPCService) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
