package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// FactRecord is a stored knowledge fact. Relevance is only populated by
// search queries.
type FactRecord struct {
	ID        *surrealmodels.RecordID `json:"id,omitempty"`
	Topic     string                  `json:"topic"`
	Content   string                  `json:"content"`
	Embedding []float32               `json:"embedding,omitempty"`
	Relevance float64                 `json:"relevance,omitempty"`
}

// ExchangeRecord is a stored conversation exchange. Relevance is only
// populated by search queries.
type ExchangeRecord struct {
	ID        *surrealmodels.RecordID `json:"id,omitempty"`
	SenderID  string                  `json:"sender_id"`
	Message   string                  `json:"message"`
	Response  string                  `json:"response"`
	Mood      string                  `json:"mood"`
	Embedding []float32               `json:"embedding,omitempty"`
	Relevance float64                 `json:"relevance,omitempty"`
}

// QueryUpsertFact creates or updates a fact by ID. The ID is typically
// a slug of the topic so re-ingesting the same seed file is idempotent.
func (c *Client) QueryUpsertFact(
	ctx context.Context,
	id string,
	topic string,
	content string,
	embedding []float32,
) (*FactRecord, error) {
	sql := `
		UPSERT type::record("fact", $id) SET
			topic = $topic,
			content = $content,
			embedding = $embedding
		RETURN AFTER
	`

	results, err := surrealdb.Query[[]FactRecord](ctx, c.db, sql, map[string]any{
		"id":        id,
		"topic":     topic,
		"content":   content,
		"embedding": embedding,
	})
	if err != nil {
		return nil, wrapQueryError(fmt.Errorf("upsert fact: %w", err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("upsert fact: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// QuerySearchFacts performs HNSW vector search over facts and returns
// them with cosine similarity in Relevance, highest first.
func (c *Client) QuerySearchFacts(
	ctx context.Context,
	embedding []float32,
	limit int,
) ([]FactRecord, error) {
	// ef=40 for better recall
	sql := fmt.Sprintf(`
		SELECT id, topic, content,
			vector::similarity::cosine(embedding, $emb) AS relevance
		FROM fact
		WHERE embedding <|%d,40|> $emb
		ORDER BY relevance DESC
		LIMIT $limit
	`, limit)

	results, err := surrealdb.Query[[]FactRecord](ctx, c.db, sql, map[string]any{
		"emb":   embedding,
		"limit": limit,
	})
	if err != nil {
		return nil, wrapQueryError(fmt.Errorf("search facts: %w", err))
	}

	if results == nil || len(*results) == 0 {
		return []FactRecord{}, nil
	}
	return (*results)[0].Result, nil
}

// QueryCreateExchange stores one conversation exchange.
func (c *Client) QueryCreateExchange(
	ctx context.Context,
	id string,
	senderID string,
	message string,
	response string,
	mood string,
	embedding []float32,
) error {
	sql := `
		CREATE type::record("exchange", $id) SET
			sender_id = $sender_id,
			message = $message,
			response = $response,
			mood = $mood,
			embedding = $embedding
	`

	_, err := surrealdb.Query[any](ctx, c.db, sql, map[string]any{
		"id":        id,
		"sender_id": senderID,
		"message":   message,
		"response":  response,
		"mood":      mood,
		"embedding": embedding,
	})
	if err != nil {
		return wrapQueryError(fmt.Errorf("create exchange: %w", err))
	}
	return nil
}

// QuerySearchExchanges performs HNSW vector search over one sender's
// exchanges, cosine similarity in Relevance, highest first.
func (c *Client) QuerySearchExchanges(
	ctx context.Context,
	senderID string,
	embedding []float32,
	limit int,
) ([]ExchangeRecord, error) {
	sql := fmt.Sprintf(`
		SELECT id, sender_id, message, response, mood,
			vector::similarity::cosine(embedding, $emb) AS relevance
		FROM exchange
		WHERE embedding <|%d,40|> $emb AND sender_id = $sender_id
		ORDER BY relevance DESC
		LIMIT $limit
	`, limit*2)

	results, err := surrealdb.Query[[]ExchangeRecord](ctx, c.db, sql, map[string]any{
		"emb":       embedding,
		"sender_id": senderID,
		"limit":     limit,
	})
	if err != nil {
		return nil, wrapQueryError(fmt.Errorf("search exchanges: %w", err))
	}

	if results == nil || len(*results) == 0 {
		return []ExchangeRecord{}, nil
	}
	return (*results)[0].Result, nil
}

// QueryCountFacts returns the number of stored facts.
func (c *Client) QueryCountFacts(ctx context.Context) (int, error) {
	return c.countTable(ctx, "fact")
}

// QueryCountExchanges returns the number of stored exchanges.
func (c *Client) QueryCountExchanges(ctx context.Context) (int, error) {
	return c.countTable(ctx, "exchange")
}

func (c *Client) countTable(ctx context.Context, table string) (int, error) {
	sql := fmt.Sprintf(`SELECT count() AS c FROM %s GROUP ALL`, table)

	results, err := surrealdb.Query[[]struct {
		C int `json:"c"`
	}](ctx, c.db, sql, nil)
	if err != nil {
		return 0, wrapQueryError(fmt.Errorf("count %s: %w", table, err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].C, nil
}
