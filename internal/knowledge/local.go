package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lainlives/lainllm-go/internal/models"
)

const localSchema = `
CREATE TABLE IF NOT EXISTS fact (
	id        TEXT PRIMARY KEY,
	topic     TEXT NOT NULL,
	content   TEXT NOT NULL,
	embedding TEXT NOT NULL,
	created   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS exchange (
	id        TEXT PRIMARY KEY,
	sender_id TEXT NOT NULL,
	message   TEXT NOT NULL,
	response  TEXT NOT NULL,
	mood      TEXT NOT NULL,
	embedding TEXT NOT NULL,
	created   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exchange_sender ON exchange(sender_id);
`

// LocalStore is the embedded sqlite backend. Embeddings are stored as
// JSON arrays and similarity is computed in process, which is fine for
// the few thousand records a single character accumulates.
type LocalStore struct {
	db         *sql.DB
	embedder   Embedder
	thresholds Thresholds
}

var _ Backend = (*LocalStore)(nil)

// NewLocalStore opens (or creates) the sqlite database at path.
func NewLocalStore(path string, embedder Embedder, thresholds Thresholds) (*LocalStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(localSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init local schema: %w", err)
	}

	return &LocalStore{db: db, embedder: embedder, thresholds: thresholds}, nil
}

func (s *LocalStore) RecallKnowledge(ctx context.Context, query string, limit int) FactRecall {
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("local knowledge recall degraded", "stage", "embed", "error", err)
		return FactRecall{Degraded: true}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT topic, content, embedding FROM fact`)
	if err != nil {
		slog.Warn("local knowledge recall degraded", "stage", "query", "error", err)
		return FactRecall{Degraded: true}
	}
	defer rows.Close()

	var facts []models.KnowledgeFact
	for rows.Next() {
		var topic, content, embJSON string
		if err := rows.Scan(&topic, &content, &embJSON); err != nil {
			slog.Warn("local knowledge recall degraded", "stage", "scan", "error", err)
			return FactRecall{Degraded: true}
		}

		score, ok := scoreAgainst(emb, embJSON)
		if !ok || score < s.thresholds.Knowledge {
			continue
		}
		facts = append(facts, models.KnowledgeFact{
			Topic:     topic,
			Content:   content,
			Relevance: score,
		})
	}
	if err := rows.Err(); err != nil {
		slog.Warn("local knowledge recall degraded", "stage", "rows", "error", err)
		return FactRecall{Degraded: true}
	}

	sort.SliceStable(facts, func(i, j int) bool { return facts[i].Relevance > facts[j].Relevance })
	if len(facts) > limit {
		facts = facts[:limit]
	}
	return FactRecall{Facts: facts}
}

func (s *LocalStore) RecallHistory(ctx context.Context, senderID, query string, limit int) HistoryRecall {
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("local history recall degraded", "stage", "embed", "error", err)
		return HistoryRecall{Degraded: true}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT message, response, embedding FROM exchange WHERE sender_id = ?`, senderID)
	if err != nil {
		slog.Warn("local history recall degraded", "stage", "query", "error", err)
		return HistoryRecall{Degraded: true}
	}
	defer rows.Close()

	var memories []models.ConversationMemory
	for rows.Next() {
		var message, response, embJSON string
		if err := rows.Scan(&message, &response, &embJSON); err != nil {
			slog.Warn("local history recall degraded", "stage", "scan", "error", err)
			return HistoryRecall{Degraded: true}
		}

		score, ok := scoreAgainst(emb, embJSON)
		if !ok || score < s.thresholds.History {
			continue
		}
		memories = append(memories, models.ConversationMemory{
			SenderID:      senderID,
			PriorMessage:  message,
			PriorResponse: response,
			Relevance:     score,
		})
	}
	if err := rows.Err(); err != nil {
		slog.Warn("local history recall degraded", "stage", "rows", "error", err)
		return HistoryRecall{Degraded: true}
	}

	sort.SliceStable(memories, func(i, j int) bool { return memories[i].Relevance > memories[j].Relevance })
	if len(memories) > limit {
		memories = memories[:limit]
	}
	return HistoryRecall{Memories: memories}
}

func (s *LocalStore) Remember(ctx context.Context, ex models.Exchange) error {
	emb, err := s.embedder.Embed(ctx, ex.Message)
	if err != nil {
		return fmt.Errorf("embed exchange: %w", err)
	}
	embJSON, err := json.Marshal(emb)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exchange (id, sender_id, message, response, mood, embedding, created)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), ex.SenderID, ex.Message, ex.Response, string(ex.Mood), string(embJSON),
		time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

func (s *LocalStore) StoreFact(ctx context.Context, topic, content string) error {
	emb, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed fact: %w", err)
	}
	embJSON, err := json.Marshal(emb)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	// Topic slug as primary key makes re-ingesting a seed file
	// idempotent.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fact (id, topic, content, embedding, created)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET content = excluded.content, embedding = excluded.embedding`,
		topicSlug(topic), topic, content, string(embJSON), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert fact: %w", err)
	}
	return nil
}

func (s *LocalStore) Healthy(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

func (s *LocalStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM fact`).Scan(&stats.Facts); err != nil {
		return Stats{}, fmt.Errorf("count facts: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM exchange`).Scan(&stats.Exchanges); err != nil {
		return Stats{}, fmt.Errorf("count exchanges: %w", err)
	}
	return stats, nil
}

func (s *LocalStore) Close(context.Context) error {
	return s.db.Close()
}

// scoreAgainst unmarshals a stored embedding and scores it against the
// query vector.
func scoreAgainst(query []float32, storedJSON string) (float64, bool) {
	var stored []float32
	if err := json.Unmarshal([]byte(storedJSON), &stored); err != nil {
		return 0, false
	}
	return cosineSimilarity(query, stored), true
}

// topicSlug normalizes a topic into a stable record ID.
func topicSlug(topic string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(topic)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	return b.String()
}
