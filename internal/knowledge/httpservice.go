package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lainlives/lainllm-go/internal/models"
)

// HTTPService talks to a remote Qdrant-compatible vector service over
// its REST API. Facts and exchanges live in one collection,
// discriminated by a "type" payload field.
type HTTPService struct {
	baseURL    string
	collection string
	embedder   Embedder
	thresholds Thresholds
	httpClient *http.Client
}

var _ Backend = (*HTTPService)(nil)

// NewHTTPService creates a client for the remote knowledge service.
func NewHTTPService(baseURL, collection string, embedder Embedder, thresholds Thresholds) *HTTPService {
	return &HTTPService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		collection: collection,
		embedder:   embedder,
		thresholds: thresholds,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// pointPayload is the stored payload of one vector point.
type pointPayload struct {
	Type     string `json:"type"` // "fact" or "exchange"
	Topic    string `json:"topic,omitempty"`
	Content  string `json:"content,omitempty"`
	SenderID string `json:"sender_id,omitempty"`
	Message  string `json:"message,omitempty"`
	Response string `json:"response,omitempty"`
	Mood     string `json:"mood,omitempty"`
}

type scoredPoint struct {
	ID      any          `json:"id"`
	Score   float64      `json:"score"`
	Payload pointPayload `json:"payload"`
}

type fieldMatch struct {
	Key   string `json:"key"`
	Match struct {
		Value string `json:"value"`
	} `json:"match"`
}

func matchField(key, value string) fieldMatch {
	var m fieldMatch
	m.Key = key
	m.Match.Value = value
	return m
}

type searchFilter struct {
	Must []fieldMatch `json:"must"`
}

type searchRequest struct {
	Vector         []float32     `json:"vector"`
	Limit          int           `json:"limit"`
	WithPayload    bool          `json:"with_payload"`
	ScoreThreshold float64       `json:"score_threshold,omitempty"`
	Filter         *searchFilter `json:"filter,omitempty"`
}

// EnsureCollection creates the collection if it does not exist.
// Idempotent: an "already exists" response is not an error.
func (s *HTTPService) EnsureCollection(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.embedder.Dimension(),
			"distance": "Cosine",
		},
	}

	var result json.RawMessage
	err := s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", s.collection), body, &result)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("ensure collection: %w", err)
	}
	return nil
}

func (s *HTTPService) RecallKnowledge(ctx context.Context, query string, limit int) FactRecall {
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("remote knowledge recall degraded", "stage", "embed", "error", err)
		return FactRecall{Degraded: true}
	}

	points, err := s.search(ctx, searchRequest{
		Vector:         emb,
		Limit:          limit,
		WithPayload:    true,
		ScoreThreshold: s.thresholds.Knowledge,
		Filter:         &searchFilter{Must: []fieldMatch{matchField("type", "fact")}},
	})
	if err != nil {
		slog.Warn("remote knowledge recall degraded", "stage", "search", "error", err)
		return FactRecall{Degraded: true}
	}

	facts := make([]models.KnowledgeFact, 0, len(points))
	for _, p := range points {
		facts = append(facts, models.KnowledgeFact{
			Topic:     p.Payload.Topic,
			Content:   p.Payload.Content,
			Relevance: p.Score,
		})
	}
	return FactRecall{Facts: facts}
}

func (s *HTTPService) RecallHistory(ctx context.Context, senderID, query string, limit int) HistoryRecall {
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("remote history recall degraded", "stage", "embed", "error", err)
		return HistoryRecall{Degraded: true}
	}

	points, err := s.search(ctx, searchRequest{
		Vector:         emb,
		Limit:          limit,
		WithPayload:    true,
		ScoreThreshold: s.thresholds.History,
		Filter: &searchFilter{Must: []fieldMatch{
			matchField("type", "exchange"),
			matchField("sender_id", senderID),
		}},
	})
	if err != nil {
		slog.Warn("remote history recall degraded", "stage", "search", "error", err)
		return HistoryRecall{Degraded: true}
	}

	memories := make([]models.ConversationMemory, 0, len(points))
	for _, p := range points {
		memories = append(memories, models.ConversationMemory{
			SenderID:      p.Payload.SenderID,
			PriorMessage:  p.Payload.Message,
			PriorResponse: p.Payload.Response,
			Relevance:     p.Score,
		})
	}
	return HistoryRecall{Memories: memories}
}

func (s *HTTPService) Remember(ctx context.Context, ex models.Exchange) error {
	emb, err := s.embedder.Embed(ctx, ex.Message)
	if err != nil {
		return fmt.Errorf("embed exchange: %w", err)
	}

	return s.upsertPoint(ctx, uuid.NewString(), emb, pointPayload{
		Type:     "exchange",
		SenderID: ex.SenderID,
		Message:  ex.Message,
		Response: ex.Response,
		Mood:     string(ex.Mood),
	})
}

func (s *HTTPService) StoreFact(ctx context.Context, topic, content string) error {
	emb, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed fact: %w", err)
	}

	// Deterministic point ID per topic so re-ingesting overwrites.
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("fact:"+topicSlug(topic))).String()
	return s.upsertPoint(ctx, id, emb, pointPayload{
		Type:    "fact",
		Topic:   topic,
		Content: content,
	})
}

func (s *HTTPService) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (s *HTTPService) Stats(ctx context.Context) (Stats, error) {
	facts, err := s.count(ctx, "fact")
	if err != nil {
		return Stats{}, err
	}
	exchanges, err := s.count(ctx, "exchange")
	if err != nil {
		return Stats{}, err
	}
	return Stats{Facts: facts, Exchanges: exchanges}, nil
}

func (s *HTTPService) Close(context.Context) error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *HTTPService) search(ctx context.Context, req searchRequest) ([]scoredPoint, error) {
	var result []scoredPoint
	path := fmt.Sprintf("/collections/%s/points/search", s.collection)
	if err := s.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}
	return result, nil
}

func (s *HTTPService) upsertPoint(ctx context.Context, id string, vector []float32, payload pointPayload) error {
	body := map[string]any{
		"points": []map[string]any{{
			"id":      id,
			"vector":  vector,
			"payload": payload,
		}},
	}

	var result json.RawMessage
	path := fmt.Sprintf("/collections/%s/points", s.collection)
	if err := s.do(ctx, http.MethodPut, path, body, &result); err != nil {
		return fmt.Errorf("upsert point: %w", err)
	}
	return nil
}

func (s *HTTPService) count(ctx context.Context, pointType string) (int, error) {
	body := map[string]any{
		"exact":  true,
		"filter": searchFilter{Must: []fieldMatch{matchField("type", pointType)}},
	}

	var result struct {
		Count int `json:"count"`
	}
	path := fmt.Sprintf("/collections/%s/points/count", s.collection)
	if err := s.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return result.Count, nil
}

// serviceResponse is the envelope every REST endpoint returns.
type serviceResponse struct {
	Status json.RawMessage `json:"status"`
	Result json.RawMessage `json:"result"`
}

// do sends a JSON request and decodes the result envelope into out.
func (s *HTTPService) do(ctx context.Context, method, path string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server error: %s - %s", resp.Status, string(respBody))
	}

	var envelope serviceResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}
