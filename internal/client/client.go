// Package client talks to a running LainLLM server over its HTTP and
// WebSocket API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lainlives/lainllm-go/internal/metrics"
)

// Client is an HTTP client for the LainLLM server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given base URL.
// If baseURL is empty, uses the LAINLLM_SERVER_URL env var or defaults
// to localhost:8001. Timeout can be configured via LAINLLM_CLIENT_TIMEOUT
// (default 2m, generation can be slow on CPU-bound hosts).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("LAINLLM_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8001"
	}

	timeout := 2 * time.Minute
	if t := os.Getenv("LAINLLM_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateRequest is one chat message to the server.
type GenerateRequest struct {
	Message       string `json:"message"`
	SenderID      string `json:"sender_id,omitempty"`
	IncludeMemory *bool  `json:"include_memory,omitempty"`
}

// GenerateResult is the server's reply to a generation request.
type GenerateResult struct {
	ResponseText          string  `json:"response_text"`
	AnimationTag          string  `json:"animation_tag"`
	MoodTag               string  `json:"mood_tag"`
	ShouldSpeak           bool    `json:"should_speak"`
	EngagementScore       int     `json:"engagement_score"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	Path                  string  `json:"path"`
	Degraded              bool    `json:"degraded"`
}

// HealthStatus reports server and backend availability.
type HealthStatus struct {
	Status  string `json:"status"`
	Backend bool   `json:"backend"`
	Model   string `json:"model"`
	Encoder string `json:"encoder"`
	Version string `json:"version"`
}

// MemoryStats holds backend record counts.
type MemoryStats struct {
	Facts     int `json:"facts"`
	Exchanges int `json:"exchanges"`
}

// GenerationParams are the server's active sampling settings.
type GenerationParams struct {
	MaxTokens     int     `json:"max_tokens"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

// Stats combines runtime metrics with memory counts and model settings.
type Stats struct {
	Runtime    metrics.Snapshot `json:"runtime"`
	Memory     *MemoryStats     `json:"memory,omitempty"`
	Model      string           `json:"model"`
	Generation GenerationParams `json:"generation"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Generate sends one message and returns the structured reply.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	var result GenerateResult
	if err := c.do(ctx, http.MethodPost, "/generate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health queries the server's health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Stats queries the server's runtime and memory statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// do sends one request and decodes the JSON response into result.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// ChatSession is a persistent WebSocket conversation with the server.
type ChatSession struct {
	conn *websocket.Conn
}

// OpenChat dials the server's WebSocket endpoint.
func (c *Client) OpenChat(ctx context.Context) (*ChatSession, error) {
	wsEndpoint := c.baseURL + "/ws"
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}
	return &ChatSession{conn: conn}, nil
}

// Send writes one message frame.
func (s *ChatSession) Send(req GenerateRequest) error {
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// chatFrame carries either a result or an error from the server.
type chatFrame struct {
	GenerateResult
	Error string `json:"error,omitempty"`
}

// Receive reads the next reply frame. Server-side validation errors come
// back as a normal error without closing the session.
func (s *ChatSession) Receive() (*GenerateResult, error) {
	var frame chatFrame
	if err := s.conn.ReadJSON(&frame); err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	if frame.Error != "" {
		return nil, fmt.Errorf("server error: %s", frame.Error)
	}
	return &frame.GenerateResult, nil
}

// Close ends the session.
func (s *ChatSession) Close() error {
	return s.conn.Close()
}
