package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lainlives/lainllm-go/internal/engagement"
	"github.com/lainlives/lainllm-go/internal/knowledge"
	"github.com/lainlives/lainllm-go/internal/llm"
	"github.com/lainlives/lainllm-go/internal/metrics"
	"github.com/lainlives/lainllm-go/internal/models"
	"github.com/lainlives/lainllm-go/internal/parser"
	"github.com/lainlives/lainllm-go/internal/persona"
	"github.com/lainlives/lainllm-go/internal/prompt"
)

// fakeBackend records calls and serves canned recalls.
type fakeBackend struct {
	mu             sync.Mutex
	facts          []models.KnowledgeFact
	memories       []models.ConversationMemory
	degradeFacts   bool
	historyQueried bool
	remembered     chan models.Exchange
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{remembered: make(chan models.Exchange, 1)}
}

func (f *fakeBackend) RecallKnowledge(context.Context, string, int) knowledge.FactRecall {
	if f.degradeFacts {
		return knowledge.FactRecall{Degraded: true}
	}
	return knowledge.FactRecall{Facts: f.facts}
}

func (f *fakeBackend) RecallHistory(context.Context, string, string, int) knowledge.HistoryRecall {
	f.mu.Lock()
	f.historyQueried = true
	f.mu.Unlock()
	return knowledge.HistoryRecall{Memories: f.memories}
}

func (f *fakeBackend) Remember(_ context.Context, ex models.Exchange) error {
	f.remembered <- ex
	return nil
}

func (f *fakeBackend) StoreFact(context.Context, string, string) error { return nil }
func (f *fakeBackend) Healthy(context.Context) bool                    { return true }
func (f *fakeBackend) Stats(context.Context) (knowledge.Stats, error)  { return knowledge.Stats{}, nil }
func (f *fakeBackend) Close(context.Context) error                     { return nil }

func (f *fakeBackend) wasHistoryQueried() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyQueried
}

// fakeModel returns a fixed completion or an error.
type fakeModel struct {
	output string
	err    error
	prompt string
	mu     sync.Mutex
}

func (f *fakeModel) Generate(_ context.Context, p string, _ llm.GenerationConfig) (string, error) {
	f.mu.Lock()
	f.prompt = p
	f.mu.Unlock()
	return f.output, f.err
}

func newTestOrchestrator(backend knowledge.Backend, model Generator) *Orchestrator {
	return New(Options{
		Scorer:         engagement.NewScorer("lain"),
		Backend:        backend,
		Assembler:      prompt.NewAssembler(persona.Default()),
		Model:          model,
		GenConfig:      llm.GenerationConfig{MaxTokens: 150, Temperature: 0.8},
		Parser:         parser.New(5),
		Collector:      metrics.NewCollector(),
		KnowledgeLimit: 10,
		HistoryLimit:   5,
	})
}

func waitForExchange(t *testing.T, ch chan models.Exchange) models.Exchange {
	t.Helper()
	select {
	case ex := <-ch:
		return ex
	case <-time.After(2 * time.Second):
		t.Fatal("exchange was not persisted")
		return models.Exchange{}
	}
}

func TestGenerateStructuredPath(t *testing.T) {
	backend := newFakeBackend()
	backend.facts = []models.KnowledgeFact{{Topic: "the Wired", Content: "layered network", Relevance: 0.9}}
	backend.memories = []models.ConversationMemory{{PriorMessage: "hi", PriorResponse: "present day", Relevance: 0.8}}

	model := &fakeModel{output: `{"text":"the network remembers you","animation":"nod","mood":"cryptic","should_speak":true}`}
	o := newTestOrchestrator(backend, model)

	res := o.Generate(context.Background(), Request{
		Message:       models.Message{Text: "tell me about the wired, lain?", SenderID: "alice"},
		IncludeMemory: true,
	})

	if res.Path != parser.StateJSONExtracted {
		t.Fatalf("path = %q, want json_extracted", res.Path)
	}
	if res.ResponseText != "the network remembers you" {
		t.Errorf("reply text = %q", res.ResponseText)
	}
	if res.AnimationTag != models.AnimationNod || res.MoodTag != models.MoodCryptic {
		t.Errorf("reply tags = %q/%q", res.AnimationTag, res.MoodTag)
	}
	if !res.ShouldSpeak {
		t.Error("declared should_speak must survive to the result")
	}
	if res.ProcessingTimeSeconds < 0 {
		t.Errorf("processing time = %v, want non-negative seconds", res.ProcessingTimeSeconds)
	}
	if res.EngagementScore <= 0 {
		t.Errorf("score = %d, want positive for name mention and question", res.EngagementScore)
	}
	if res.Degraded {
		t.Error("result must not be degraded")
	}
	if !backend.wasHistoryQueried() {
		t.Error("history must be recalled for known sender with memory enabled")
	}

	// Retrieved context must reach the prompt.
	model.mu.Lock()
	sent := model.prompt
	model.mu.Unlock()
	for _, want := range []string{"layered network", "present day"} {
		if !strings.Contains(sent, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	ex := waitForExchange(t, backend.remembered)
	if ex.SenderID != "alice" || ex.Response != "the network remembers you" {
		t.Errorf("persisted exchange = %+v", ex)
	}
	if ex.Mood != models.MoodCryptic {
		t.Errorf("persisted mood = %q, want cryptic", ex.Mood)
	}
}

func TestGenerateFallbackOnInferenceFailure(t *testing.T) {
	backend := newFakeBackend()
	model := &fakeModel{err: errors.New("inference service down")}
	o := newTestOrchestrator(backend, model)

	res := o.Generate(context.Background(), Request{
		Message: models.Message{Text: "hello there", SenderID: "bob"},
	})

	if res.Path != parser.StateFallbackRules {
		t.Fatalf("path = %q, want fallback_rules", res.Path)
	}
	if res.ResponseText == "" {
		t.Error("fallback must produce text")
	}
	// Greeting category fires for "hello there".
	if res.AnimationTag != models.AnimationWave {
		t.Errorf("animation = %q, want wave", res.AnimationTag)
	}

	// The exchange is persisted even on the fallback path.
	waitForExchange(t, backend.remembered)
}

func TestGenerateAnonymousSkipsMemory(t *testing.T) {
	backend := newFakeBackend()
	model := &fakeModel{output: `{"text":"hm","animation":"idle","mood":"neutral"}`}
	o := newTestOrchestrator(backend, model)

	res := o.Generate(context.Background(), Request{
		Message:       models.Message{Text: "what is real?"},
		IncludeMemory: true,
	})

	if res.ResponseText != "hm" {
		t.Errorf("reply = %q", res.ResponseText)
	}
	if backend.wasHistoryQueried() {
		t.Error("anonymous message must not query history")
	}

	select {
	case ex := <-backend.remembered:
		t.Errorf("anonymous exchange was persisted: %+v", ex)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestGenerateMemoryDisabled(t *testing.T) {
	backend := newFakeBackend()
	model := &fakeModel{output: `{"text":"ok","animation":"talk","mood":"neutral"}`}
	o := newTestOrchestrator(backend, model)

	o.Generate(context.Background(), Request{
		Message:       models.Message{Text: "hi", SenderID: "carol"},
		IncludeMemory: false,
	})

	if backend.wasHistoryQueried() {
		t.Error("history must not be queried when memory is disabled")
	}
	// The write side is unaffected by the recall switch.
	waitForExchange(t, backend.remembered)
}

func TestGenerateDegradedRecall(t *testing.T) {
	backend := newFakeBackend()
	backend.degradeFacts = true
	model := &fakeModel{output: `{"text":"still here","animation":"talk","mood":"neutral"}`}
	o := newTestOrchestrator(backend, model)

	res := o.Generate(context.Background(), Request{
		Message: models.Message{Text: "anything", SenderID: "dave"},
	})

	if !res.Degraded {
		t.Error("degraded recall must be reported")
	}
	if res.ResponseText != "still here" {
		t.Error("generation must proceed despite degraded recall")
	}
	waitForExchange(t, backend.remembered)
}
