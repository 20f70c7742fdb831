// Package pipeline wires scoring, recall, prompt assembly, inference,
// and parsing into one generation flow. The pipeline never fails a
// request outright: every degradation path still yields a reply.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lainlives/lainllm-go/internal/engagement"
	"github.com/lainlives/lainllm-go/internal/history"
	"github.com/lainlives/lainllm-go/internal/knowledge"
	"github.com/lainlives/lainllm-go/internal/llm"
	"github.com/lainlives/lainllm-go/internal/metrics"
	"github.com/lainlives/lainllm-go/internal/models"
	"github.com/lainlives/lainllm-go/internal/parser"
	"github.com/lainlives/lainllm-go/internal/prompt"
)

// Generator produces a completion for a rendered prompt. Satisfied by
// llm.Model.
type Generator interface {
	Generate(ctx context.Context, prompt string, gen llm.GenerationConfig) (string, error)
}

// Request is one generation request.
type Request struct {
	Message       models.Message
	IncludeMemory bool
}

// Result is the pipeline's response. The wire shape keeps the agent's
// original field names so existing front-end clients keep working.
type Result struct {
	ResponseText          string              `json:"response_text"`
	AnimationTag          models.AnimationTag `json:"animation_tag"`
	MoodTag               models.MoodTag      `json:"mood_tag"`
	ShouldSpeak           bool                `json:"should_speak"`
	EngagementScore       int                 `json:"engagement_score"`
	ProcessingTimeSeconds float64             `json:"processing_time_seconds"`
	Path                  parser.State        `json:"path"`
	Degraded              bool                `json:"degraded"`
}

// Options bundles the orchestrator's collaborators and tuning.
type Options struct {
	Scorer    *engagement.Scorer
	Backend   knowledge.Backend
	Assembler *prompt.Assembler
	Model     Generator
	GenConfig llm.GenerationConfig
	Parser    *parser.Parser
	Tracker   *history.Tracker // nil disables sender tracking
	Collector *metrics.Collector

	KnowledgeLimit int
	HistoryLimit   int
}

// Orchestrator runs the generation pipeline.
type Orchestrator struct {
	opts Options
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{opts: opts}
}

// Generate runs the full pipeline for one message.
func (o *Orchestrator) Generate(ctx context.Context, req Request) Result {
	start := time.Now()
	o.opts.Collector.Increment(metrics.CounterRequests)

	msg := req.Message
	if msg.Timestamp.IsZero() {
		msg.Timestamp = start
	}

	senderHist := o.senderHistory(ctx, msg.SenderID)
	score := o.opts.Scorer.Score(msg.Text, senderHist)

	facts, memories, degraded := o.recall(ctx, msg, req.IncludeMemory)

	genReq := o.opts.Assembler.Assemble(facts, memories, msg)

	raw := o.infer(ctx, genReq.Prompt)

	parsed := o.opts.Parser.Parse(raw, msg.Text, score)
	if parsed.Path == parser.StateFallbackRules {
		o.opts.Collector.Increment(metrics.CounterFallbackReplies)
	}

	o.persist(ctx, msg, parsed.Reply)

	elapsed := time.Since(start)
	o.opts.Collector.RecordTiming(metrics.OpPipeline, elapsed)

	slog.Info("generation complete",
		"sender", msg.SenderID,
		"score", score,
		"path", parsed.Path,
		"degraded", degraded,
		"duration_ms", elapsed.Milliseconds())

	return Result{
		ResponseText:          parsed.Reply.Text,
		AnimationTag:          parsed.Reply.Animation,
		MoodTag:               parsed.Reply.Mood,
		ShouldSpeak:           parsed.Reply.ShouldSpeak,
		EngagementScore:       score,
		ProcessingTimeSeconds: elapsed.Seconds(),
		Path:                  parsed.Path,
		Degraded:              degraded,
	}
}

// senderHistory loads tracking data for known senders. Tracking
// failures count the sender as unknown rather than failing the request.
func (o *Orchestrator) senderHistory(ctx context.Context, senderID string) *models.SenderHistory {
	if o.opts.Tracker == nil || senderID == "" {
		return nil
	}
	hist, err := o.opts.Tracker.Get(ctx, senderID)
	if err != nil {
		slog.Warn("sender history unavailable", "sender", senderID, "error", err)
		return nil
	}
	return hist
}

// recall fetches knowledge and conversation memory concurrently.
func (o *Orchestrator) recall(ctx context.Context, msg models.Message, includeMemory bool) ([]models.KnowledgeFact, []models.ConversationMemory, bool) {
	var (
		wg          sync.WaitGroup
		factRecall  knowledge.FactRecall
		histRecall  knowledge.HistoryRecall
		wantHistory = includeMemory && !msg.Anonymous()
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		factRecall = o.opts.Backend.RecallKnowledge(ctx, msg.Text, o.opts.KnowledgeLimit)
		o.opts.Collector.RecordTiming(metrics.OpRecallKnowledge, time.Since(start))
	}()

	if wantHistory {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			histRecall = o.opts.Backend.RecallHistory(ctx, msg.SenderID, msg.Text, o.opts.HistoryLimit)
			o.opts.Collector.RecordTiming(metrics.OpRecallHistory, time.Since(start))
		}()
	}

	wg.Wait()

	degraded := factRecall.Degraded || histRecall.Degraded
	if degraded {
		o.opts.Collector.Increment(metrics.CounterDegradedRecalls)
	}
	return factRecall.Facts, histRecall.Memories, degraded
}

// infer runs generation. On failure it returns empty output, which the
// parser turns into a rule-based reply.
func (o *Orchestrator) infer(ctx context.Context, renderedPrompt string) string {
	start := time.Now()
	raw, err := o.opts.Model.Generate(ctx, renderedPrompt, o.opts.GenConfig)
	o.opts.Collector.RecordTiming(metrics.OpLLMGenerate, time.Since(start))
	if err != nil {
		slog.Warn("inference failed, using fallback rules", "error", err)
		return ""
	}
	return raw
}

// persist writes the exchange and sender tracking in the background.
// The response has already been decided; a failed write only costs
// future recall, so it is logged and dropped.
func (o *Orchestrator) persist(ctx context.Context, msg models.Message, reply models.StructuredReply) {
	if msg.Anonymous() {
		return
	}

	// Detached from the request so an early client disconnect does not
	// cancel the write.
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		writeCtx, cancel := context.WithTimeout(bgCtx, 15*time.Second)
		defer cancel()

		err := o.opts.Backend.Remember(writeCtx, models.Exchange{
			SenderID:  msg.SenderID,
			Message:   msg.Text,
			Response:  reply.Text,
			Mood:      reply.Mood,
			Timestamp: msg.Timestamp,
		})
		if err != nil {
			slog.Warn("memory write failed", "sender", msg.SenderID, "error", err)
		} else {
			o.opts.Collector.Increment(metrics.CounterMemoryWrites)
		}

		if o.opts.Tracker != nil {
			if err := o.opts.Tracker.Touch(writeCtx, msg.SenderID); err != nil {
				slog.Warn("sender tracking update failed", "sender", msg.SenderID, "error", err)
			}
		}
	}()
}
