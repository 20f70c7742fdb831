// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated raw metrics for one operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`
}

// Snapshot is a point-in-time view of all pipeline statistics.
type Snapshot struct {
	UptimeSeconds   float64            `json:"uptime_seconds"`
	Pipeline        *OperationSnapshot `json:"pipeline,omitempty"`
	Embedding       *OperationSnapshot `json:"embedding,omitempty"`
	RecallKnowledge *OperationSnapshot `json:"recall_knowledge,omitempty"`
	RecallHistory   *OperationSnapshot `json:"recall_history,omitempty"`
	LLMGenerate     *OperationSnapshot `json:"llm_generate,omitempty"`
	Counters        map[string]int64   `json:"counters,omitempty"`
}

// Operation names for the collector.
const (
	OpPipeline        = "pipeline"
	OpEmbedding       = "embedding"
	OpRecallKnowledge = "recall_knowledge"
	OpRecallHistory   = "recall_history"
	OpLLMGenerate     = "llm_generate"
)

// Counter names.
const (
	CounterRequests        = "requests"
	CounterFallbackReplies = "fallback_replies"
	CounterDegradedRecalls = "degraded_recalls"
	CounterMemoryWrites    = "memory_writes"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
	counters  map[string]int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		counters:  make(map[string]int64),
	}
}

// getOrCreate returns existing metrics or creates new ones for an
// operation. Caller must hold the write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// Increment bumps a named counter.
func (c *Collector) Increment(counter string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[counter]++
}

// snapshotOp creates a snapshot for an operation, nil if no data.
func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}
	return &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counters := make(map[string]int64, len(c.counters))
	for k, v := range c.counters {
		counters[k] = v
	}

	return Snapshot{
		UptimeSeconds:   time.Since(c.startTime).Seconds(),
		Pipeline:        snapshotOp(c.ops[OpPipeline]),
		Embedding:       snapshotOp(c.ops[OpEmbedding]),
		RecallKnowledge: snapshotOp(c.ops[OpRecallKnowledge]),
		RecallHistory:   snapshotOp(c.ops[OpRecallHistory]),
		LLMGenerate:     snapshotOp(c.ops[OpLLMGenerate]),
		Counters:        counters,
	}
}
