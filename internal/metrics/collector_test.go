package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordTiming(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpLLMGenerate, 100*time.Millisecond)
	c.RecordTiming(OpLLMGenerate, 300*time.Millisecond)

	snap := c.Snapshot()
	if snap.LLMGenerate == nil {
		t.Fatal("LLMGenerate snapshot missing")
	}
	if snap.LLMGenerate.Count != 2 {
		t.Errorf("count = %d, want 2", snap.LLMGenerate.Count)
	}
	if snap.LLMGenerate.MinTimeMs != 100 || snap.LLMGenerate.MaxTimeMs != 300 {
		t.Errorf("min/max = %d/%d, want 100/300",
			snap.LLMGenerate.MinTimeMs, snap.LLMGenerate.MaxTimeMs)
	}
	if snap.LLMGenerate.AvgTimeMs != 200 {
		t.Errorf("avg = %f, want 200", snap.LLMGenerate.AvgTimeMs)
	}

	// Unrecorded operations stay nil rather than reporting zeros.
	if snap.Embedding != nil {
		t.Error("Embedding snapshot should be nil with no data")
	}
}

func TestIncrement(t *testing.T) {
	c := NewCollector()

	c.Increment(CounterFallbackReplies)
	c.Increment(CounterFallbackReplies)
	c.Increment(CounterRequests)

	snap := c.Snapshot()
	if snap.Counters[CounterFallbackReplies] != 2 {
		t.Errorf("fallback_replies = %d, want 2", snap.Counters[CounterFallbackReplies])
	}
	if snap.Counters[CounterRequests] != 1 {
		t.Errorf("requests = %d, want 1", snap.Counters[CounterRequests])
	}
}

func TestCollectorConcurrency(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordTiming(OpPipeline, time.Millisecond)
			c.Increment(CounterRequests)
			_ = c.Snapshot()
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.Pipeline.Count != 50 {
		t.Errorf("pipeline count = %d, want 50", snap.Pipeline.Count)
	}
	if snap.Counters[CounterRequests] != 50 {
		t.Errorf("requests = %d, want 50", snap.Counters[CounterRequests])
	}
}
