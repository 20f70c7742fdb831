package knowledge

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lainlives/lainllm-go/internal/models"
)

func newTestLocalStore(t *testing.T, emb Embedder) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "test.db"), emb, Thresholds{
		Knowledge: 0.3,
		History:   0.5,
	})
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestLocalStoreFactRecall(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"a network layered over reality":   {1, 0, 0},
		"consensus creates truth":          {0.7, 0.7, 0},
		"bears hibernate in winter":        {0, 1, 0},
		"tell me about the wired":          {1, 0, 0},
	}}
	store := newTestLocalStore(t, emb)

	for topic, content := range map[string]string{
		"the Wired": "a network layered over reality",
		"protocols": "consensus creates truth",
		"bears":     "bears hibernate in winter",
	} {
		if err := store.StoreFact(ctx, topic, content); err != nil {
			t.Fatalf("StoreFact(%q) error = %v", topic, err)
		}
	}

	recall := store.RecallKnowledge(ctx, "tell me about the wired", 10)
	if recall.Degraded {
		t.Fatal("recall must not be degraded")
	}
	// "bears" is orthogonal (similarity 0 < 0.3) and must be filtered.
	if len(recall.Facts) != 2 {
		t.Fatalf("got %d facts, want 2: %+v", len(recall.Facts), recall.Facts)
	}
	if recall.Facts[0].Topic != "the Wired" {
		t.Errorf("best fact = %q, want %q", recall.Facts[0].Topic, "the Wired")
	}
	if recall.Facts[0].Relevance < recall.Facts[1].Relevance {
		t.Error("facts must be ordered by descending relevance")
	}

	// Limit caps the result.
	capped := store.RecallKnowledge(ctx, "tell me about the wired", 1)
	if len(capped.Facts) != 1 {
		t.Errorf("got %d facts with limit 1, want 1", len(capped.Facts))
	}
}

func TestLocalStoreHistoryScopedBySender(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"who are you": {1, 0, 0},
		"hello":       {0.9, 0.1, 0},
	}}
	store := newTestLocalStore(t, emb)

	exchanges := []models.Exchange{
		{SenderID: "alice", Message: "who are you", Response: "i am everywhere", Mood: "cryptic"},
		{SenderID: "bob", Message: "hello", Response: "present day", Mood: "neutral"},
	}
	for _, ex := range exchanges {
		if err := store.Remember(ctx, ex); err != nil {
			t.Fatalf("Remember() error = %v", err)
		}
	}

	recall := store.RecallHistory(ctx, "alice", "who are you", 5)
	if recall.Degraded {
		t.Fatal("recall must not be degraded")
	}
	if len(recall.Memories) != 1 {
		t.Fatalf("got %d memories for alice, want 1", len(recall.Memories))
	}
	m := recall.Memories[0]
	if m.SenderID != "alice" || m.PriorMessage != "who are you" || m.PriorResponse != "i am everywhere" {
		t.Errorf("unexpected memory: %+v", m)
	}

	// Unknown sender recalls nothing without degrading.
	empty := store.RecallHistory(ctx, "mallory", "who are you", 5)
	if empty.Degraded || len(empty.Memories) != 0 {
		t.Errorf("unknown sender: degraded=%v memories=%d", empty.Degraded, len(empty.Memories))
	}
}

func TestLocalStoreDegradedOnEmbedFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t, &fakeEmbedder{fail: true})

	if recall := store.RecallKnowledge(ctx, "anything", 5); !recall.Degraded {
		t.Error("knowledge recall must degrade when embedding fails")
	}
	if recall := store.RecallHistory(ctx, "alice", "anything", 5); !recall.Degraded {
		t.Error("history recall must degrade when embedding fails")
	}
	if err := store.Remember(ctx, models.Exchange{SenderID: "a", Message: "m"}); err == nil {
		t.Error("Remember must surface the embedding error")
	}
}

func TestLocalStoreFactUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"first version":  {1, 0, 0},
		"second version": {1, 0, 0},
	}}
	store := newTestLocalStore(t, emb)

	if err := store.StoreFact(ctx, "the Wired", "first version"); err != nil {
		t.Fatal(err)
	}
	if err := store.StoreFact(ctx, "the Wired", "second version"); err != nil {
		t.Fatal(err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Facts != 1 {
		t.Errorf("facts = %d, want 1 after re-storing same topic", stats.Facts)
	}

	recall := store.RecallKnowledge(ctx, "first version", 1)
	if len(recall.Facts) != 1 || recall.Facts[0].Content != "second version" {
		t.Errorf("recall = %+v, want updated content", recall.Facts)
	}
}

func TestLocalStoreHealthyAndStats(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vectors: map[string][]float32{"c": {1, 0, 0}, "m": {1, 0, 0}}}
	store := newTestLocalStore(t, emb)

	if !store.Healthy(ctx) {
		t.Error("fresh store must be healthy")
	}

	_ = store.StoreFact(ctx, "t", "c")
	_ = store.Remember(ctx, models.Exchange{SenderID: "a", Message: "m", Response: "r", Mood: "neutral"})

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Facts != 1 || stats.Exchanges != 1 {
		t.Errorf("stats = %+v, want 1 fact and 1 exchange", stats)
	}
}
