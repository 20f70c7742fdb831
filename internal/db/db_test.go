//go:build integration

// Integration tests against a real SurrealDB container.
// Run with: go test -tags integration ./internal/db/
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *Client
var testContainer testcontainers.Container

func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx, 384); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

// dummyEmbedding returns a deterministic 384-dim vector, optionally
// perturbed so different records are not identical.
func dummyEmbedding(seed float32) []float32 {
	embedding := make([]float32, 384)
	for i := range embedding {
		embedding[i] = (float32(i) + seed) / 384.0
	}
	return embedding
}

func TestUpsertAndSearchFacts(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	fact, err := testDB.QueryUpsertFact(ctx, "the-wired", "the Wired",
		"a communication network layered over reality", dummyEmbedding(0))
	if err != nil {
		t.Fatalf("QueryUpsertFact failed: %v", err)
	}
	if fact.Topic != "the Wired" {
		t.Errorf("topic = %q, want %q", fact.Topic, "the Wired")
	}

	// Same ID again must update, not duplicate.
	_, err = testDB.QueryUpsertFact(ctx, "the-wired", "the Wired",
		"everyone is connected", dummyEmbedding(0))
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	count, err := testDB.QueryCountFacts(ctx)
	if err != nil {
		t.Fatalf("QueryCountFacts failed: %v", err)
	}
	if count != 1 {
		t.Errorf("fact count = %d, want 1 after re-upsert", count)
	}

	results, err := testDB.QuerySearchFacts(ctx, dummyEmbedding(0), 5)
	if err != nil {
		t.Fatalf("QuerySearchFacts failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one search result")
	}
	if results[0].Relevance <= 0.99 {
		t.Errorf("identical vector relevance = %f, want ~1.0", results[0].Relevance)
	}
	if results[0].Content != "everyone is connected" {
		t.Errorf("content = %q, want updated value", results[0].Content)
	}
}

func TestExchangesScopedBySender(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	if err := testDB.QueryCreateExchange(ctx, "ex1", "alice",
		"who are you", "i am everywhere", "cryptic", dummyEmbedding(0)); err != nil {
		t.Fatalf("create exchange 1 failed: %v", err)
	}
	if err := testDB.QueryCreateExchange(ctx, "ex2", "bob",
		"hello", "present day", "neutral", dummyEmbedding(1)); err != nil {
		t.Fatalf("create exchange 2 failed: %v", err)
	}

	results, err := testDB.QuerySearchExchanges(ctx, "alice", dummyEmbedding(0), 5)
	if err != nil {
		t.Fatalf("QuerySearchExchanges failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results for alice, want 1", len(results))
	}
	if results[0].SenderID != "alice" {
		t.Errorf("sender_id = %q, want alice", results[0].SenderID)
	}
	if results[0].Message != "who are you" {
		t.Errorf("message = %q", results[0].Message)
	}

	count, err := testDB.QueryCountExchanges(ctx)
	if err != nil {
		t.Fatalf("QueryCountExchanges failed: %v", err)
	}
	if count != 2 {
		t.Errorf("exchange count = %d, want 2", count)
	}
}

func TestPing(t *testing.T) {
	if err := testDB.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
