package db

import "fmt"

// schemaSQL renders the memory schema with the given embedding
// dimension. Two tables: fact holds character knowledge, exchange holds
// past conversations keyed by sender.
func schemaSQL(dimension int) string {
	return fmt.Sprintf(`
    -- ==========================================================================
    -- FACT TABLE (character knowledge)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS fact SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS topic ON fact TYPE string;
    DEFINE FIELD IF NOT EXISTS content ON fact TYPE string;
    DEFINE FIELD IF NOT EXISTS embedding ON fact TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS created ON fact TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS fact_topic ON fact FIELDS topic;
    DEFINE INDEX IF NOT EXISTS fact_embedding ON fact FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;

    -- ==========================================================================
    -- EXCHANGE TABLE (conversation memory)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS exchange SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS sender_id ON exchange TYPE string;
    DEFINE FIELD IF NOT EXISTS message ON exchange TYPE string;
    DEFINE FIELD IF NOT EXISTS response ON exchange TYPE string;
    DEFINE FIELD IF NOT EXISTS mood ON exchange TYPE string;
    DEFINE FIELD IF NOT EXISTS embedding ON exchange TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS created ON exchange TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS exchange_sender ON exchange FIELDS sender_id;
    DEFINE INDEX IF NOT EXISTS exchange_embedding ON exchange FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;
`, dimension, dimension)
}
