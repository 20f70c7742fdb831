package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lainlives/lainllm-go/internal/config"
	"github.com/lainlives/lainllm-go/internal/knowledge"
	"github.com/lainlives/lainllm-go/internal/llm"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <seed-file>",
	Short: "Load a YAML seed file of facts into the knowledge store",
	Long: `Read a YAML file of {topic, content} facts, embed each one, and
write them to the configured knowledge backend. Re-running the same
file updates facts in place.

The backend and embedder come from the environment, same as the server.

Example:
  lainctl ingest seeds/lain_lore.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Load()

	facts, err := knowledge.LoadSeedFile(args[0])
	if err != nil {
		return fmt.Errorf("load seed file: %w", err)
	}

	embedder, err := llm.NewEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}

	backend, err := knowledge.New(ctx, cfg, embedder)
	if err != nil {
		return fmt.Errorf("init backend: %w", err)
	}
	defer backend.Close(ctx)

	stored, err := knowledge.Seed(ctx, backend, facts)
	if err != nil {
		return fmt.Errorf("stored %d/%d facts: %w", stored, len(facts), err)
	}

	fmt.Printf("Stored %d facts (%s backend)\n", stored, cfg.Backend)
	return nil
}
