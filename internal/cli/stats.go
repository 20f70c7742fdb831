package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lainlives/lainllm-go/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server runtime statistics and memory counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := srv.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch stats: %w", err)
		}

		fmt.Printf("Uptime: %.0fs\n", stats.Runtime.UptimeSeconds)
		fmt.Printf("Model:  %s (max_tokens=%d temp=%.1f top_p=%.1f repeat=%.1f)\n\n",
			stats.Model, stats.Generation.MaxTokens, stats.Generation.Temperature,
			stats.Generation.TopP, stats.Generation.RepeatPenalty)

		printOp("pipeline", stats.Runtime.Pipeline)
		printOp("embedding", stats.Runtime.Embedding)
		printOp("recall (knowledge)", stats.Runtime.RecallKnowledge)
		printOp("recall (history)", stats.Runtime.RecallHistory)
		printOp("llm generate", stats.Runtime.LLMGenerate)

		if len(stats.Runtime.Counters) > 0 {
			fmt.Println("Counters:")
			names := make([]string, 0, len(stats.Runtime.Counters))
			for name := range stats.Runtime.Counters {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-20s %d\n", name, stats.Runtime.Counters[name])
			}
			fmt.Println()
		}

		if stats.Memory != nil {
			fmt.Println("Memory:")
			fmt.Printf("  facts:     %d\n", stats.Memory.Facts)
			fmt.Printf("  exchanges: %d\n", stats.Memory.Exchanges)
		}
		return nil
	},
}

func printOp(name string, op *metrics.OperationSnapshot) {
	if op == nil {
		return
	}
	fmt.Printf("%s:\n", name)
	fmt.Printf("  count: %d  avg: %.1fms  min: %dms  max: %dms\n\n",
		op.Count, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
