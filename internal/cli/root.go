// Package cli provides the lainctl command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/lainlives/lainllm-go/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	verbose   bool

	// Shared server client, created before every command.
	srv *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lainctl",
	Short: "Operator CLI for the LainLLM chat agent",
	Long: `lainctl talks to a running LainLLM server: send messages, hold an
interactive chat session, seed the knowledge store, and inspect health
and runtime statistics.

The server address comes from --server, the LAINLLM_SERVER_URL env var,
or defaults to http://localhost:8001.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		srv = client.New(serverURL)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "server base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statsCmd)
}
