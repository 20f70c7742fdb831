package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server and backend availability",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := srv.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("health check: %w", err)
		}

		fmt.Printf("Status:  %s\n", status.Status)
		fmt.Printf("Backend: %v\n", status.Backend)
		fmt.Printf("Model:   %s\n", status.Model)
		fmt.Printf("Encoder: %s\n", status.Encoder)
		fmt.Printf("Version: %s\n", status.Version)
		return nil
	},
}
