package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lainlives/lainllm-go/internal/client"
)

var (
	chatSender   string
	chatNoMemory bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a message or hold an interactive session",
	Long: `Send one message to the agent and print the reply, or start an
interactive session over WebSocket when no message is given.

Examples:
  lainctl chat "tell me about the wired"
  lainctl chat --sender alice
  lainctl chat --no-memory "what is real?"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSender, "sender", "", "sender id for memory and engagement tracking")
	chatCmd.Flags().BoolVar(&chatNoMemory, "no-memory", false, "skip conversation history recall")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if len(args) == 1 {
		result, err := srv.Generate(ctx, newGenerateRequest(args[0]))
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		printResult(result)
		return nil
	}

	return runInteractiveChat(ctx)
}

func runInteractiveChat(ctx context.Context) error {
	session, err := srv.OpenChat(ctx)
	if err != nil {
		return fmt.Errorf("open chat: %w", err)
	}
	defer session.Close()

	fmt.Println("Connected. Empty line or Ctrl+D to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}

		if err := session.Send(newGenerateRequest(line)); err != nil {
			return err
		}
		result, err := session.Receive()
		if err != nil {
			return err
		}
		printResult(result)
	}
	return scanner.Err()
}

func newGenerateRequest(message string) client.GenerateRequest {
	req := client.GenerateRequest{
		Message:  message,
		SenderID: chatSender,
	}
	if chatNoMemory {
		memory := false
		req.IncludeMemory = &memory
	}
	return req
}

func printResult(result *client.GenerateResult) {
	if !result.ShouldSpeak {
		fmt.Println("(lain stays silent)")
	} else {
		fmt.Println(result.ResponseText)
	}
	if verbose {
		fmt.Printf("  [animation=%s mood=%s score=%d path=%s %.2fs",
			result.AnimationTag, result.MoodTag,
			result.EngagementScore, result.Path, result.ProcessingTimeSeconds)
		if result.Degraded {
			fmt.Print(" degraded")
		}
		fmt.Println("]")
	}
}
