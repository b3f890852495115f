package cli

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/loremaster/internal/core/domain"
)

var chatNoSync bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Syncs the source directory, then reads questions line by line and
answers each one using the conversation so far.

Commands:
  /reset   - Forget the conversation
  exit     - End the session (also quit or Ctrl-D)`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatNoSync, "no-sync", false, "skip syncing the source directory first")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if !chatNoSync {
		if err := syncSources(ctx, cmd, svc); err != nil {
			return err
		}
	}

	cmd.Println("Ask a question, or type exit to quit.")

	var history domain.ChatHistory
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/reset":
			history = nil
			cmd.Println("Conversation cleared.")
			continue
		}

		answer, err := svc.Chat.Ask(ctx, svc.Index, line, history)
		if err != nil {
			// The session survives a failed turn; the turn is not recorded.
			cmd.PrintErrf("error: %v\n", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		cmd.Println(answer)
		history = history.Append(domain.RoleUser, line).Append(domain.RoleAssistant, answer)
	}
}
