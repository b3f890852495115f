package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/loremaster/internal/core/domain"
)

var (
	askNoSync      bool
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question",
	Long: `Syncs the source directory, then answers one question from the
indexed documents. Use --context to list the passages the answer used.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askNoSync, "no-sync", false, "skip syncing the source directory first")
	askCmd.Flags().BoolVar(&askShowContext, "context", false, "print the retrieved passages")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := requireServices(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if !askNoSync {
		if err := syncSources(ctx, cmd, svc); err != nil {
			return err
		}
	}

	answer, err := svc.Chat.AskDetailed(ctx, svc.Index, strings.Join(args, " "), nil)
	if err != nil {
		return err
	}

	cmd.Println(answer.Text)
	if askShowContext {
		printContext(cmd, answer)
	}
	return nil
}

func printContext(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println()
	cmd.Printf("Search query: %s\n", answer.SearchQuery)
	for i, r := range answer.Context {
		// Format: [N] file.pdf p.3 (distance)
		cmd.Printf("[%d] %s p.%d (%.3f)\n", i+1, filepath.Base(r.Chunk.Source), r.Chunk.Page, r.Distance)
	}
}
