package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the collection and capability status",
	Long: `Prints the collection identity, the number of stored chunks and the
indexed sources, then checks that the embedding and chat services are
reachable and, when PDF loading is enabled, that pdftotext is installed.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	spec := svc.Index.Spec()
	count, err := svc.Index.Count(ctx)
	if err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}
	sources, err := svc.Index.Sources(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	cmd.Printf("Collection: %s\n", spec.Name)
	cmd.Printf("Embedding:  %s (%d dimensions)\n", spec.EmbeddingModel, spec.Dimensions)
	cmd.Printf("Source dir: %s\n", svc.Settings.SourceDir)
	if svc.Storage != "" {
		cmd.Printf("Storage:    %s\n", svc.Storage)
	}
	prompts := svc.PromptsPath
	if prompts == "" {
		prompts = "built-in"
	}
	cmd.Printf("Prompts:    %s\n", prompts)
	cmd.Printf("Chunks:     %d\n", count)
	cmd.Printf("Sources:    %d\n", len(sources))
	for _, source := range sources {
		cmd.Printf("  %s\n", filepath.Base(source))
	}

	failed := 0
	cmd.Println()
	for _, hc := range svc.Checks {
		if err := hc.Check(ctx); err != nil {
			failed++
			cmd.Printf("%-10s unreachable: %v\n", hc.Name, err)
			if hc.Hint != "" {
				for _, line := range strings.Split(hc.Hint, "\n") {
					cmd.Printf("           %s\n", line)
				}
			}
			continue
		}
		cmd.Printf("%-10s ok\n", hc.Name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d services unreachable", failed, len(svc.Checks))
	}
	return nil
}
