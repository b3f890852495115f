package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/loremaster/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Index new documents from the source directory",
	Long: `Loads, chunks and embeds every supported file in the source directory
that is not yet in the collection. Files already indexed are skipped, so
sync is safe to run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices(cmd)
	if err != nil {
		return err
	}
	return syncSources(cmd.Context(), cmd, svc)
}

// syncSources runs one sync and prints its report.
func syncSources(ctx context.Context, cmd *cobra.Command, svc *Services) error {
	cmd.Printf("Synchronising %s...\n", svc.Settings.SourceDir)

	report, err := svc.Ingestor.Sync(ctx, svc.Index, svc.Settings.SourceDir)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IngestionReport) {
	cmd.Printf("Indexed %d files (%d chunks), skipped %d, failed %d in %s\n",
		len(report.Indexed), report.TotalChunks(), len(report.Skipped), len(report.Failed),
		report.Duration.Round(time.Millisecond))

	for _, f := range report.Indexed {
		cmd.Printf("  indexed  %s (%d chunks)\n", f.Path, f.Chunks)
	}
	for _, f := range report.Skipped {
		if f.Reason == domain.ReasonAlreadyIndexed && !verbose {
			continue
		}
		cmd.Printf("  skipped  %s: %s\n", f.Path, f.Reason)
	}
	for _, f := range report.Failed {
		cmd.Printf("  failed   %s: %s\n", f.Path, f.Reason)
	}
}
