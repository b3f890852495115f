package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/loremaster/internal/logger"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Index new documents as they appear",
	Long: `Syncs the source directory, then watches it and syncs again whenever
files are added or renamed. Events are debounced so a batch of copies
triggers one sync. Modified files are not re-indexed.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "quiet period before syncing")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if err := syncSources(ctx, cmd, svc); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, svc.Settings.SourceDir); err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl-C to stop)\n", svc.Settings.SourceDir)

	return watchLoop(ctx, watcher.Events, watcher.Errors, watchDebounce, func(ev fsnotify.Event) {
		if isDir(ev.Name) {
			if err := watchTree(watcher, ev.Name); err != nil {
				logger.Warn("watch %s: %v", ev.Name, err)
			}
		}
	}, func() {
		if err := syncSources(ctx, cmd, svc); err != nil {
			cmd.PrintErrf("error: %v\n", err)
		}
	})
}

// watchLoop calls sync once events have been quiet for debounce. Syncs
// run on the calling goroutine, so at most one is in flight.
func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	debounce time.Duration,
	onEvent func(fsnotify.Event),
	sync func(),
) error {
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !triggersSync(ev) {
				continue
			}
			logger.Debug("fs event: %s", ev)
			if onEvent != nil {
				onEvent(ev)
			}
			pending = time.After(debounce)
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		case <-pending:
			pending = nil
			sync()
		}
	}
}

// triggersSync reports whether ev can introduce an unindexed file.
func triggersSync(ev fsnotify.Event) bool {
	if isHidden(filepath.Base(ev.Name)) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// watchTree adds root and every non-hidden directory below it.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
