// Package cli provides the loremaster command line interface.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/loremaster/internal/adapters/driven/config/file"
	"github.com/custodia-labs/loremaster/internal/core/domain"
	"github.com/custodia-labs/loremaster/internal/core/ports/driving"
)

// version is set at build time through SetVersion.
var version = "dev"

var (
	configPath string
	verbose    bool
)

// HealthCheck pings one external dependency. Hint is printed when the
// check fails.
type HealthCheck struct {
	Name  string
	Hint  string
	Check func(ctx context.Context) error
}

// Services are the core ports the commands drive.
type Services struct {
	Settings domain.AppSettings
	Index    driving.IndexStore
	Ingestor driving.Ingestor
	Chat     driving.ChatService
	Checks   []HealthCheck

	// Storage describes where chunks are kept. PromptsPath is the template
	// file in use, empty for the built-in templates.
	Storage     string
	PromptsPath string

	// Close releases the runtime. May be nil.
	Close func() error
}

// Bootstrapper builds Services from the config file at path.
type Bootstrapper func(ctx context.Context, path string, verbose bool) (*Services, error)

var (
	bootstrap Bootstrapper
	services  *Services
)

var rootCmd = &cobra.Command{
	Use:   "loremaster",
	Short: "Chat with your rulebooks",
	Long: `Loremaster indexes a directory of rulebooks and manuals into a vector
collection and answers questions grounded in the retrieved passages.

Run "loremaster init" to write a default config.toml, drop documents into
the source directory, then "loremaster chat".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", file.DefaultConfigFile, "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetBootstrapper sets how commands obtain their services.
func SetBootstrapper(b Bootstrapper) {
	bootstrap = b
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command and releases the services afterwards.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// requireServices bootstraps on first use. Commands that need no runtime
// (init, version) never call it.
func requireServices(cmd *cobra.Command) (*Services, error) {
	if services != nil {
		return services, nil
	}
	if bootstrap == nil {
		return nil, errors.New("application not configured")
	}
	s, err := bootstrap(cmd.Context(), configPath, verbose)
	if err != nil {
		return nil, err
	}
	services = s
	return s, nil
}

func closeServices() {
	if services != nil && services.Close != nil {
		_ = services.Close()
	}
	services = nil
}
