package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/loremaster/internal/adapters/driven/config/file"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write default configuration files",
	Long: `Writes config.toml and prompts.yaml with the built-in defaults.
Existing files are never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	wrote, err := file.WriteDefaultSettings(configPath)
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	reportWrite(cmd, configPath, wrote)

	promptsPath := filepath.Join(filepath.Dir(configPath), "prompts.yaml")
	wrote, err = file.WriteDefaultPrompts(promptsPath)
	if err != nil {
		return fmt.Errorf("write prompts: %w", err)
	}
	reportWrite(cmd, promptsPath, wrote)
	return nil
}

func reportWrite(cmd *cobra.Command, path string, wrote bool) {
	if wrote {
		cmd.Printf("Wrote %s\n", path)
		return
	}
	cmd.Printf("%s already exists, left unchanged\n", path)
}
