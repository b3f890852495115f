package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/loremaster/internal/core/domain"
)

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "config.toml"

// Environment variables read after the config file.
const (
	EnvSourceDir    = "LOREMASTER_SOURCE_DIR"
	EnvStoragePath  = "LOREMASTER_STORAGE_PATH"
	EnvStorageDSN   = "LOREMASTER_STORAGE_DSN"
	EnvLogLevel     = "LOREMASTER_LOG_LEVEL"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
)

// providerKeyEnv maps providers to the variable holding their API key.
var providerKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    EnvOpenAIKey,
	domain.AIProviderAnthropic: EnvAnthropicKey,
	domain.AIProviderGemini:    EnvGeminiKey,
}

// LoadSettings builds the application settings. Defaults are overlaid with
// the TOML file at path (a missing file keeps the defaults), then with the
// environment. A .env file next to the config file is loaded first and
// never overrides variables that are already set. The result is validated.
func LoadSettings(path string) (domain.AppSettings, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	settings := domain.DefaultAppSettings()

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return settings, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return settings, fmt.Errorf("%w: read %s: %w", domain.ErrConfiguration, path, err)
	default:
		dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		if err := dec.Decode(&settings); err != nil {
			return settings, fmt.Errorf("%w: parse %s: %w", domain.ErrConfiguration, path, err)
		}
	}

	applyEnv(&settings)

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: load %s: %w", domain.ErrConfiguration, path, err)
	}
	return nil
}

func applyEnv(s *domain.AppSettings) {
	override(&s.SourceDir, EnvSourceDir)
	override(&s.Storage.Path, EnvStoragePath)
	override(&s.Storage.DSN, EnvStorageDSN)
	override(&s.Log.Level, EnvLogLevel)

	if s.Embedding.APIKey == "" {
		s.Embedding.APIKey = os.Getenv(providerKeyEnv[s.Embedding.Provider])
	}
	if s.LLM.APIKey == "" {
		s.LLM.APIKey = os.Getenv(providerKeyEnv[s.LLM.Provider])
	}
}

func override(field *string, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		*field = v
	}
}

// WriteDefaultSettings writes the default settings to path. An existing
// file is left alone and reported as not written.
func WriteDefaultSettings(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	defaults := domain.DefaultAppSettings()
	defaults.Prompts.Path = "prompts.yaml"

	data, err := toml.Marshal(defaults)
	if err != nil {
		return false, fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, err
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, err
	}
	return true, nil
}
