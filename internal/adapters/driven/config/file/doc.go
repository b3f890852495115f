// Package file provides file-backed implementations of the configuration
// ports.
//
// Adapters:
//   - LoadSettings: TOML application settings with .env and environment overrides
//   - PromptStore: YAML prompt templates with embedded defaults
package file
