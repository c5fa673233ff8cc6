// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML or YAML application settings, with environment overrides
//   - PromptStore: user-editable prompt templates with embedded defaults
package file
