// Package file provides file-based configuration for lexgate.
//
// Adapters:
//   - Config: the TOML configuration file with env overrides
//   - PromptStore: user-editable answer prompts
package file
