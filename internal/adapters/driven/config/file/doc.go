// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem under ~/.scribble.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt templates
//   - LoadEnv: .env loading for credentials and path overrides
package file
