// Package file provides file-based implementations of driven port interfaces.
// These adapters read and persist data on the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based settings storage
//   - ManifestSource: TOML or YAML upload manifest
package file
