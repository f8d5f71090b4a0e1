// Package file persists the pipeline configuration as a TOML file.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage over domain.Config
package file
