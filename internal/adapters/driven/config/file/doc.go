// Package file loads outlookcal settings from a TOML file on the local
// filesystem.
//
// Adapters:
//   - ConfigStore: TOML-backed key/value storage with dot-notation keys
//   - Settings: the [outlook_calendar] table resolved into a microsoft.Config
package file
