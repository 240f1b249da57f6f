// Package cli defines the Cobra command tree. Each file registers one
// top-level command (scan, list, toggle, etc.) with the root command.
// Commands resolve settings and paths once in the root's PersistentPreRunE,
// then delegate to the scanner, store and toggle packages and only handle
// flag parsing and output formatting.
package cli
