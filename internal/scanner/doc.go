// Package scanner discovers components in a platform home directory and
// normalizes them into catalog entries. Each scanner reads one kind of
// artifact; the Orchestrator fans them out and merges the results.
package scanner
