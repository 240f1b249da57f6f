// Package manifest parses the on-disk artifact formats the scanners read:
// markdown frontmatter blocks, plugin install manifests in both schema
// generations, plugin metadata and server config documents, Claude
// settings, and the Codex TOML config. It also validates frontmatter
// against an embedded JSON schema and normalizes semantic versions.
package manifest
