// Package store is the local catalog index: a single-file SQLite database
// holding one row per component, its installation history, observed
// invocations, and an FTS5 search index kept in sync on every upsert.
//
// A Store owns exactly one connection. Schema generation checks and
// migrations run once in Open, before any read or write.
package store
