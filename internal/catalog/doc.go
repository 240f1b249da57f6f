// Package catalog defines the canonical records produced by the scanners and
// persisted by the store: component identities, entries with a common core
// plus a type-specific detail, installation events, invocations, and the
// transient ScanResult aggregate.
package catalog
