// Package redact masks secret-shaped configuration values before they are
// persisted or displayed. Classification is deterministic and free of side
// effects: secret-named keys are always masked, placeholders and paths are
// preserved, long high-entropy values are masked, and everything else is
// kept. Redaction is best-effort hygiene, not a security boundary.
package redact
