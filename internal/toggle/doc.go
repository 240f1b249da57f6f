// Package toggle flips catalog entries between active and disabled by
// rewriting the artifact that defines them: file-backed components move in
// and out of the .disabled sibling directory, server descriptors move
// between the active and disabled collections of their config document.
//
// Toggle never re-scans. Callers refresh the catalog afterwards.
package toggle
