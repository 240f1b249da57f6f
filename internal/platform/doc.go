// Package platform provides cross-platform filesystem operations: moving
// files and directories across filesystems, atomic file replacement, and
// permission management. On Windows permission bits are not enforced and
// Chmod is a no-op.
package platform
