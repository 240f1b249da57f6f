package platform

import (
	"os"
	"runtime"
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// PermissionsEnforced reports whether Unix permission bits are meaningful.
func PermissionsEnforced() bool {
	return runtime.GOOS != "windows"
}

// IsExecutable reports whether info describes a regular file with any
// execute bit set. On Windows every regular file counts as executable.
func IsExecutable(info os.FileInfo) bool {
	if !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}
