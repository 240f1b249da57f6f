package userdata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/agentx-labs/tooldex/internal/platform"
)

// Report summarizes a doctor run.
type Report struct {
	OK       int
	Missing  int
	Warnings int
}

// CheckPaths reports whether each resolved location exists and is usable.
// When fix is true, it creates the database directory and repairs its
// permissions. Missing tool homes are never created.
func CheckPaths(w io.Writer, p Paths, fix bool) Report {
	var r Report

	fmt.Fprintln(w, "Tool homes:")
	checkDir(w, &r, p.ClaudeHome)
	checkFile(w, &r, p.ClaudeJSON)
	checkDir(w, &r, p.CodexHome)

	fmt.Fprintln(w, "Catalog:")
	dbDir := filepath.Dir(p.DBPath)
	checkDirWithPerm(w, &r, dbDir, DirPermSecure, fix)
	checkFile(w, &r, p.DBPath)

	return r
}

func checkDir(w io.Writer, r *Report, path string) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		fmt.Fprintf(w, "  [MISS] %s does not exist\n", path)
		r.Missing++
		return
	}
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", path, err)
		r.Warnings++
		return
	}
	if !info.IsDir() {
		fmt.Fprintf(w, "  [WARN] %s exists but is not a directory\n", path)
		r.Warnings++
		return
	}
	fmt.Fprintf(w, "  [ OK ] %s exists\n", path)
	r.OK++
}

func checkFile(w io.Writer, r *Report, path string) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		fmt.Fprintf(w, "  [MISS] %s does not exist\n", path)
		r.Missing++
		return
	}
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", path, err)
		r.Warnings++
		return
	}
	if info.IsDir() {
		fmt.Fprintf(w, "  [WARN] %s is a directory\n", path)
		r.Warnings++
		return
	}
	fmt.Fprintf(w, "  [ OK ] %s exists\n", path)
	r.OK++
}

func checkDirWithPerm(w io.Writer, r *Report, path string, expectedPerm os.FileMode, fix bool) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		fmt.Fprintf(w, "  [MISS] %s does not exist\n", path)
		if fix {
			if mkErr := os.MkdirAll(path, expectedPerm); mkErr != nil {
				fmt.Fprintf(w, "  [FAIL] Could not create %s: %v\n", path, mkErr)
				r.Missing++
				return
			}
			platform.Chmod(path, expectedPerm)
			fmt.Fprintf(w, "  [FIX ] Created %s with %o\n", path, expectedPerm)
			r.OK++
			return
		}
		r.Missing++
		return
	}
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", path, err)
		r.Warnings++
		return
	}

	actualPerm := info.Mode().Perm()
	if !platform.PermissionsEnforced() || actualPerm == expectedPerm {
		fmt.Fprintf(w, "  [ OK ] %s (permissions %o)\n", path, actualPerm)
		r.OK++
		return
	}

	fmt.Fprintf(w, "  [WARN] %s has permissions %o (expected %o)\n", path, actualPerm, expectedPerm)
	if fix {
		if chErr := platform.Chmod(path, expectedPerm); chErr != nil {
			fmt.Fprintf(w, "  [FAIL] Could not fix permissions on %s: %v\n", path, chErr)
			r.Warnings++
			return
		}
		fmt.Fprintf(w, "  [FIX ] Fixed permissions on %s to %o\n", path, expectedPerm)
		r.OK++
		return
	}
	r.Warnings++
}
