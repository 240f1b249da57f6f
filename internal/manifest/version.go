package manifest

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// NormalizeVersion returns the canonical semver form of version ("v1.2" ->
// "1.2.0"). Values that are not semver are returned trimmed and unchanged.
func NormalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	v, err := parseSemver(version)
	if err != nil {
		return version
	}
	return v.String()
}

// CompareVersions compares two version strings using semver.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
// Handles "v" prefix tolerance (strips leading "v" before parsing).
func CompareVersions(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

// VersionLess orders versions for selection: valid semver sorts above
// anything unparsable, and unparsable versions compare lexically.
func VersionLess(a, b string) bool {
	av, aErr := parseSemver(a)
	bv, bErr := parseSemver(b)
	switch {
	case aErr == nil && bErr == nil:
		return av.LessThan(bv)
	case aErr != nil && bErr == nil:
		return true
	case aErr == nil && bErr != nil:
		return false
	}
	return a < b
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	return semver.NewVersion(version)
}
