package manifest

import "testing"

func TestNormalizeVersion(t *testing.T) {
	tests := []struct{ in, want string }{
		{"1.2.3", "1.2.3"},
		{"v1.2", "1.2.0"},
		{" 2 ", "2.0.0"},
		{"unknown", "unknown"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeVersion(tt.in); got != tt.want {
			t.Errorf("NormalizeVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.1", -1},
		{"v2.0.0", "2.0.0", 0},
		{"1.10.0", "1.9.0", 1},
	}
	for _, tt := range tests {
		got, err := CompareVersions(tt.a, tt.b)
		if err != nil {
			t.Fatalf("CompareVersions(%q, %q) error: %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
	if _, err := CompareVersions("bogus", "1.0.0"); err == nil {
		t.Error("expected error for invalid version")
	}
}

func TestVersionLess(t *testing.T) {
	if !VersionLess("1.9.0", "1.10.0") {
		t.Error("1.9.0 should sort below 1.10.0")
	}
	if !VersionLess("unknown", "0.0.1") {
		t.Error("unparsable versions should sort below semver")
	}
	if VersionLess("1.0.0", "unknown") {
		t.Error("semver should not sort below unparsable")
	}
	if !VersionLess("abc", "abd") {
		t.Error("unparsable versions should compare lexically")
	}
}
