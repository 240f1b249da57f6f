package manifest

import (
	"strings"
	"testing"
)

func TestValidate_Valid(t *testing.T) {
	valid := []string{
		"name: gmail-skill\ndescription: gmail integration\n",
		"name: email\ntags: [a, b]\nallowed-tools: Read, Bash\n",
		"description: no name is fine\nversion: 1.0\n",
		"name: plugin:p1:hello\n",
		"{}",
	}
	for _, doc := range valid {
		t.Run(doc, func(t *testing.T) {
			result, err := Validate([]byte(doc))
			if err != nil {
				t.Fatalf("Validate error: %v", err)
			}
			if !result.Valid {
				t.Errorf("expected valid, got issues: %v", result.Warnings())
			}
		})
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		doc      string
		wantPath string
	}{
		{"name: \"has spaces\"\n", "/name"},
		{"name: [a, b]\n", "/name"},
		{"description: 42\n", "/description"},
		{"depends_on: skill-b\n", "/depends_on"},
		{"tags: {a: b}\n", "/tags"},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			result, err := Validate([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Validate error: %v", err)
			}
			if result.Valid {
				t.Fatal("expected invalid result")
			}
			found := false
			for _, issue := range result.Issues {
				if issue.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an issue at %s, got %+v", tt.wantPath, result.Issues)
			}
		})
	}
}

func TestValidate_InvalidYAML(t *testing.T) {
	if _, err := Validate([]byte("name: [unclosed")); err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

func TestValidateFrontmatter_Warnings(t *testing.T) {
	fm, _, err := ParseFrontmatter("---\nname: bad name\n---\n")
	if err != nil {
		t.Fatal(err)
	}
	result, err := ValidateFrontmatter(fm)
	if err != nil {
		t.Fatal(err)
	}
	warnings := result.Warnings()
	if len(warnings) == 0 || !strings.HasPrefix(warnings[0], "/name: ") {
		t.Errorf("Warnings = %v", warnings)
	}

	ok, err := ValidateFrontmatter(Frontmatter{})
	if err != nil || !ok.Valid || ok.Warnings() != nil {
		t.Errorf("empty frontmatter should validate: %+v, %v", ok, err)
	}
}

func TestValidate_SchemaCompiles(t *testing.T) {
	schema, err := getSchema()
	if err != nil {
		t.Fatalf("getSchema() error: %v", err)
	}
	if schema == nil {
		t.Fatal("getSchema() returned nil schema")
	}
}
