package security

import (
	"strings"
	"testing"
)

func TestValidateRelativeName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{"plain file", "IMG_0001.jpg", false},
		{"nested file", "cam0/IMG_0001.jpg", false},
		{"dot segments that stay inside", "cam0/../cam1/a.png", false},
		{"leading dot slash", "./a.png", false},
		{"empty", "", true},
		{"parent", "..", true},
		{"traversal", "../secret.png", true},
		{"deep traversal", "cam0/../../etc/passwd", true},
		{"absolute", "/etc/passwd", true},
		{"drive letter", "C:/Windows/win.ini", true},
		{"backslash", `cam0\..\..\x.png`, true},
		{"nul", "a\x00.png", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelativeName(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateRelativeName(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"sparse_0_scene", "sparse_0_scene"},
		{"my garden (v2)", "my_garden_v2"},
		{"../../etc", "etc"},
		{"a///b", "a_b"},
		{"", "unknown"},
		{"...", "unknown"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.input); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	long := SanitizeFilename(strings.Repeat("x", 500))
	if len(long) != 128 {
		t.Errorf("expected length 128, got %d", len(long))
	}
}
