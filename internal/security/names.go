// Package security checks names that come from untrusted input before they
// are joined onto filesystem paths.
package security

import (
	"fmt"
	"path"
	"strings"
)

// ValidateRelativeName checks that name, a slash-separated path read from a
// model file, stays inside whatever directory it is joined to. Absolute
// paths, drive letters, backslashes and any ".." that climbs above the root
// are rejected. Symlinks are not resolved.
func ValidateRelativeName(name string) error {
	if name == "" {
		return fmt.Errorf("empty file name")
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("file name %q contains NUL", name)
	}
	if strings.ContainsRune(name, '\\') {
		return fmt.Errorf("file name %q contains a backslash", name)
	}
	if path.IsAbs(name) || (len(name) >= 2 && name[1] == ':') {
		return fmt.Errorf("file name %q is absolute", name)
	}

	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("path traversal detected: %q escapes the image directory", name)
	}
	return nil
}

// SanitizeFilename makes a safe filename from an arbitrary string. Anything
// other than ASCII letters, digits, dot, underscore or dash becomes a single
// underscore, and the result is capped at 128 bytes.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
