// Package security validates names and paths taken from configuration
// before they are used to build output paths.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateComponent checks that name can be used as a single path element:
// non-empty, not "." or "..", and free of path separators.
func ValidateComponent(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty path component")
	case name == "." || name == "..":
		return fmt.Errorf("path component %q is not allowed", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("path component %q contains a separator", name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("path component %q contains a NUL byte", name)
	}
	return nil
}

// ValidatePathWithinDirectory checks lexically that filePath stays inside
// dir once both are cleaned. Symlinks are not resolved.
func ValidatePathWithinDirectory(filePath, dir string) error {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", filePath, dir)
	}
	return nil
}
