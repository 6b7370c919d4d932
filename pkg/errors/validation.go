package errors

import (
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// InstanceExtensions lists the file extensions accepted for problem instances.
var InstanceExtensions = []string{".toml", ".json"}

// DiagramExtensions lists the file extensions accepted for diagram exports.
var DiagramExtensions = []string{".dot", ".gv", ".svg"}

// ValidatePath validates a user-supplied file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateExtension validates path and checks that its extension is one of allowed.
// The comparison ignores case.
func ValidateExtension(path string, allowed []string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(allowed, ext) {
		return New(ErrCodeInvalidFormat, "unsupported file extension %q (want one of %s)", ext, strings.Join(allowed, ", "))
	}
	return nil
}

// ValidateInstancePath validates the path of a problem instance file.
func ValidateInstancePath(path string) error {
	return ValidateExtension(path, InstanceExtensions)
}

// ValidateDiagramPath validates the output path of a diagram export.
func ValidateDiagramPath(path string) error {
	return ValidateExtension(path, DiagramExtensions)
}
