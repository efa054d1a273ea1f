package errors

import (
	"strings"
	"unicode"
)

// MaxNameLength bounds fractal names accepted by the library and the API.
const MaxNameLength = 128

// ValidateFractalName checks that name can be stored in the flat-text
// library format and used as a cache key.
//
// Rules:
//   - not empty after trimming whitespace
//   - at most MaxNameLength bytes
//   - no control characters (this includes newlines, which separate records)
//   - no ';' or ',' (field and coefficient separators)
//   - no leading or trailing whitespace (it is stripped on read)
func ValidateFractalName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "fractal name cannot be empty")
	}

	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidName, "fractal name too long (max %d characters)", MaxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "fractal name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, ";,") {
		return New(ErrCodeInvalidName, "fractal name cannot contain ';' or ','")
	}

	if strings.TrimSpace(name) != name {
		return New(ErrCodeInvalidName, "fractal name cannot start or end with whitespace")
	}

	return nil
}

// ValidatePath validates an output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
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
