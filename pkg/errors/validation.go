package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// nodeKeyRegex matches canonical node keys of the form "<session>:<local>".
var nodeKeyRegex = regexp.MustCompile(`^\d+:\d+$`)

// ValidateNodeKey validates a canonical node key as received from the
// CLI or API. Keys are two decimal numbers joined by a colon.
func ValidateNodeKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidGUID, "node key cannot be empty")
	}

	if len(key) > 64 {
		return New(ErrCodeInvalidGUID, "node key too long (max 64 characters)")
	}

	if !nodeKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidGUID, "invalid node key: %q (want <session>:<local>)", key)
	}

	return nil
}

// blobKeyRegex matches blob index keys of the form "blob_<n>".
var blobKeyRegex = regexp.MustCompile(`^blob_\d+$`)

// ValidateBlobKey validates a blob reference key.
func ValidateBlobKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "blob key cannot be empty")
	}

	if !blobKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidInput, "invalid blob key: %q (want blob_<n>)", key)
	}

	return nil
}

// Output formats accepted by the CLI and API.
var validFormats = map[string]bool{
	"text": true,
	"json": true,
	"dot":  true,
	"svg":  true,
}

// ValidateFormat validates a requested output format.
func ValidateFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}

	if !validFormats[format] {
		return New(ErrCodeInvalidFormat, "unsupported format: %q (want text, json, dot, or svg)", format)
	}

	return nil
}

// ValidatePath validates a file path received from an untrusted caller.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// sessionIDRegex matches API session identifiers (UUID form).
var sessionIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateSessionID validates an API session identifier.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "session ID cannot be empty")
	}

	if !sessionIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid session ID: %q", id)
	}

	return nil
}
