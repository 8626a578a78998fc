package middleware

import (
	"path/filepath"
	"strings"
)

const defaultUploadName = "resume"

// SanitizeString removes null bytes and control characters except tab and newline.
func SanitizeString(input string) string {
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// SanitizeFilename reduces a client supplied name to a safe base name for the
// provider file store. Directory parts and control characters are dropped.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(SanitizeString(strings.ReplaceAll(name, "\n", "")))
	name = strings.TrimSpace(strings.ReplaceAll(name, "\t", " "))
	if name == "" || name == "." || name == "/" || name == ".." {
		return defaultUploadName
	}
	if len(name) > 255 {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:255-len(ext)] + ext
	}
	return name
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
