package services

import (
	"mime"
	"path/filepath"
	"strings"
)

// Extensions the platform mime table may not know or maps inconsistently.
var fallbackMediaTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".csv":      "text/csv",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pdf":      "application/pdf",
	".html":     "text/html",
	".htm":      "text/html",
	".eml":      "message/rfc822",
}

// DetectMediaType guesses a media type from the file extension. Files
// without an extension are treated as plain text.
func DetectMediaType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "text/plain"
	}
	if mt, ok := fallbackMediaTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			return base
		}
		return mt
	}
	return "application/octet-stream"
}

// resolveMediaType keeps a declared type unless it is missing or generic.
func resolveMediaType(declared, name string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" || strings.EqualFold(declared, "application/octet-stream") {
		return DetectMediaType(name)
	}
	return declared
}
