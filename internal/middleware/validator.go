package middleware

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Input validation and sanitization utilities for uploads

const maxFilenameLength = 255

// allowed upload extensions → expected content types
var allowedExtensions = map[string]string{
	".pdf": "application/pdf",
	".csv": "text/csv",
}

// ValidateUploadFilename checks extension, length and path traversal
func ValidateUploadFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if len(filename) > maxFilenameLength {
		return fmt.Errorf("filename too long (max %d characters)", maxFilenameLength)
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("filename must not contain path separators")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("invalid file type: %s (allowed: pdf, csv)", ext)
	}
	return nil
}

// ValidateContentType checks the declared multipart content type against the
// extension. Browsers are sloppy with CSV types so octet-stream is tolerated.
func ValidateContentType(filename, contentType string) error {
	if contentType == "" || contentType == "application/octet-stream" {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(filename))
	expected, ok := allowedExtensions[ext]
	if !ok {
		return fmt.Errorf("invalid file type: %s", ext)
	}
	if ext == ".csv" {
		// text/csv, application/csv, text/plain semua lazim untuk CSV
		if strings.Contains(contentType, "csv") || strings.HasPrefix(contentType, "text/") {
			return nil
		}
		return fmt.Errorf("invalid content type for CSV: %s", contentType)
	}
	if !strings.HasPrefix(contentType, expected) {
		return fmt.Errorf("invalid content type: %s (expected %s)", contentType, expected)
	}
	return nil
}
