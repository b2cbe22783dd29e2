package domain

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// FileType constants
const (
	FileTypePDF = "pdf"
)

// Document is a file payload handed to the backend for a new session
type Document struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// DetectFileType detects file type from filename
func DetectFileType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return FileTypePDF
	case "":
		return ""
	default:
		return ext[1:]
	}
}

// IsSupported checks if file type is supported by the backend
func IsSupported(fileType string) bool {
	return fileType == FileTypePDF
}

// ValidationError is a rejected upload; Message is safe to display
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// CheckUpload applies the client-side guards the backend would otherwise reject.
// A maxBytes of zero disables the size check.
func CheckUpload(doc Document, maxBytes int64) error {
	if doc.Filename == "" {
		return &ValidationError{Message: "No file selected. Please choose a file to upload."}
	}
	if !IsSupported(DetectFileType(doc.Filename)) {
		return &ValidationError{Message: "Invalid file type. Only PDF files are allowed."}
	}
	if maxBytes > 0 && doc.Size > maxBytes {
		return &ValidationError{Message: fmt.Sprintf("File size exceeds %s. Please upload a smaller file.", formatBytes(maxBytes))}
	}
	return nil
}

func formatBytes(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
