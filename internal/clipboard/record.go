package clipboard

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ContentType is the closed tag set for record classification.
type ContentType string

// Content types. File-backed types are derived from the file extension.
const (
	TypeText         ContentType = "text"
	TypeHTML         ContentType = "html"
	TypeImageFile    ContentType = "image_file"
	TypeDocumentFile ContentType = "document_file"
	TypeVideoFile    ContentType = "video_file"
)

// ValidTextType reports whether t is allowed for text inserts.
func ValidTextType(t ContentType) bool {
	return t == TypeText || t == TypeHTML
}

// Record is the sole persisted entity: one clipboard item, either plain
// text or a reference to a cached file copy. For file-backed records
// Content holds the original caller-supplied path, not the file bytes.
type Record struct {
	ID          int64       `json:"id"`
	Content     string      `json:"content"`
	ContentType ContentType `json:"content_type"`
	Preview     string      `json:"preview"`
	IsPinned    bool        `json:"is_pinned"`
	IsPrivate   bool        `json:"is_private"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`

	// Set only for file-backed records.
	CachedFilePath *string `json:"cached_file_path,omitempty"`
	OriginalPath   *string `json:"original_path,omitempty"`
	FileSize       *int64  `json:"file_size,omitempty"`
	MimeType       *string `json:"mime_type,omitempty"`
}

// FileBacked reports whether the record wraps a cached file copy.
func (r *Record) FileBacked() bool {
	return r.CachedFilePath != nil && *r.CachedFilePath != ""
}

// previewLength bounds the derived preview, ellipsis included.
const previewLength = 100

// textPreview collapses whitespace and truncates to previewLength.
func textPreview(content string) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	runes := []rune(collapsed)
	if len(runes) <= previewLength {
		return collapsed
	}
	return string(runes[:previewLength-3]) + "..."
}

// filePreview renders the "name (size)" form used for file records.
func filePreview(originalPath string, size int64) string {
	return fmt.Sprintf("%s (%s)", filepath.Base(originalPath), FormatSize(size))
}

// FormatSize renders a byte count as B/KB/MB/GB with one decimal place
// above the byte unit.
func FormatSize(bytes int64) string {
	const unit = 1024
	switch {
	case bytes < unit:
		return fmt.Sprintf("%d B", bytes)
	case bytes < unit*unit:
		return fmt.Sprintf("%.1f KB", float64(bytes)/unit)
	case bytes < unit*unit*unit:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(unit*unit))
	default:
		return fmt.Sprintf("%.1f GB", float64(bytes)/(unit*unit*unit))
	}
}
