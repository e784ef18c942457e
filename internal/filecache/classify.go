package filecache

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/clipvault/internal/clipboard"
)

// imageExtensions and videoExtensions drive content-type classification.
// Anything else is a generic document.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".bmp": true, ".svg": true, ".tiff": true, ".ico": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true,
	".webm": true, ".m4v": true, ".mpg": true, ".mpeg": true,
}

// mimeByExtension covers the common cases; unknown extensions fall
// through to the platform mime table and finally to octet-stream.
var mimeByExtension = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".json": "application/json",
	".csv":  "text/csv",
	".zip":  "application/zip",
}

// Classify derives a record content type from the file extension.
func Classify(path string) clipboard.ContentType {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExtensions[ext]:
		return clipboard.TypeImageFile
	case videoExtensions[ext]:
		return clipboard.TypeVideoFile
	default:
		return clipboard.TypeDocumentFile
	}
}

// MimeType derives a MIME type from the file extension, falling back to
// application/octet-stream.
func MimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := mimeByExtension[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
		return strings.TrimSpace(mt)
	}
	return "application/octet-stream"
}
