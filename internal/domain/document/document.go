package document

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxFilenameLen bounds the stored original filename.
const MaxFilenameLen = 255

// Document is an uploaded file accepted for indexing (immutable value object).
type Document struct {
	id        string
	filename  string
	size      int64
	mimeType  string
	createdAt time.Time
}

// New validates and creates a Document with a freshly minted id.
func New(filename string, size int64, now time.Time) (Document, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return Document{}, fmt.Errorf("filename is required")
	}
	if len(filename) > MaxFilenameLen {
		return Document{}, fmt.Errorf("filename too long (max %d)", MaxFilenameLen)
	}
	if size < 0 {
		return Document{}, fmt.Errorf("size must be non-negative, got %d", size)
	}

	return Document{
		id:        uuid.NewString(),
		filename:  filename,
		size:      size,
		mimeType:  mimeTypeFor(filename),
		createdAt: now.UTC(),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, filename string, size int64, mimeType string, createdAt time.Time) Document {
	return Document{id: id, filename: filename, size: size, mimeType: mimeType, createdAt: createdAt}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Filename returns the original upload filename.
func (d *Document) Filename() string { return d.filename }

// Size returns the raw upload size in bytes.
func (d *Document) Size() int64 { return d.size }

// MIMEType returns the declared content type derived from the extension.
func (d *Document) MIMEType() string { return d.mimeType }

// CreatedAt returns the creation timestamp (UTC).
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// Extension returns the lowercased filename extension, including the dot.
func (d *Document) Extension() string {
	return strings.ToLower(filepath.Ext(d.filename))
}

func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	case ".pdf":
		return "application/pdf"
	case ".doc", ".docx":
		return "application/msword"
	default:
		return "application/octet-stream"
	}
}
