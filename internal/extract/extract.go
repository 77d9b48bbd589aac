// Package extract converts uploaded file bytes into plain text.
package extract

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/atlasops/docuchat/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextExtractor handles plain-text formats (.txt, .md). The bytes are the
// content; extraction validates encoding and normalizes line endings.
type TextExtractor struct{}

// NewTextExtractor creates a plain-text extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract implements domain.Extractor. Invalid UTF-8 is an extraction
// failure, not a validation one: the file passed the upload checks and
// broke during processing.
func (e *TextExtractor) Extract(filename string, raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%s is not valid UTF-8: %w", filename, domain.ErrExtraction)
	}

	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	return string(raw), nil
}
