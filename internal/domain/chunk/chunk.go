package chunk

import (
	"fmt"
	"strconv"
	"strings"
)

// Chunk is a bounded contiguous slice of a document's extracted text, the
// unit of vector indexing and retrieval.
type Chunk struct {
	docID    string
	ordinal  int
	content  string
	metadata map[string]string
}

// New validates and creates a Chunk. Metadata is copied; chunk-specific
// fields (ordinal) are added on top of whatever document metadata is passed.
func New(docID string, ordinal int, content string, metadata map[string]string) (Chunk, error) {
	if docID == "" {
		return Chunk{}, fmt.Errorf("document id is required")
	}
	if ordinal < 0 {
		return Chunk{}, fmt.Errorf("ordinal must be non-negative, got %d", ordinal)
	}
	if content == "" {
		return Chunk{}, fmt.Errorf("content is required")
	}

	md := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		md[k] = v
	}
	md["ordinal"] = strconv.Itoa(ordinal)

	return Chunk{docID: docID, ordinal: ordinal, content: content, metadata: md}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(docID string, ordinal int, content string, metadata map[string]string) Chunk {
	return Chunk{docID: docID, ordinal: ordinal, content: content, metadata: metadata}
}

// ID returns the derived chunk identity "<docID>:<ordinal>".
func (c *Chunk) ID() string { return c.docID + ":" + strconv.Itoa(c.ordinal) }

// DocumentID returns the owning document id.
func (c *Chunk) DocumentID() string { return c.docID }

// Ordinal returns the chunk's position within its document.
func (c *Chunk) Ordinal() int { return c.ordinal }

// Content returns the chunk text.
func (c *Chunk) Content() string { return c.content }

// Metadata returns the chunk metadata (document metadata plus ordinal).
func (c *Chunk) Metadata() map[string]string { return c.metadata }

// DocumentIDFromChunkID extracts the owning document id from a chunk id.
func DocumentIDFromChunkID(chunkID string) string {
	if i := strings.LastIndexByte(chunkID, ':'); i >= 0 {
		return chunkID[:i]
	}
	return chunkID
}
