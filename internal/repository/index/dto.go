package index

import (
	"encoding/json"
	"fmt"
	"time"
)

// entryDTO is the persisted JSON shape of an index entry.
type entryDTO struct {
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	IndexedAt string            `json:"indexed_at"`
	Seq       int64             `json:"seq"`
}

func parseEntry(docID string, data []byte) (Entry, error) {
	var dto entryDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return Entry{}, fmt.Errorf("unmarshal entry %s: %w", docID, err)
	}

	indexedAt, err := time.Parse(time.RFC3339Nano, dto.IndexedAt)
	if err != nil {
		// Entries written by hand or older builds; keep the entry usable.
		indexedAt = time.Time{}
	}

	return Entry{
		DocID:     docID,
		Content:   dto.Content,
		Metadata:  dto.Metadata,
		IndexedAt: indexedAt,
		seq:       dto.Seq,
	}, nil
}
