// Package vector stores chunk embeddings and answers nearest-neighbour
// queries by brute-force cosine similarity over the whole index.
package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/atlasops/docuchat/internal/db"
	"github.com/atlasops/docuchat/internal/domain"
)

// Match is one scored hit from a similarity search.
type Match struct {
	ChunkID  string
	Content  string
	Metadata map[string]string
	Score    float64
}

// store is the consumer interface for the vector index (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the vector index over a key-value store.
type Repo struct {
	store  store
	prefix string
}

// New creates a vector repository. prefix namespaces all keys.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Put upserts the embedding and content for one chunk.
func (r *Repo) Put(ctx context.Context, chunkID, content string, metadata map[string]string, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("put %s: empty embedding", chunkID)
	}

	data, err := marshalRecord(content, metadata, embedding)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", chunkID, err)
	}
	if err := r.store.Set(ctx, r.recordKey(chunkID), data); err != nil {
		return storageErr(fmt.Sprintf("put %s", chunkID), err)
	}
	return nil
}

// Search scores every stored embedding against query by cosine similarity
// and returns the top k matches, best first. Ties break on chunk ID so the
// ordering is deterministic.
func (r *Repo) Search(ctx context.Context, query []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	keys, err := r.store.Scan(ctx, r.recordKey("*"))
	if err != nil {
		return nil, storageErr("scan vectors", err)
	}

	matches := make([]Match, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue // deleted between scan and get
			}
			return nil, storageErr(fmt.Sprintf("get %s", key), err)
		}

		chunkID := strings.TrimPrefix(key, r.recordKey(""))
		rec, err := unmarshalRecord(data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal record %s: %w", chunkID, err)
		}

		matches = append(matches, Match{
			ChunkID:  chunkID,
			Content:  rec.content,
			Metadata: rec.metadata,
			Score:    cosine(query, rec.embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ChunkID < matches[j].ChunkID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Delete removes the given chunks. Absent chunks are a no-op.
func (r *Repo) Delete(ctx context.Context, chunkIDs ...string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	keys := make([]string, len(chunkIDs))
	for i, id := range chunkIDs {
		keys[i] = r.recordKey(id)
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return storageErr("delete chunks", err)
	}
	return nil
}

// DeleteByDocument removes every chunk belonging to docID.
func (r *Repo) DeleteByDocument(ctx context.Context, docID string) error {
	keys, err := r.store.Scan(ctx, r.recordKey(docID+":*"))
	if err != nil {
		return storageErr(fmt.Sprintf("scan chunks of %s", docID), err)
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return storageErr(fmt.Sprintf("delete chunks of %s", docID), err)
	}
	return nil
}

// Clear removes every stored chunk.
func (r *Repo) Clear(ctx context.Context) error {
	keys, err := r.store.Scan(ctx, r.recordKey("*"))
	if err != nil {
		return storageErr("scan vectors", err)
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return storageErr("clear vectors", err)
	}
	return nil
}

func (r *Repo) recordKey(chunkID string) string { return r.prefix + "vector:" + chunkID }

// cosine returns the cosine similarity of a and b in float64 precision.
// Mismatched dimensions or a zero vector score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}
