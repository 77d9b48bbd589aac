// Package index persists the keyword search index: one entry per document,
// scored by substring occurrence counts at query time.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/atlasops/docuchat/internal/db"
	"github.com/atlasops/docuchat/internal/domain"
)

// DefaultSearchLimit caps results when the caller does not pass a limit.
const DefaultSearchLimit = 5

// Entry is one indexed document as returned by reads and searches.
type Entry struct {
	DocID     string
	Content   string
	Metadata  map[string]string
	IndexedAt time.Time
	Score     int

	seq int64
}

// store is the consumer interface for the keyword index (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// Repo implements the keyword index over a key-value store.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates a keyword index repository. prefix namespaces all keys.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix, now: time.Now}
}

// Put upserts the entry for docID, overwriting any previous content. The
// write is synchronous; a nil return means the entry is durable.
func (r *Repo) Put(ctx context.Context, docID, content string, metadata map[string]string) error {
	seq, err := r.store.Incr(ctx, r.seqKey())
	if err != nil {
		return storageErr(fmt.Sprintf("next seq for %s", docID), err)
	}

	data, err := json.Marshal(entryDTO{
		Content:   content,
		Metadata:  metadata,
		IndexedAt: r.now().UTC().Format(time.RFC3339Nano),
		Seq:       seq,
	})
	if err != nil {
		return fmt.Errorf("marshal entry %s: %w", docID, err)
	}

	if err := r.store.Set(ctx, r.entryKey(docID), data); err != nil {
		return storageErr(fmt.Sprintf("put %s", docID), err)
	}
	return nil
}

// GetAll returns every indexed entry in insertion order.
func (r *Repo) GetAll(ctx context.Context) ([]Entry, error) {
	keys, err := r.store.Scan(ctx, r.entryKey("*"))
	if err != nil {
		return nil, storageErr("scan index", err)
	}

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue // deleted between scan and get
			}
			return nil, storageErr(fmt.Sprintf("get %s", key), err)
		}

		entry, err := parseEntry(strings.TrimPrefix(key, r.entryKey("")), data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	return entries, nil
}

// Count returns the number of indexed documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.entryKey("*"))
	if err != nil {
		return 0, storageErr("scan index", err)
	}
	return len(keys), nil
}

// Delete removes the entry for docID. Absent entries are a no-op.
func (r *Repo) Delete(ctx context.Context, docID string) error {
	if err := r.store.Del(ctx, r.entryKey(docID)); err != nil {
		return storageErr(fmt.Sprintf("delete %s", docID), err)
	}
	return nil
}

// Clear removes every indexed entry and resets the insertion counter.
func (r *Repo) Clear(ctx context.Context) error {
	keys, err := r.store.Scan(ctx, r.entryKey("*"))
	if err != nil {
		return storageErr("scan index", err)
	}
	keys = append(keys, r.seqKey())
	if err := r.store.Del(ctx, keys...); err != nil {
		return storageErr("clear index", err)
	}
	return nil
}

// Search ranks entries by the number of non-overlapping, case-insensitive
// occurrences of query in the content. Ties keep insertion order. A query
// that matches nothing returns an empty result, not an error.
func (r *Repo) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if query == "" {
		return nil, nil
	}

	entries, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matched := entries[:0]
	for _, e := range entries {
		if score := strings.Count(strings.ToLower(e.Content), needle); score > 0 {
			e.Score = score
			matched = append(matched, e)
		}
	}

	// GetAll returns insertion order; a stable sort preserves it for ties.
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Score > matched[j].Score })

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *Repo) entryKey(docID string) string { return r.prefix + "index:" + docID }
func (r *Repo) seqKey() string               { return r.prefix + "index_seq" }

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}
