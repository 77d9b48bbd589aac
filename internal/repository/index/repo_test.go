package index

import (
	"context"
	"errors"
	"testing"

	"github.com/atlasops/docuchat/internal/domain"
)

func seed(t *testing.T, repo *Repo, docs map[string]string) {
	t.Helper()
	for docID, content := range docs {
		if err := repo.Put(context.Background(), docID, content, nil); err != nil {
			t.Fatalf("Put(%s) failed: %v", docID, err)
		}
	}
}

func TestPut_GetAll_RoundTrip(t *testing.T) {
	repo := New(newMemStore(), "test:")

	err := repo.Put(context.Background(), "doc-1", "hello world", map[string]string{"source": "a.txt"})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entries, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].DocID != "doc-1" {
		t.Errorf("expected DocID doc-1, got %q", entries[0].DocID)
	}
	if entries[0].Content != "hello world" {
		t.Errorf("unexpected content: %q", entries[0].Content)
	}
	if entries[0].Metadata["source"] != "a.txt" {
		t.Errorf("metadata not preserved: %v", entries[0].Metadata)
	}
	if entries[0].IndexedAt.IsZero() {
		t.Error("expected IndexedAt to be set")
	}
}

func TestPut_OverwritesExisting(t *testing.T) {
	repo := New(newMemStore(), "test:")
	ctx := context.Background()

	seed(t, repo, map[string]string{"doc-1": "old content"})
	if err := repo.Put(ctx, "doc-1", "new content", nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entries, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after overwrite, got %d", len(entries))
	}
	if entries[0].Content != "new content" {
		t.Errorf("expected overwritten content, got %q", entries[0].Content)
	}
}

func TestGetAll_InsertionOrder(t *testing.T) {
	repo := New(newMemStore(), "test:")
	ctx := context.Background()

	for _, docID := range []string{"zulu", "alpha", "mike"} {
		if err := repo.Put(ctx, docID, "body", nil); err != nil {
			t.Fatalf("Put(%s) failed: %v", docID, err)
		}
	}

	entries, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}

	want := []string{"zulu", "alpha", "mike"}
	for i, docID := range want {
		if entries[i].DocID != docID {
			t.Errorf("position %d: expected %s, got %s", i, docID, entries[i].DocID)
		}
	}
}

func TestDelete_RemovesEntry(t *testing.T) {
	repo := New(newMemStore(), "test:")
	ctx := context.Background()

	seed(t, repo, map[string]string{"doc-1": "a", "doc-2": "b"})
	if err := repo.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 entry after delete, got %d", n)
	}
}

func TestDelete_AbsentIsNoOp(t *testing.T) {
	repo := New(newMemStore(), "test:")
	if err := repo.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("expected no error deleting absent entry, got %v", err)
	}
}

func TestSearch_ScoresByOccurrenceCount(t *testing.T) {
	repo := New(newMemStore(), "test:")
	seed(t, repo, map[string]string{
		"doc-1": "go is fun. go is fast. go go go",
		"doc-2": "go home",
		"doc-3": "python only",
	})

	results, err := repo.Search(context.Background(), "go", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].DocID != "doc-1" || results[0].Score != 5 {
		t.Errorf("expected doc-1 first with score 5, got %s score %d", results[0].DocID, results[0].Score)
	}
	if results[1].DocID != "doc-2" || results[1].Score != 1 {
		t.Errorf("expected doc-2 second with score 1, got %s score %d", results[1].DocID, results[1].Score)
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	repo := New(newMemStore(), "test:")
	seed(t, repo, map[string]string{"doc-1": "Redis REDIS redis"})

	results, err := repo.Search(context.Background(), "rEdIs", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Score != 3 {
		t.Fatalf("expected one result with score 3, got %+v", results)
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	repo := New(newMemStore(), "test:")
	ctx := context.Background()

	// Same score; insertion order must decide.
	for _, docID := range []string{"later-name", "earlier-name", "another"} {
		if err := repo.Put(ctx, docID, "one match here", nil); err != nil {
			t.Fatalf("Put(%s) failed: %v", docID, err)
		}
	}

	results, err := repo.Search(ctx, "match", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	want := []string{"later-name", "earlier-name", "another"}
	for i, docID := range want {
		if results[i].DocID != docID {
			t.Errorf("position %d: expected %s, got %s", i, docID, results[i].DocID)
		}
	}
}

func TestSearch_LimitTruncates(t *testing.T) {
	repo := New(newMemStore(), "test:")
	seed(t, repo, map[string]string{
		"doc-1": "term", "doc-2": "term", "doc-3": "term", "doc-4": "term",
	})

	results, err := repo.Search(context.Background(), "term", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestSearch_NoMatchesReturnsEmpty(t *testing.T) {
	repo := New(newMemStore(), "test:")
	seed(t, repo, map[string]string{"doc-1": "nothing relevant"})

	results, err := repo.Search(context.Background(), "absent", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestClear_EmptiesIndexAndResetsSeq(t *testing.T) {
	repo := New(newMemStore(), "test:")
	ctx := context.Background()

	seed(t, repo, map[string]string{"doc-1": "a", "doc-2": "b"})
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty index, got %d entries", n)
	}
}

func TestCount_EmptyIndex(t *testing.T) {
	repo := New(newMemStore(), "test:")

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0, got %d", n)
	}
}

func TestPut_StoreFailureWrapsStorageError(t *testing.T) {
	store := newMemStore()
	store.setErr = errors.New("connection reset")
	repo := New(store, "test:")

	err := repo.Put(context.Background(), "doc-1", "body", nil)
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestSearch_StoreFailureWrapsStorageError(t *testing.T) {
	store := newMemStore()
	store.scanErr = errors.New("connection reset")
	repo := New(store, "test:")

	_, err := repo.Search(context.Background(), "term", 5)
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}
