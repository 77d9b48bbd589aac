// Package ingest implements the upload pipeline: validate, extract, chunk,
// index, embed.
package ingest

import (
	"context"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atlasops/docuchat/internal/domain"
	"github.com/atlasops/docuchat/internal/domain/chunk"
	"github.com/atlasops/docuchat/internal/domain/document"
)

// Receipt summarizes a completed ingestion.
type Receipt struct {
	Document    document.Document
	Chunks      int
	TotalTokens int
}

// Service handles document ingestion. Writes for one document are
// serialized; different documents ingest concurrently.
type Service struct {
	index       KeywordIndex
	vectors     VectorIndex
	embedder    Embedder
	extractor   Extractor
	splitter    Splitter
	maxFileSize int64
	allowedExts map[string]bool
	logger      *zap.Logger

	// Striped locks keyed by document id hash: bounded memory, and two
	// operations on the same document never interleave.
	locks [lockStripes]sync.Mutex
}

const lockStripes = 32

// New creates an ingest service. allowedExts are lowercased extensions
// including the dot, e.g. ".txt".
func New(
	idx KeywordIndex,
	vectors VectorIndex,
	embedder Embedder,
	extractor Extractor,
	splitter Splitter,
	maxFileSize int64,
	allowedExts []string,
	logger *zap.Logger,
) *Service {
	allowed := make(map[string]bool, len(allowedExts))
	for _, ext := range allowedExts {
		allowed[strings.ToLower(ext)] = true
	}
	return &Service{
		index:       idx,
		vectors:     vectors,
		embedder:    embedder,
		extractor:   extractor,
		splitter:    splitter,
		maxFileSize: maxFileSize,
		allowedExts: allowed,
		logger:      logger,
	}
}

// Ingest runs the full pipeline for one uploaded file. On any failure after
// the keyword entry is written, everything written for the document is
// rolled back so the indexes never hold a partial document.
func (s *Service) Ingest(ctx context.Context, filename string, raw []byte) (Receipt, error) {
	if err := s.validateUpload(filename, raw); err != nil {
		return Receipt{}, err
	}

	doc, err := document.New(filename, int64(len(raw)), time.Now())
	if err != nil {
		return Receipt{}, fmt.Errorf("%s: %w", err, domain.ErrValidation)
	}

	text, err := s.extractor.Extract(doc.Filename(), raw)
	if err != nil {
		return Receipt{}, fmt.Errorf("extract %s: %w", doc.Filename(), err)
	}
	if strings.TrimSpace(text) == "" {
		return Receipt{}, fmt.Errorf("%s has no extractable text: %w", doc.Filename(), domain.ErrValidation)
	}

	unlock := s.lock(doc.ID())
	defer unlock()

	meta := map[string]string{"source": doc.Filename()}
	if err := s.index.Put(ctx, doc.ID(), text, meta); err != nil {
		return Receipt{}, fmt.Errorf("index document: %w", err)
	}

	pieces := s.splitter.Split(text)
	tokens := 0
	written := make([]string, 0, len(pieces))
	for i, piece := range pieces {
		ch, err := chunk.New(doc.ID(), i, piece, meta)
		if err != nil {
			s.rollback(ctx, doc.ID(), written)
			return Receipt{}, fmt.Errorf("build chunk %d: %w", i, err)
		}

		result, err := s.embedder.Embed(ctx, piece)
		if err != nil {
			s.rollback(ctx, doc.ID(), written)
			return Receipt{}, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		tokens += result.TotalTokens

		if err := s.vectors.Put(ctx, ch.ID(), ch.Content(), ch.Metadata(), result.Embedding); err != nil {
			s.rollback(ctx, doc.ID(), written)
			return Receipt{}, fmt.Errorf("store chunk %d: %w", i, err)
		}
		written = append(written, ch.ID())
	}

	s.logger.Info("Document ingested",
		zap.String("doc_id", doc.ID()),
		zap.String("filename", doc.Filename()),
		zap.Int("chunks", len(written)),
		zap.Int("tokens", tokens),
	)

	return Receipt{Document: doc, Chunks: len(written), TotalTokens: tokens}, nil
}

// Remove deletes a document from both indexes. Removing an absent document
// succeeds.
func (s *Service) Remove(ctx context.Context, docID string) error {
	if docID == "" {
		return fmt.Errorf("document id is required: %w", domain.ErrValidation)
	}

	unlock := s.lock(docID)
	defer unlock()

	if err := s.index.Delete(ctx, docID); err != nil {
		return fmt.Errorf("remove from keyword index: %w", err)
	}
	if err := s.vectors.DeleteByDocument(ctx, docID); err != nil {
		return fmt.Errorf("remove from vector index: %w", err)
	}
	return nil
}

// Clear wipes both indexes.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear keyword index: %w", err)
	}
	if err := s.vectors.Clear(ctx); err != nil {
		return fmt.Errorf("clear vector index: %w", err)
	}
	s.logger.Info("Indexes cleared")
	return nil
}

func (s *Service) validateUpload(filename string, raw []byte) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("filename is required: %w", domain.ErrValidation)
	}
	if len(raw) == 0 {
		return fmt.Errorf("file is empty: %w", domain.ErrValidation)
	}
	if s.maxFileSize > 0 && int64(len(raw)) > s.maxFileSize {
		return fmt.Errorf("file exceeds %d bytes: %w", s.maxFileSize, domain.ErrValidation)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if len(s.allowedExts) > 0 && !s.allowedExts[ext] {
		return fmt.Errorf("unsupported file type %q: %w", ext, domain.ErrValidation)
	}
	return nil
}

// rollback undoes a partial ingestion. Rollback failures are logged, not
// returned; the original failure is the caller's error.
func (s *Service) rollback(ctx context.Context, docID string, chunkIDs []string) {
	if err := s.index.Delete(ctx, docID); err != nil {
		s.logger.Error("Rollback: failed to remove keyword entry", zap.String("doc_id", docID), zap.Error(err))
	}
	if err := s.vectors.Delete(ctx, chunkIDs...); err != nil {
		s.logger.Error("Rollback: failed to remove chunks", zap.String("doc_id", docID), zap.Error(err))
	}
}

func (s *Service) lock(docID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(docID))
	m := &s.locks[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
