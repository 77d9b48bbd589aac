// Package chi wires the use case services to the HTTP API.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atlasops/docuchat/internal/domain"
	chatuc "github.com/atlasops/docuchat/internal/usecase/chat"
	healthuc "github.com/atlasops/docuchat/internal/usecase/health"
	ingestuc "github.com/atlasops/docuchat/internal/usecase/ingest"
	searchuc "github.com/atlasops/docuchat/internal/usecase/search"
)

// multipart form memory ceiling; larger files spill to temp storage.
const multipartMemory = 4 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the API.
type Server struct {
	ingest        *ingestuc.Service
	chat          *chatuc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	maxUploadSize int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. maxUploadSize bounds the request
// body read on /upload.
func NewServer(
	ingest *ingestuc.Service,
	chat *chatuc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	maxUploadSize int64,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:        ingest,
		chat:          chat,
		search:        search,
		health:        health,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrExtraction, http.StatusUnprocessableEntity, codeExtractionFailed),
		sentinelHandler(domain.ErrEmbedding, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrCompletion, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Routes mounts all endpoints on the router.
func (s *Server) Routes(r chirouter.Router) {
	r.Post("/upload", s.Upload)
	r.Post("/chat", s.Chat)
	r.Get("/search", s.Search)
	r.Post("/clear", s.Clear)
	r.Delete("/documents/{id}", s.DeleteDocument)
	r.Get("/health", s.Health)
	r.Get("/metrics", s.Metrics)
}

// Upload handles POST /upload (multipart field "file").
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	if s.maxUploadSize > 0 {
		// Headroom for the multipart framing around the file part.
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize+64<<10)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, `multipart field "file" is required`)
		return
	}
	defer func() { _ = file.Close() }()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "failed to read file: "+err.Error())
		return
	}

	receipt, err := s.ingest.Ingest(r.Context(), header.Filename, raw)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:    "Document uploaded and indexed successfully.",
		DocumentID: receipt.Document.ID(),
		Filename:   receipt.Document.Filename(),
		Chunks:     receipt.Chunks,
	})
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	answer, err := s.chat.Ask(r.Context(), req.Message)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: answer})
}

// Search handles GET /search?query=&limit=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	entries, err := s.search.Search(r.Context(), query, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results := make([]searchResultItem, len(entries))
	for i, e := range entries {
		results[i] = searchResultItem{
			DocID:     e.DocID,
			Content:   e.Content,
			Metadata:  e.Metadata,
			IndexedAt: e.IndexedAt,
			Score:     e.Score,
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

// Clear handles POST /clear: wipes both indexes and the conversation.
func (s *Server) Clear(w http.ResponseWriter, r *http.Request) {
	if err := s.ingest.Clear(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.chat.Clear()

	writeJSON(w, http.StatusOK, clearResponse{
		Message: "All documents and conversation history cleared.",
	})
}

// DeleteDocument handles DELETE /documents/{id}. Deleting an absent
// document returns 204 as well.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")
	if err := s.ingest.Remove(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// safeDomainMessage returns a client-facing message without exposing
// internals. Validation reasons are built by us and safe to echo in full.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrValidation) {
		return err.Error()
	}
	for _, s := range []error{
		domain.ErrExtraction,
		domain.ErrEmbedding,
		domain.ErrCompletion,
		domain.ErrNotFound,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
