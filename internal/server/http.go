package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/alfredjeanlab/agritag/internal/interchange"
	"github.com/alfredjeanlab/agritag/internal/logging"
	"github.com/alfredjeanlab/agritag/internal/metrics"
	"github.com/alfredjeanlab/agritag/internal/model"
	"github.com/alfredjeanlab/agritag/internal/workspace"
)

// maxImportBytes caps uploaded interchange documents.
const maxImportBytes = 32 << 20

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health and GET
// /metrics) must include a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/vocabulary", s.handleVocabulary)
	mux.HandleFunc("GET /v1/features", s.handleListFeatures)
	mux.HandleFunc("GET /v1/features/{id}", s.handleGetFeature)
	mux.HandleFunc("PATCH /v1/features/{id}", s.handleUpdateFeature)
	mux.HandleFunc("DELETE /v1/features/{id}", s.handleDeleteFeature)
	mux.HandleFunc("POST /v1/features/{id}/select", s.handleSelectFeature)
	mux.HandleFunc("GET /v1/features/{id}/bounds", s.handleFeatureBounds)
	mux.HandleFunc("GET /v1/selection", s.handleGetSelection)
	mux.HandleFunc("PATCH /v1/selection", s.handleUpdateSelection)
	mux.HandleFunc("DELETE /v1/selection", s.handleClearSelection)
	mux.HandleFunc("GET /v1/draw-color", s.handleGetDrawColor)
	mux.HandleFunc("PUT /v1/draw-color", s.handleSetDrawColor)
	mux.HandleFunc("POST /v1/draw", s.handleDraw)
	mux.HandleFunc("GET /v1/layers", s.handleListLayers)
	mux.HandleFunc("GET /v1/export", s.handleExport)
	mux.HandleFunc("POST /v1/import", s.handleImport)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.Handle("GET /metrics", metrics.Handler())

	var h http.Handler = AuthMiddleware(authToken, mux)
	h = logging.AccessMiddleware(s.logger, observeRequest)(h)
	return RecoveryMiddleware(s.logger, h)
}

func observeRequest(method string, d time.Duration) {
	metrics.RequestDurationMs.WithLabelValues(method).Observe(float64(d.Microseconds()) / 1000)
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVocabulary handles GET /v1/vocabulary.
func (s *Server) handleVocabulary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Vocabulary())
}

// handleExport handles GET /v1/export.
func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	data, err := s.ws.Export()
	if err != nil {
		metrics.ExportsTotal.WithLabelValues("download", metrics.ResultError).Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.ExportsTotal.WithLabelValues("download", metrics.ResultOK).Inc()
	w.Header().Set("Content-Type", interchange.MediaType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+s.ws.ExportFilename()+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImport handles POST /v1/import. The body is an interchange document.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "document too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	res, err := s.ws.Import(r.Context(), data)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// writeWorkspaceError maps workspace errors onto HTTP status codes.
func writeWorkspaceError(w http.ResponseWriter, err error) {
	var ve *model.ValidationError
	var ie *interchange.ImportError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Error(), "fields": fieldErrors(ve)})
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, ie.Error())
	case errors.Is(err, workspace.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, workspace.ErrNoSelection):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func fieldErrors(ve *model.ValidationError) map[string]string {
	out := make(map[string]string, len(ve.Errors))
	for _, fe := range ve.Errors {
		if _, dup := out[fe.Field]; !dup {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

// decodeBody decodes a JSON request body, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
