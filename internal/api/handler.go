package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"document-hydrator/internal/hydrator"
	"document-hydrator/internal/logging"
)

// SourceLookup resolves a source name to its resolver.
type SourceLookup interface {
	Lookup(name string) (hydrator.Resolver, error)
}

// HandlerConfig bounds the work a single request may ask for.
type HandlerConfig struct {
	MaxDocuments int // 0 means unlimited
}

// Handler serves POST /hydrate.
type Handler struct {
	engine  *hydrator.Engine
	sources SourceLookup
	cfg     HandlerConfig
}

// NewHandler creates the hydrate endpoint handler.
func NewHandler(engine *hydrator.Engine, sources SourceLookup, cfg HandlerConfig) *Handler {
	return &Handler{engine: engine, sources: sources, cfg: cfg}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	format := formatFromContentType(r.Header.Get("Content-Type"))
	logger := logging.FromContext(r.Context())

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, format, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, format, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, format, http.StatusBadRequest, "failed to read request body")
		return
	}

	req, err := decodeRequest(body, format)
	if err != nil {
		writeError(w, format, http.StatusBadRequest, err.Error())
		return
	}
	if h.cfg.MaxDocuments > 0 && req.documentCount() > h.cfg.MaxDocuments {
		writeError(w, format, http.StatusBadRequest, "too many documents in one request")
		return
	}

	resolver, err := h.sources.Lookup(req.Source)
	if err != nil {
		writeError(w, format, http.StatusNotFound, err.Error())
		return
	}

	var resp map[string]any
	if req.Document != nil {
		var doc hydrator.Document
		doc, err = h.engine.HydrateDocument(r.Context(), req.Document, resolver, req.Paths...)
		resp = map[string]any{"document": doc}
	} else {
		var docs []hydrator.Document
		docs, err = h.engine.HydrateDocuments(r.Context(), req.Documents, resolver, req.Paths...)
		resp = map[string]any{"documents": docs}
	}
	if err != nil {
		status, message := classifyHydrateError(err)
		logLevel := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			logLevel = slog.LevelError
		}
		logger.Log(r.Context(), logLevel, "hydration failed",
			slog.String("source", req.Source),
			slog.Any("paths", req.Paths),
			slog.String("error", err.Error()),
		)
		writeError(w, format, status, message)
		return
	}

	writeBody(w, format, http.StatusOK, resp)
}

// classifyHydrateError maps engine and resolver failures to a status and a client-safe message.
func classifyHydrateError(err error) (int, string) {
	switch {
	case errors.Is(err, hydrator.ErrIncompleteResolution), errors.Is(err, hydrator.ErrInvalidIdentifier):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, ErrUnknownSource):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusBadGateway, "source lookup failed"
	}
}

// SourcesHandler lists the configured source names.
func SourcesHandler(registry *Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, formatJSON, http.StatusOK, map[string][]string{"sources": registry.Names()})
	})
}

func writeError(w http.ResponseWriter, format bodyFormat, status int, message string) {
	writeBody(w, format, status, errorResponse{Error: message})
}

func writeBody(w http.ResponseWriter, format bodyFormat, status int, value any) {
	data, err := encodeBody(format, value)
	if err != nil {
		format = formatJSON
		status = http.StatusInternalServerError
		data = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", format.contentType())
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
