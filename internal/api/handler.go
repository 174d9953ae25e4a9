package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/eugenenazirov/siteconf/internal/document"
	"github.com/eugenenazirov/siteconf/internal/siteconf"
	"github.com/eugenenazirov/siteconf/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler exposes the published configuration and document validation over HTTP.
type Handler struct {
	storage  storage.Storage
	resolver *siteconf.Resolver
	loader   *document.Loader

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, resolver *siteconf.Resolver, loader *document.Loader, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage:  store,
		resolver: resolver,
		loader:   loader,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	_ = r
	snapshot, ok := h.activeSnapshot(w)
	if !ok {
		return
	}

	resp := configResponse{
		Config:      snapshot.Resolved,
		Ignored:     snapshot.Resolved.Ignored(),
		PublishedAt: snapshot.PublishedAt,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	format, err := document.FormatFromContentType(r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, "Unsupported document format", err.Error(),
			"send application/json, application/yaml or application/toml")
		return
	}

	merge := false
	if raw := r.URL.Query().Get("merge"); raw != "" {
		merge, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request", "merge must be a boolean")
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.loader.MaxSize()))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Document too large", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to read request body")
		return
	}

	doc, err := h.loader.Decode(body, format)
	if err != nil {
		writeDocumentError(w, err)
		return
	}

	docs := []siteconf.Document{doc}
	if merge {
		snapshot, ok := h.activeSnapshot(w)
		if !ok {
			return
		}
		docs = []siteconf.Document{snapshot.Source, doc}
	}

	resolved, err := h.resolver.Resolve(docs...)
	if err != nil {
		writeDocumentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, configResponse{
		Config:  resolved,
		Ignored: resolved.Ignored(),
	})
}

func (h *Handler) handleCanonical(w http.ResponseWriter, r *http.Request) {
	route := r.URL.Query().Get("path")
	if route == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "path query parameter is required")
		return
	}

	snapshot, ok := h.activeSnapshot(w)
	if !ok {
		return
	}

	canonical, err := snapshot.Resolved.CanonicalURL(route)
	if err != nil {
		writeDocumentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, canonicalResponse{
		Path:      route,
		URL:       canonical,
		InSitemap: snapshot.Resolved.InSitemap(route),
	})
}

func (h *Handler) activeSnapshot(w http.ResponseWriter) (storage.Snapshot, bool) {
	snapshot, err := h.storage.Active()
	if err != nil {
		if errors.Is(err, storage.ErrNotPublished) {
			writeError(w, http.StatusServiceUnavailable, "Configuration unavailable", err.Error())
			return storage.Snapshot{}, false
		}
		writeInternalError(w, err)
		return storage.Snapshot{}, false
	}
	return snapshot, true
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type configResponse struct {
	Config      *siteconf.Resolved `json:"config"`
	Ignored     []string           `json:"ignored,omitempty"`
	PublishedAt time.Time          `json:"publishedAt,omitzero"`
}

type canonicalResponse struct {
	Path      string `json:"path"`
	URL       string `json:"url"`
	InSitemap bool   `json:"inSitemap"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Field      string `json:"field,omitempty"`
	Rule       string `json:"rule,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

// writeDocumentError maps validation failures to 422 and decode failures to 400.
func writeDocumentError(w http.ResponseWriter, err error) {
	var verr *siteconf.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "Invalid configuration",
			Details: err.Error(),
			Field:   verr.Field,
			Rule:    verr.Err.Error(),
		})
	case errors.Is(err, document.ErrDocumentTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Document too large", err.Error())
	case errors.Is(err, document.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, "Unsupported document format", err.Error())
	default:
		writeError(w, http.StatusBadRequest, "Invalid document", err.Error())
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
