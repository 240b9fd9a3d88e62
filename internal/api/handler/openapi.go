package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/api/response"
)

// OpenAPIHandler serves the embedded OpenAPI document as JSON. The document
// is converted once; clients revalidate with the ETag.
type OpenAPIHandler struct {
	rawYAML []byte

	once sync.Once
	json []byte
	etag string
	err  error
}

// NewOpenAPIHandler creates a handler for the given YAML document.
func NewOpenAPIHandler(yamlSpec []byte) *OpenAPIHandler {
	return &OpenAPIHandler{rawYAML: yamlSpec}
}

func (h *OpenAPIHandler) load() {
	h.json, h.err = yaml.YAMLToJSON(h.rawYAML)
	if h.err != nil {
		return
	}
	sum := sha256.Sum256(h.json)
	h.etag = `"` + hex.EncodeToString(sum[:8]) + `"`
}

// ServeHTTP handles GET /openapi.json.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.load)

	if h.err != nil {
		slog.Error("failed to convert OpenAPI document", "error", h.err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to convert OpenAPI document", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("ETag", h.etag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	if etagMatches(r.Header.Get("If-None-Match"), h.etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.json); err != nil {
		slog.Error("failed to write OpenAPI document", "error", err)
	}
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		c := strings.TrimSpace(candidate)
		if c == "*" || strings.TrimPrefix(c, "W/") == etag {
			return true
		}
	}
	return false
}
