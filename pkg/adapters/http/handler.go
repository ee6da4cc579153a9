// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/leseb/featuregw/pkg/core/gateway"
	"github.com/leseb/featuregw/pkg/observability/logging"
)

// Handler implements the HTTP adapter
type Handler struct {
	gateway *gateway.Gateway
	logger  *logging.Logger
	mux     *http.ServeMux
}

// New creates a new HTTP handler
func New(gw *gateway.Gateway, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Handler{
		gateway: gw,
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	// Register routes
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /openapi.json", h.handleOpenAPI)

	// Features
	h.mux.HandleFunc("GET /v1/features", h.handleListFeatures)
	h.mux.HandleFunc("POST /v1/features/{kind}", h.handleDispatch)

	// Synthesized speech
	h.mux.HandleFunc("GET /v1/audio/{name}", h.handleGetAudio)
	h.mux.HandleFunc("DELETE /v1/audio/{name}", h.handleDeleteAudio)

	// Dispatch journal
	h.mux.HandleFunc("GET /v1/dispatches", h.handleListDispatches)

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	h.mux.ServeHTTP(w, r)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// credential reads the API key from the Authorization bearer token or,
// failing that, the X-API-Key header.
func credential(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to write response", "error", err)
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}
