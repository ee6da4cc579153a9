// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/leseb/featuregw/pkg/audiostore"
	"github.com/leseb/featuregw/pkg/core/gateway"
	"github.com/leseb/featuregw/pkg/core/schema"
)

// handleGetAudio handles GET /v1/audio/{name}
func (h *Handler) handleGetAudio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := audiostore.ValidateName(name); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	data, err := h.gateway.Audio(r.Context(), name)
	if err != nil {
		h.writeAudioError(w, name, err)
		return
	}

	w.Header().Set("Content-Type", gateway.AudioContentType(schema.AudioExtension(name)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleDeleteAudio handles DELETE /v1/audio/{name}
func (h *Handler) handleDeleteAudio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := audiostore.ValidateName(name); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.gateway.DiscardAudio(r.Context(), name); err != nil {
		h.writeAudioError(w, name, err)
		return
	}

	h.logger.Info("Audio removed", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeAudioError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, audiostore.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "No audio stored under "+name)
		return
	}
	h.logger.Error("Audio store failure", "name", name, "error", err)
	h.writeError(w, http.StatusInternalServerError, "audio_store_error", err.Error())
}
