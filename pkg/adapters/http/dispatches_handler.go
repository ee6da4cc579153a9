// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/leseb/featuregw/pkg/core/gateway"
	"github.com/leseb/featuregw/pkg/core/journal"
)

// handleListDispatches handles GET /v1/dispatches
func (h *Handler) handleListDispatches(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.gateway.Dispatches(r.Context(), limit)
	if errors.Is(err, gateway.ErrJournalDisabled) {
		h.writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("Failed to list dispatches", "error", err)
		h.writeError(w, http.StatusInternalServerError, "journal_error", err.Error())
		return
	}

	if entries == nil {
		entries = []*journal.Entry{}
	}
	h.writeJSON(w, http.StatusOK, journal.ListResponse{Object: "list", Data: entries})
}
