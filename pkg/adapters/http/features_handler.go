// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/leseb/featuregw/pkg/core/gateway"
	"github.com/leseb/featuregw/pkg/core/schema"
)

const (
	maxAudioUpload = 25 << 20 // provider limit for transcription uploads
	maxJSONBody    = 1 << 20
)

// handleListFeatures handles GET /v1/features
func (h *Handler) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, schema.ListFeaturesResponse{
		Object: "list",
		Data:   h.gateway.Features(),
	})
}

// handleDispatch handles POST /v1/features/{kind}
func (h *Handler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	kind, err := schema.ParseKind(r.PathValue("kind"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "unknown_feature", err.Error())
		return
	}

	var req schema.Request
	if kind == schema.KindTranscription {
		req, err = readTranscription(r)
	} else {
		req, err = readJSONRequest(w, r, kind)
	}
	if err != nil {
		h.logger.Error("Failed to parse request", "kind", kind, "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := h.gateway.Dispatch(r.Context(), credential(r), req)
	h.writeJSON(w, statusFor(err), gateway.Render(kind, resp, err))
}

func readJSONRequest(w http.ResponseWriter, r *http.Request, kind schema.Kind) (schema.Request, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return nil, err
	}
	return schema.DecodeRequest(kind, body)
}

func readTranscription(r *http.Request) (schema.Request, error) {
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		return nil, errors.New("transcription requires a multipart form with a file field")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("file is required")
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return schema.Transcription{Filename: header.Filename, Audio: audio}, nil
}

// statusFor maps a dispatch error to an HTTP status.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch gateway.KindOf(err) {
	case gateway.KindInvalidCredential:
		return http.StatusUnauthorized
	case gateway.KindInvalidRequest:
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
