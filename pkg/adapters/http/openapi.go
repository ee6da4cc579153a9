// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/leseb/featuregw/docs"
	"gopkg.in/yaml.v3"
)

// openAPIJSON converts the embedded YAML document once.
var openAPIJSON = sync.OnceValues(func() ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(docs.OpenAPISpec, &doc); err != nil {
		return nil, fmt.Errorf("parse openapi.yaml: %w", err)
	}
	data, err := json.Marshal(jsonCompatible(doc))
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}
	return data, nil
})

// handleOpenAPI serves the OpenAPI document as JSON
func (h *Handler) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	data, err := openAPIJSON()
	if err != nil {
		h.logger.Error("Failed to load OpenAPI document", "error", err)
		h.writeError(w, http.StatusInternalServerError, "spec_error", "Failed to load OpenAPI spec")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// jsonCompatible rewrites maps with non-string keys (yaml.v3 produces them
// for unquoted numeric keys such as status codes) so encoding/json accepts them.
func jsonCompatible(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, item := range val {
			val[k] = jsonCompatible(item)
		}
		return val
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = jsonCompatible(item)
		}
		return out
	case []interface{}:
		for i, item := range val {
			val[i] = jsonCompatible(item)
		}
		return val
	}
	return v
}
