package web

import (
	"encoding/json"
	"net/http"
)

// chatRequest is the POST /chat request body (spec.md §4.8). Exactly one of
// the url/yaml pairings may be set per field: pricing_url XOR pricing_urls,
// pricing_yaml XOR pricing_yamls.
type chatRequest struct {
	Question     string   `json:"question"`
	PricingURL   string   `json:"pricing_url,omitempty"`
	PricingURLs  []string `json:"pricing_urls,omitempty"`
	PricingYAML  string   `json:"pricing_yaml,omitempty"`
	PricingYAMLs []string `json:"pricing_yamls,omitempty"`
}

// urls merges the singular/plural url fields into one list in request order,
// duplicates included; validateExclusion has already rejected both being set
// at once.
func (req chatRequest) urls() []string {
	if req.PricingURL != "" {
		return []string{req.PricingURL}
	}
	return req.PricingURLs
}

func (req chatRequest) yamls() []string {
	if req.PricingYAML != "" {
		return []string{req.PricingYAML}
	}
	return req.PricingYAMLs
}

// validateExclusion enforces the singular/plural exclusion constraint the
// frontend type system normally guarantees.
func (req chatRequest) validateExclusion() error {
	if req.PricingURL != "" && len(req.PricingURLs) > 0 {
		return errBadRequest{"pricing_url and pricing_urls are mutually exclusive"}
	}
	if req.PricingYAML != "" && len(req.PricingYAMLs) > 0 {
		return errBadRequest{"pricing_yaml and pricing_yamls are mutually exclusive"}
	}
	if req.Question == "" {
		return errBadRequest{"question is required"}
	}
	return nil
}

type errBadRequest struct{ reason string }

func (e errBadRequest) Error() string { return e.reason }

// chatResponse is the POST /chat success body.
type chatResponse struct {
	Answer string          `json:"answer"`
	Plan   json.RawMessage `json:"plan,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// errorResponse is the POST /chat (and other handlers') error body.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
