package builtin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
)

const solverTestYAML = `
saasName: Test
features:
  sso:
    valueType: BOOLEAN
usageLimits:
  maxUsers:
    valueType: NUMERIC
    unit: users
plans:
  basic: {}
  pro: {}
addOns:
  extraSeats: {}
`

// newSolverJobServer returns an httptest server that accepts a single job
// submission and immediately reports it completed with body as the result.
func newSolverJobServer(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/jobs") && r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(map[string]string{"job_id": "job-1"})
		case strings.Contains(r.URL.Path, "/jobs/"):
			w.Write([]byte(`{"status":"completed","result":` + body + `}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// newSolverFailureServer reports the submitted job as permanently failed.
func newSolverFailureServer(message string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/jobs") && r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(map[string]string{"job_id": "job-1"})
		case strings.Contains(r.URL.Path, "/jobs/"):
			json.NewEncoder(w).Encode(map[string]string{"status": "failed", "message": message})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}
