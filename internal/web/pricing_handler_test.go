package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isa-group/harvey-agent-core/internal/session"
)

func newPricingMux(h *PricingHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /pricing/{id}", h.HandleDelete)
	mux.HandleFunc("GET /static/{id}", h.HandleStatic)
	return mux
}

func TestPricingHandler_StaticServesStoredBlob(t *testing.T) {
	blobs := newFakeBlobStore()
	_ = blobs.Put(nil, "abc", "application/yaml", []byte("plans: []"))
	sessions := session.NewStore(0, 10)
	defer sessions.Close()
	h := NewPricingHandler(blobs, sessions)
	mux := newPricingMux(h)

	req := httptest.NewRequest(http.MethodGet, "/static/abc", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "plans: []", rec.Body.String())
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
}

func TestPricingHandler_StaticMissingReturns404(t *testing.T) {
	blobs := newFakeBlobStore()
	sessions := session.NewStore(0, 10)
	defer sessions.Close()
	h := NewPricingHandler(blobs, sessions)
	mux := newPricingMux(h)

	req := httptest.NewRequest(http.MethodGet, "/static/missing", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPricingHandler_DeleteRemovesBlob(t *testing.T) {
	blobs := newFakeBlobStore()
	_ = blobs.Put(nil, "abc", "application/yaml", []byte("plans: []"))
	sessions := session.NewStore(0, 10)
	defer sessions.Close()
	h := NewPricingHandler(blobs, sessions)
	mux := newPricingMux(h)

	req := httptest.NewRequest(http.MethodDelete, "/pricing/abc", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, blobs.blobs, 0)
}
