package web

import (
	"net/http"

	"github.com/isa-group/harvey-agent-core/internal/blobstore"
	"github.com/isa-group/harvey-agent-core/internal/session"
)

// PricingHandler serves the per-artifact routes: DELETE /pricing/{id}
// removes a stored pricing artifact, GET /static/{id} serves it raw for
// external editor links (spec.md §4.8/§4.9).
type PricingHandler struct {
	blobs    blobstore.Store
	sessions *session.Store
}

// NewPricingHandler builds a PricingHandler.
func NewPricingHandler(blobs blobstore.Store, sessions *session.Store) *PricingHandler {
	return &PricingHandler{blobs: blobs, sessions: sessions}
}

// HandleDelete serves DELETE /pricing/{id}.
func (h *PricingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	if err := h.blobs.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete artifact: "+err.Error())
		return
	}

	if sessionID := sessionIDFromRequest(r); sessionID != "" {
		h.sessions.DeleteItem(sessionID, id)
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleStatic serves GET /static/{id}: the raw stored bytes with their
// original content type.
func (h *PricingHandler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	data, mime, err := h.blobs.Get(r.Context(), id)
	if err != nil {
		if _, ok := err.(blobstore.ErrNotFound); ok {
			writeError(w, http.StatusNotFound, "no such artifact")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read artifact: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
