package web

import (
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/isa-group/harvey-agent-core/internal/blobstore"
	"github.com/isa-group/harvey-agent-core/internal/pricing"
	"github.com/isa-group/harvey-agent-core/internal/session"
)

// uploadResponse is the POST /upload success body: a handle the caller can
// later reference as pricing_yaml input or via GET /static/{id}.
type uploadResponse struct {
	ID string `json:"id"`
}

// UploadHandler serves POST /upload: stores a raw YAML body into the blob
// store (C9) and registers it in the caller's session working set.
type UploadHandler struct {
	blobs    blobstore.Store
	sessions *session.Store
}

// NewUploadHandler builds an UploadHandler.
func NewUploadHandler(blobs blobstore.Store, sessions *session.Store) *UploadHandler {
	return &UploadHandler{blobs: blobs, sessions: sessions}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	mime := r.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/yaml"
	}

	r.Body = http.MaxBytesReader(w, r.Body, blobstore.MaxBlobSize+1)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}

	id := uuid.New().String()
	if err := h.blobs.Put(r.Context(), id, mime, data); err != nil {
		switch err.(type) {
		case blobstore.ErrTooLarge:
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		case blobstore.ErrMIMENotAllowed:
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to store upload: "+err.Error())
		}
		return
	}

	sessionID := sessionIDFromRequest(r)
	if sessionID != "" {
		h.sessions.PutItem(sessionID, &pricing.Item{
			ID:          id,
			Kind:        pricing.KindYAML,
			Origin:      pricing.OriginUser,
			Value:       string(data),
			Transform:   pricing.TransformDone,
			ArtifactRef: id,
			Uploaded:    true,
		})
	}

	writeJSON(w, http.StatusOK, uploadResponse{ID: id})
}
