package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isa-group/harvey-agent-core/internal/blobstore"
	"github.com/isa-group/harvey-agent-core/internal/session"
)

type fakeBlobStore struct {
	blobs map[string][2]string // id -> [mime, data]
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][2]string)}
}

func (f *fakeBlobStore) Put(_ context.Context, id, mime string, data []byte) error {
	if len(data) > blobstore.MaxBlobSize {
		return blobstore.ErrTooLarge{Size: len(data)}
	}
	if !blobstore.AllowedMIMETypes[mime] {
		return blobstore.ErrMIMENotAllowed{MIME: mime}
	}
	f.blobs[id] = [2]string{mime, string(data)}
	return nil
}

func (f *fakeBlobStore) Get(_ context.Context, id string) ([]byte, string, error) {
	v, ok := f.blobs[id]
	if !ok {
		return nil, "", blobstore.ErrNotFound{ID: id}
	}
	return []byte(v[1]), v[0], nil
}

func (f *fakeBlobStore) Delete(_ context.Context, id string) error {
	delete(f.blobs, id)
	return nil
}

func TestUploadHandler_StoresYAMLAndReturnsHandle(t *testing.T) {
	blobs := newFakeBlobStore()
	sessions := session.NewStore(0, 10)
	defer sessions.Close()
	h := NewUploadHandler(blobs, sessions)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("plans: []"))
	req.Header.Set("Content-Type", "application/yaml")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id"`)
	assert.Len(t, blobs.blobs, 1)
}

func TestUploadHandler_RejectsDisallowedMIME(t *testing.T) {
	blobs := newFakeBlobStore()
	sessions := session.NewStore(0, 10)
	defer sessions.Close()
	h := NewUploadHandler(blobs, sessions)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("<html/>"))
	req.Header.Set("Content-Type", "text/html")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUploadHandler_RejectsNonPost(t *testing.T) {
	blobs := newFakeBlobStore()
	sessions := session.NewStore(0, 10)
	defer sessions.Close()
	h := NewUploadHandler(blobs, sessions)

	req := httptest.NewRequest(http.MethodGet, "/upload", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
