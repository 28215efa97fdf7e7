package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// validID matches the blob ids this store accepts as filenames: no path
// separators, no traversal, no leading dot.
var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// FilesystemStore stores each blob as a single file under root, named
// "<id>.yaml" plus a sibling "<id>.mime" recording the content type.
// A per-id mutex (from locks) serializes concurrent access to the same id;
// different ids proceed independently. Grounded on the path-confinement
// convention used throughout internal/tool/builtin's file tools.
type FilesystemStore struct {
	root string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewFilesystemStore creates a store rooted at root, creating the directory
// if it does not already exist.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create root %q: %w", root, err)
	}
	return &FilesystemStore{root: root, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *FilesystemStore) lockFor(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

func (s *FilesystemStore) paths(id string) (data, meta string) {
	return filepath.Join(s.root, id+".yaml"), filepath.Join(s.root, id+".mime")
}

// Put implements Store.
func (s *FilesystemStore) Put(_ context.Context, id, mime string, data []byte) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("blobstore: invalid id %q", id)
	}
	if len(data) > MaxBlobSize {
		return ErrTooLarge{Size: len(data)}
	}
	if !AllowedMIMETypes[mime] {
		return ErrMIMENotAllowed{MIME: mime}
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	dataPath, metaPath := s.paths(id)
	if err := os.WriteFile(dataPath, data, 0o644); err != nil {
		return fmt.Errorf("blobstore: write %q: %w", id, err)
	}
	if err := os.WriteFile(metaPath, []byte(mime), 0o644); err != nil {
		return fmt.Errorf("blobstore: write mime for %q: %w", id, err)
	}
	return nil
}

// Get implements Store.
func (s *FilesystemStore) Get(_ context.Context, id string) ([]byte, string, error) {
	if !validID.MatchString(id) {
		return nil, "", fmt.Errorf("blobstore: invalid id %q", id)
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	dataPath, metaPath := s.paths(id)
	data, err := os.ReadFile(dataPath)
	if os.IsNotExist(err) {
		return nil, "", ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, "", fmt.Errorf("blobstore: read %q: %w", id, err)
	}
	mime, err := os.ReadFile(metaPath)
	if err != nil {
		mime = []byte("application/yaml") // lost sidecar: fall back to the default
	}
	return data, string(mime), nil
}

// Delete implements Store.
func (s *FilesystemStore) Delete(_ context.Context, id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("blobstore: invalid id %q", id)
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	dataPath, metaPath := s.paths(id)
	if err := os.Remove(dataPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blobstore: delete %q: %w", id, err)
	}
	_ = os.Remove(metaPath)
	return nil
}
