package blobstore

import (
	"context"
	"strings"
	"testing"
)

func TestFilesystemStore_PutGetRoundtrip(t *testing.T) {
	s, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore: %v", err)
	}

	if err := s.Put(context.Background(), "abc123", "application/yaml", []byte("saasName: Test\n")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, mime, err := s.Get(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "saasName: Test\n" {
		t.Errorf("data = %q, want the stored yaml", data)
	}
	if mime != "application/yaml" {
		t.Errorf("mime = %q, want application/yaml", mime)
	}
}

func TestFilesystemStore_GetUnknownID(t *testing.T) {
	s, _ := NewFilesystemStore(t.TempDir())
	_, _, err := s.Get(context.Background(), "missing")
	if _, ok := err.(ErrNotFound); !ok {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFilesystemStore_RejectsOversizedBlob(t *testing.T) {
	s, _ := NewFilesystemStore(t.TempDir())
	big := make([]byte, MaxBlobSize+1)
	err := s.Put(context.Background(), "toobig", "application/yaml", big)
	if _, ok := err.(ErrTooLarge); !ok {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestFilesystemStore_RejectsDisallowedMIME(t *testing.T) {
	s, _ := NewFilesystemStore(t.TempDir())
	err := s.Put(context.Background(), "badmime", "application/json", []byte("{}"))
	if _, ok := err.(ErrMIMENotAllowed); !ok {
		t.Fatalf("expected ErrMIMENotAllowed, got %v", err)
	}
}

func TestFilesystemStore_RejectsPathTraversalID(t *testing.T) {
	s, _ := NewFilesystemStore(t.TempDir())
	err := s.Put(context.Background(), "../escape", "application/yaml", []byte("x"))
	if err == nil {
		t.Fatal("expected error for path-traversal id")
	}
	if !strings.Contains(err.Error(), "invalid id") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFilesystemStore_Delete(t *testing.T) {
	s, _ := NewFilesystemStore(t.TempDir())
	ctx := context.Background()
	_ = s.Put(ctx, "gone", "text/yaml", []byte("x"))

	if err := s.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := s.Get(ctx, "gone"); err == nil {
		t.Fatal("expected error getting deleted blob")
	}

	// Deleting an already-absent id is not an error.
	if err := s.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete on already-absent id: %v", err)
	}
}

func TestFilesystemStore_Overwrite(t *testing.T) {
	s, _ := NewFilesystemStore(t.TempDir())
	ctx := context.Background()
	_ = s.Put(ctx, "v", "text/plain", []byte("first"))
	_ = s.Put(ctx, "v", "text/plain", []byte("second"))

	data, _, err := s.Get(ctx, "v")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("data = %q, want %q", data, "second")
	}
}
