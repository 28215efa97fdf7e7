// Package blobstore implements the Blob Store (C9): storage for
// uploaded/extracted pricing artifacts under caller-chosen ids (the upload
// handler uses a random UUID), referenced from a pricing.Item's ArtifactRef.
package blobstore

import "context"

// MaxBlobSize bounds a single stored artifact (spec.md §4.9).
const MaxBlobSize = 1 << 20 // 1MiB

// AllowedMIMETypes is the accepted content-type allow-list for Put.
var AllowedMIMETypes = map[string]bool{
	"application/yaml": true,
	"text/yaml":        true,
	"text/plain":       true,
}

// Store persists pricing artifacts by id. Implementations must be safe for
// concurrent use.
type Store interface {
	// Put writes data under id, rejecting anything over MaxBlobSize or whose
	// mime is not in AllowedMIMETypes. Overwrites any existing blob at id.
	Put(ctx context.Context, id, mime string, data []byte) error

	// Get reads the blob stored at id.
	Get(ctx context.Context, id string) (data []byte, mime string, err error)

	// Delete removes the blob at id. Deleting a non-existent id is not an
	// error.
	Delete(ctx context.Context, id string) error
}

// ErrNotFound is returned by Get when id has no stored blob.
type ErrNotFound struct{ ID string }

func (e ErrNotFound) Error() string { return "blobstore: no blob with id " + e.ID }

// ErrTooLarge is returned by Put when data exceeds MaxBlobSize.
type ErrTooLarge struct{ Size int }

func (e ErrTooLarge) Error() string {
	return "blobstore: blob exceeds maximum size"
}

// ErrMIMENotAllowed is returned by Put when mime is not in AllowedMIMETypes.
type ErrMIMENotAllowed struct{ MIME string }

func (e ErrMIMENotAllowed) Error() string {
	return "blobstore: mime type not allowed: " + e.MIME
}
