// Package ports declares the boundaries to the managed platform: the document
// catalog, the blob store and the email relay.
package ports

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when a document or object does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned by Create when the id is already taken.
	ErrExists = errors.New("already exists")
	// ErrConflict is returned when a conditional write lost against another writer.
	ErrConflict = errors.New("conflict")
)

// Catalog is the structured document store. Documents are grouped in
// collections and addressed by id; values are structs with dynamodbav tags.
type Catalog interface {
	// Create stores a new document, failing with ErrExists if id is taken
	Create(ctx context.Context, collection, id string, doc any) error

	// Get loads one document into out, or returns ErrNotFound
	Get(ctx context.Context, collection, id string, out any) error

	// Update field-merges fields into the document, creating it if absent
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document; deleting a missing document is not an error
	Delete(ctx context.Context, collection, id string) error

	// List loads every document of a collection into out (a pointer to a slice)
	List(ctx context.Context, collection string, out any) error

	// Page loads up to limit documents newest first, resuming after cursor.
	// The returned cursor is empty when there are no more documents.
	Page(ctx context.Context, collection string, limit int, cursor string, out any) (string, error)

	// Reorder applies all rank changes or none. Each change is conditional on
	// the document still holding From; a lost race returns ErrConflict.
	Reorder(ctx context.Context, collection string, changes []RankChange) error
}

// RankChange moves one document from one order value to another.
type RankChange struct {
	ID   string
	From float64
	To   float64
}

// BlobMeta is the metadata of one stored object.
type BlobMeta struct {
	Size        int64
	ContentType string
	Created     time.Time
}

// BlobStore is the object storage holding image bytes under path prefixes.
type BlobStore interface {
	// List returns every key under prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Stat fetches object metadata
	Stat(ctx context.Context, key string) (BlobMeta, error)

	// URL resolves a retrievable location for key
	URL(ctx context.Context, key string) (string, error)

	// Upload transfers body to key. onBytes, when set, receives the running
	// total of bytes read from body. On S3 that is the multipart uploader
	// filling its part buffers, so a file smaller than one part reports
	// nearly all of its bytes before the PUT starts; only completion of the
	// call means the object is stored.
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string, onBytes func(int64)) error

	// Delete removes the object at key
	Delete(ctx context.Context, key string) error
}

// Relay sends one templated transactional email.
type Relay interface {
	Send(ctx context.Context, params map[string]string) error
}

// Staged is a presigned direct upload handed to a browser.
type Staged struct {
	Key       string
	URL       string
	Headers   map[string]string
	ExpiresIn time.Duration
}

// Stager issues presigned uploads the client performs itself. The object is
// confirmed with BlobStore.Stat before anything references it.
type Stager interface {
	Stage(ctx context.Context, key, contentType string) (Staged, error)
}
