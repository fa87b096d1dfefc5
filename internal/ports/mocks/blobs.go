package mocks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/s3io"
)

// Object is one stored blob.
type Object struct {
	Data        []byte
	ContentType string
	Created     time.Time
}

// BlobStore is an in-memory ports.BlobStore.
type BlobStore struct {
	mu      sync.Mutex
	objects map[string]Object
	deleted []string

	BaseURL string
	Now     func() time.Time

	// Failure injection. Keys of the maps are prefixes (ListErr) or object keys.
	ListErr   map[string]error
	StatErr   map[string]error
	URLErr    map[string]error
	UploadErr error // returned after half the body was read
	DeleteErr error
}

var (
	_ ports.BlobStore = (*BlobStore)(nil)
	_ ports.Stager    = (*BlobStore)(nil)
)

// NewBlobStore returns an empty store serving URLs under https://blobs.test.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		objects: map[string]Object{},
		BaseURL: "https://blobs.test",
		ListErr: map[string]error{},
		StatErr: map[string]error{},
		URLErr:  map[string]error{},
	}
}

// Put stores data under key directly.
func (b *BlobStore) Put(key string, data []byte, created time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = Object{Data: data, ContentType: s3io.ContentTypeFor(key), Created: created}
}

// Keys returns every stored key, sorted.
func (b *BlobStore) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is stored.
func (b *BlobStore) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

// Deleted returns the keys passed to Delete, in call order.
func (b *BlobStore) Deleted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

func (b *BlobStore) List(_ context.Context, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ListErr[prefix]; err != nil {
		return nil, err
	}
	p := strings.TrimSuffix(prefix, "/") + "/"
	var keys []string
	for k := range b.objects {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *BlobStore) Stat(_ context.Context, key string) (ports.BlobMeta, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.StatErr[key]; err != nil {
		return ports.BlobMeta{}, err
	}
	o, ok := b.objects[key]
	if !ok {
		return ports.BlobMeta{}, fmt.Errorf("head %s: %w", key, ports.ErrNotFound)
	}
	return ports.BlobMeta{Size: int64(len(o.Data)), ContentType: o.ContentType, Created: o.Created}, nil
}

func (b *BlobStore) URL(_ context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.URLErr[key]; err != nil {
		return "", err
	}
	return b.BaseURL + "/" + key, nil
}

func (b *BlobStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string, onBytes func(int64)) error {
	var buf bytes.Buffer
	chunk := make([]byte, 1024)
	var sent int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			sent += int64(n)
			if onBytes != nil {
				onBytes(sent)
			}
		}
		b.mu.Lock()
		fail := b.UploadErr
		b.mu.Unlock()
		if fail != nil && sent*2 >= size {
			return fmt.Errorf("upload %s: %w", key, fail)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
	}

	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = Object{Data: buf.Bytes(), ContentType: contentType, Created: now}
	return nil
}

func (b *BlobStore) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, key)
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	delete(b.objects, key)
	return nil
}

// Stage returns a fake presigned URL; the test stores the object with Put.
func (b *BlobStore) Stage(_ context.Context, key, contentType string) (ports.Staged, error) {
	return ports.Staged{
		Key:       key,
		URL:       b.BaseURL + "/upload/" + key,
		Headers:   s3io.UploadHeaders(contentType, nil),
		ExpiresIn: 5 * time.Minute,
	}, nil
}
