// Package upload turns a local file, a browser-staged object or a picked
// library asset into an image reference committed to a catalog document.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/s3io"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

// ErrTransfer wraps a failed byte transfer to the blob store.
var ErrTransfer = errors.New("transfer failed")

// LocalFile is a file the server holds the bytes of.
type LocalFile struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// Request names exactly one image source.
type Request struct {
	File   *LocalFile          // bytes to transfer
	Staged string              // key the client already PUT through a presigned URL
	Picked *models.AssetRecord // existing library asset

	Prefix string // destination prefix for File

	// Replaces is the path of the image being replaced, if any. With DeleteOld
	// its blob is removed once the commit succeeded and the path changed.
	Replaces  string
	DeleteOld bool

	Progress func(percent int)
}

func (r Request) sources() int {
	n := 0
	if r.File != nil {
		n++
	}
	if r.Staged != "" {
		n++
	}
	if r.Picked != nil {
		n++
	}
	return n
}

// Commit writes the resolved image into its document. It is called exactly
// once per successful Run.
type Commit func(ctx context.Context, ref models.ImageRef) error

// Pipeline runs uploads against one blob store.
type Pipeline struct {
	Store    ports.BlobStore
	MaxBytes int64
	Now      func() time.Time
	Log      *zap.Logger

	// Changed, when set, is called after every committed run.
	Changed func()
}

// New returns a pipeline.
func New(store ports.BlobStore, maxBytes int64, log *zap.Logger) *Pipeline {
	return &Pipeline{Store: store, MaxBytes: maxBytes, Now: time.Now, Log: log.Named("upload")}
}

// Validate checks the request without touching the network.
func (p *Pipeline) Validate(req Request) error {
	switch req.sources() {
	case 0:
		return validate.New("image", "Choose an image to upload or pick one from the library.")
	case 1:
	default:
		return validate.New("image", "Choose either a new image or a library image, not both.")
	}
	if f := req.File; f != nil {
		return validate.All(
			func() error { return validate.ImageFilename(f.Name) },
			func() error { return validate.FileSize(f.Size, p.MaxBytes) },
			func() error { return validate.Prefix(req.Prefix+"/", s3io.UploadPrefixes) },
		)
	}
	if req.Staged != "" {
		return validate.All(
			func() error { return validate.Prefix(req.Staged, s3io.UploadPrefixes) },
			func() error { return validate.ImageFilename(req.Staged) },
		)
	}
	if req.Picked.URL == "" {
		return validate.New("image", "That library image has no address.")
	}
	return nil
}

// Run resolves the image, commits it, then removes the replaced blob when
// asked. A failed transfer or URL resolution leaves no catalog write behind;
// a failed commit removes the blob this run created.
func (p *Pipeline) Run(ctx context.Context, req Request, commit Commit) (models.ImageRef, error) {
	if err := p.Validate(req); err != nil {
		return models.ImageRef{}, err
	}

	ref, created, err := p.resolve(ctx, req)
	if err != nil {
		return models.ImageRef{}, err
	}

	if err := commit(ctx, ref); err != nil {
		if created {
			p.bestEffortDelete(ctx, ref.Path, "uncommitted upload")
		}
		return models.ImageRef{}, fmt.Errorf("commit %s: %w", ref.Path, err)
	}

	if req.DeleteOld && req.Replaces != "" && req.Replaces != ref.Path {
		p.bestEffortDelete(ctx, req.Replaces, "replaced image")
	}
	if p.Changed != nil {
		p.Changed()
	}
	return ref, nil
}

func (p *Pipeline) resolve(ctx context.Context, req Request) (models.ImageRef, bool, error) {
	switch {
	case req.File != nil:
		return p.transfer(ctx, req)
	case req.Staged != "":
		ref, err := p.confirm(ctx, req.Staged)
		return ref, false, err
	default:
		ref := req.Picked.Ref()
		if req.Progress != nil {
			req.Progress(100)
		}
		return ref, false, nil
	}
}

func (p *Pipeline) transfer(ctx context.Context, req Request) (models.ImageRef, bool, error) {
	f := req.File
	dest := s3io.DestinationPath(req.Prefix, f.Name, p.now())
	ct := f.ContentType
	if !strings.HasPrefix(ct, "image/") {
		ct = s3io.ContentTypeFor(f.Name)
	}

	tr := NewTracker(f.Size, req.Progress)
	if err := p.Store.Upload(ctx, dest, f.Body, f.Size, ct, tr.Observe); err != nil {
		p.Log.Warn("transfer failed", zap.String("path", dest), zap.Error(err))
		return models.ImageRef{}, false, fmt.Errorf("%w: %w", ErrTransfer, err)
	}

	url, err := p.Store.URL(ctx, dest)
	if err != nil {
		p.bestEffortDelete(ctx, dest, "unresolvable upload")
		return models.ImageRef{}, false, fmt.Errorf("%w: resolve %s: %w", ErrTransfer, dest, err)
	}
	tr.Done()

	return models.ImageRef{
		URL:    url,
		Path:   dest,
		Name:   strings.ToLower(path.Base(f.Name)),
		Size:   models.Int64Ptr(f.Size),
		Source: models.SourceUpload,
	}, true, nil
}

// confirm checks that a presigned PUT really landed before anything points at it.
func (p *Pipeline) confirm(ctx context.Context, key string) (models.ImageRef, error) {
	meta, err := p.Store.Stat(ctx, key)
	if errors.Is(err, ports.ErrNotFound) {
		return models.ImageRef{}, validate.New("image", "The upload has not finished yet.")
	}
	if err != nil {
		return models.ImageRef{}, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	if err := validate.FileSize(meta.Size, p.MaxBytes); err != nil {
		return models.ImageRef{}, err
	}
	url, err := p.Store.URL(ctx, key)
	if err != nil {
		return models.ImageRef{}, fmt.Errorf("%w: resolve %s: %w", ErrTransfer, key, err)
	}
	return models.ImageRef{
		URL:    url,
		Path:   key,
		Name:   s3io.BaseName(key),
		Size:   models.Int64Ptr(meta.Size),
		Source: models.SourceUpload,
	}, nil
}

func (p *Pipeline) bestEffortDelete(ctx context.Context, key, why string) {
	if err := p.Store.Delete(ctx, key); err != nil {
		p.Log.Warn("blob delete failed", zap.String("path", key), zap.String("reason", why), zap.Error(err))
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
