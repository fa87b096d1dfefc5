// Package indexer keeps the image catalog in step with the bucket. It runs
// on S3 event notifications: removed objects take their image records with
// them, and created objects are checked for a sane content type.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/s3io"
)

// Indexer handles bucket notifications.
type Indexer struct {
	Catalog ports.Catalog
	Store   ports.BlobStore
	Log     *zap.Logger
}

// New returns an indexer.
func New(catalog ports.Catalog, store ports.BlobStore, log *zap.Logger) *Indexer {
	return &Indexer{Catalog: catalog, Store: store, Log: log.Named("indexer")}
}

// Handle processes every record of ev. A failing record is logged and the
// rest still run; the joined failures are returned so Lambda retries.
func (x *Indexer) Handle(ctx context.Context, ev events.S3Event) error {
	var errs []error
	for _, rec := range ev.Records {
		if err := x.processRecord(ctx, rec); err != nil {
			x.Log.Error("process record", zap.String("event", rec.EventName), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (x *Indexer) processRecord(ctx context.Context, rec events.S3EventRecord) error {
	key, err := url.QueryUnescape(rec.S3.Object.Key)
	if err != nil {
		return fmt.Errorf("bad key %q: %w", rec.S3.Object.Key, err)
	}
	if !s3io.KnownPrefix(key) {
		x.Log.Debug("ignoring key outside the media namespace", zap.String("key", key))
		return nil
	}

	switch {
	case strings.HasPrefix(rec.EventName, "ObjectRemoved"):
		n, err := x.Prune(ctx, key)
		if err != nil {
			return fmt.Errorf("prune %s: %w", key, err)
		}
		x.Log.Info("pruned image records", zap.String("key", key), zap.Int("records", n))
	case strings.HasPrefix(rec.EventName, "ObjectCreated"):
		return x.inspect(ctx, key)
	}
	return nil
}

// Prune deletes the image records pointing at key and returns how many went.
func (x *Indexer) Prune(ctx context.Context, key string) (int, error) {
	var recs []models.AssetRecord
	if err := x.Catalog.List(ctx, models.CollectionImages, &recs); err != nil {
		return 0, err
	}
	n := 0
	for _, r := range recs {
		if r.Path != key {
			continue
		}
		if err := x.Catalog.Delete(ctx, models.CollectionImages, r.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// inspect is tolerant: an odd object is logged, never removed.
func (x *Indexer) inspect(ctx context.Context, key string) error {
	meta, err := x.Store.Stat(ctx, key)
	if err != nil {
		return fmt.Errorf("head %s: %w", key, err)
	}
	if ct := strings.ToLower(meta.ContentType); ct != "" && !strings.HasPrefix(ct, "image/") {
		x.Log.Warn("non-image object in media namespace", zap.String("key", key), zap.String("content_type", ct))
	}
	x.Log.Info("object landed", zap.String("key", key), zap.Int64("size", meta.Size))
	return nil
}
