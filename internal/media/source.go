package media

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/s3io"
)

// CatalogSource reads the image records of the catalog.
type CatalogSource struct {
	Catalog ports.Catalog
}

// Fetch returns every document of the images collection.
func (s CatalogSource) Fetch(ctx context.Context) ([]models.AssetRecord, error) {
	var recs []models.AssetRecord
	if err := s.Catalog.List(ctx, models.CollectionImages, &recs); err != nil {
		return nil, fmt.Errorf("catalog images: %w", err)
	}
	for i := range recs {
		recs[i].Origin = models.OriginCatalog
	}
	return recs, nil
}

// BlobSource lists the known prefixes of the blob store.
type BlobSource struct {
	Store    ports.BlobStore
	Prefixes []s3io.PrefixCategory
	Log      *zap.Logger
	// Concurrency bounds the per-object URL/metadata calls. Defaults to 8.
	Concurrency int
}

// Fetch lists every prefix and resolves each object. A prefix that fails to
// list contributes nothing; an object whose metadata fails is kept with no
// size or createdAt; an object whose URL cannot be resolved is dropped. Only
// context cancellation is returned as an error.
func (s BlobSource) Fetch(ctx context.Context) ([]models.AssetRecord, error) {
	limit := s.Concurrency
	if limit <= 0 {
		limit = 8
	}

	var (
		mu   sync.Mutex
		recs []models.AssetRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, pc := range s.Prefixes {
		keys, err := s.Store.List(gctx, pc.Prefix)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.Log.Warn("prefix listing failed", zap.String("prefix", pc.Prefix), zap.Error(err))
			continue
		}
		for _, key := range keys {
			key, category := key, pc.Category
			g.Go(func() error {
				rec, ok := s.resolve(gctx, key, category)
				if ok {
					mu.Lock()
					recs = append(recs, rec)
					mu.Unlock()
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

func (s BlobSource) resolve(ctx context.Context, key string, category models.Category) (models.AssetRecord, bool) {
	url, err := s.Store.URL(ctx, key)
	if err != nil {
		s.Log.Warn("url resolve failed", zap.String("key", key), zap.Error(err))
		return models.AssetRecord{}, false
	}
	rec := models.AssetRecord{
		ID:       "st:" + key,
		URL:      url,
		Path:     key,
		Category: category,
		Name:     s3io.BaseName(key),
		Origin:   models.OriginBlob,
	}
	meta, err := s.Store.Stat(ctx, key)
	if err != nil {
		s.Log.Warn("metadata fetch failed", zap.String("key", key), zap.Error(err))
		return rec, true
	}
	rec.Size = models.Int64Ptr(meta.Size)
	if !meta.Created.IsZero() {
		rec.CreatedAt = models.Millis(meta.Created)
	}
	return rec, true
}
