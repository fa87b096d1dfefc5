package media

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
)

// Library keeps an Index fed from both sources.
type Library struct {
	Catalog CatalogSource
	Blobs   BlobSource
	Index   *Index
	Log     *zap.Logger

	// MaxAge is how long a full refresh serves Search and Pick before they
	// fetch again. Zero refetches on every call.
	MaxAge time.Duration
	Now    func() time.Time

	catalogSeq atomic.Uint64
	blobSeq    atomic.Uint64
	fresh      atomic.Int64 // unix nanos of the last full refresh, 0 when stale
	gen        atomic.Uint64
}

// NewLibrary wires a library over the catalog and blob store.
func NewLibrary(catalog CatalogSource, blobs BlobSource, log *zap.Logger) *Library {
	return &Library{
		Catalog: catalog,
		Blobs:   blobs,
		Index:   NewIndex(),
		Log:     log.Named("media"),
		Now:     time.Now,
	}
}

// Refresh fetches both sources concurrently and applies each result to the
// index as soon as it arrives. A failed source keeps its previous snapshot;
// the failure is logged and returned.
func (l *Library) Refresh(ctx context.Context) error {
	started, gen := l.Now().UnixNano(), l.gen.Load()
	var g errgroup.Group
	var catErr, blobErr error
	g.Go(func() error {
		catErr = l.RefreshCatalog(ctx)
		return nil
	})
	g.Go(func() error {
		blobErr = l.RefreshBlobs(ctx)
		return nil
	})
	_ = g.Wait()
	if err := errors.Join(catErr, blobErr); err != nil {
		return err
	}
	// A write that landed while fetching may be missing from this result.
	if l.gen.Load() == gen {
		l.fresh.Store(started)
	}
	return nil
}

// Invalidate marks the index stale, so the next Search or Pick refetches
// both sources.
func (l *Library) Invalidate() {
	l.gen.Add(1)
	l.fresh.Store(0)
}

// RefreshCatalog re-reads the catalog side only.
func (l *Library) RefreshCatalog(ctx context.Context) error {
	seq := l.catalogSeq.Add(1)
	recs, err := l.Catalog.Fetch(ctx)
	if err != nil {
		l.Log.Warn("catalog fetch failed, keeping previous snapshot", zap.Error(err))
		return err
	}
	l.Index.SetCatalog(seq, recs)
	return nil
}

// RefreshBlobs re-lists the blob side only.
func (l *Library) RefreshBlobs(ctx context.Context) error {
	seq := l.blobSeq.Add(1)
	recs, err := l.Blobs.Fetch(ctx)
	if err != nil {
		return err
	}
	l.Index.SetBlobs(seq, recs)
	return nil
}

// Ensure refreshes unless a full refresh is younger than MaxAge.
func (l *Library) Ensure(ctx context.Context) error {
	_, err := l.ensure(ctx)
	return err
}

func (l *Library) ensure(ctx context.Context) (refreshed bool, err error) {
	if at := l.fresh.Load(); at != 0 && l.MaxAge > 0 && l.Now().Sub(time.Unix(0, at)) < l.MaxAge {
		return false, nil
	}
	return true, l.Refresh(ctx)
}

// Watch refreshes each source on its own every interval until ctx ends.
func (l *Library) Watch(ctx context.Context, interval time.Duration) {
	tick := func(refresh func(context.Context) error) {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			_ = refresh(ctx)
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}
	go tick(l.RefreshCatalog)
	go tick(l.RefreshBlobs)
}

// Search returns the current filtered index, loading it first if needed.
func (l *Library) Search(ctx context.Context, f Filter) (View, error) {
	err := l.Ensure(ctx)
	v := l.Index.View()
	if err != nil && !v.CatalogLoaded && !v.BlobsLoaded {
		return View{}, fmt.Errorf("media library: %w", err)
	}
	v.Records = Apply(v.Records, f)
	return v, nil
}

// Pick returns the record with id from the current index. An id missing
// from a cached index is looked up again after a refresh.
func (l *Library) Pick(ctx context.Context, id string) (models.AssetRecord, error) {
	refreshed, err := l.ensure(ctx)
	if err != nil {
		l.Log.Warn("picking from a partial index", zap.Error(err))
	}
	rec, err := Pick(l.Index.View().Records, id)
	if err == nil || refreshed || !errors.Is(err, ports.ErrNotFound) {
		return rec, err
	}
	if rerr := l.Refresh(ctx); rerr != nil {
		l.Log.Warn("picking from a partial index", zap.Error(rerr))
	}
	return Pick(l.Index.View().Records, id)
}

// Pick selects exactly one record by id. It never modifies recs.
func Pick(recs []models.AssetRecord, id string) (models.AssetRecord, error) {
	for _, r := range recs {
		if r.ID == id {
			return r, nil
		}
	}
	return models.AssetRecord{}, fmt.Errorf("media %s: %w", id, ports.ErrNotFound)
}
