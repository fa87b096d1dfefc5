package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/ports/mocks"
	"github.com/kylejryan/nail-studio-portal/internal/s3io"
)

func TestIndexArrivalOrderDoesNotMatter(t *testing.T) {
	catalog := []models.AssetRecord{rec("c1", "gallery/a.jpg", 10, models.CategoryNails)}
	blobs := []models.AssetRecord{rec("st:gallery/a.jpg", "gallery/a.jpg", 12, ""), rec("st:gallery/b.jpg", "gallery/b.jpg", 3, "")}

	a := NewIndex()
	a.SetCatalog(1, catalog)
	a.SetBlobs(1, blobs)

	b := NewIndex()
	b.SetBlobs(1, blobs)
	b.SetCatalog(1, catalog)

	assert.Equal(t, a.View().Records, b.View().Records)
	assert.True(t, a.View().CatalogLoaded && a.View().BlobsLoaded)
}

func TestIndexDropsStaleResults(t *testing.T) {
	ix := NewIndex()
	require.True(t, ix.SetCatalog(2, []models.AssetRecord{{ID: "fresh", Path: "p"}}))
	assert.False(t, ix.SetCatalog(1, []models.AssetRecord{{ID: "stale", Path: "p"}}))
	assert.Equal(t, "fresh", ix.View().Records[0].ID)
}

func TestIndexSubscribeAndClose(t *testing.T) {
	ix := NewIndex()
	var seen []uint64
	cancel := ix.Subscribe(func(v View) { seen = append(seen, v.Version) })

	ix.SetCatalog(1, nil)
	ix.SetBlobs(1, nil)
	cancel()
	ix.SetBlobs(2, nil)
	assert.Equal(t, []uint64{1, 2}, seen)

	ix.Close()
	assert.False(t, ix.SetCatalog(5, []models.AssetRecord{{ID: "late"}}))
	assert.Empty(t, ix.View().Records)
}

func TestBlobSourceFailsOpen(t *testing.T) {
	store := mocks.NewBlobStore()
	t0 := time.UnixMilli(1000)
	store.Put("gallery/ok.jpg", []byte("abc"), t0)
	store.Put("gallery/nometa.jpg", []byte("abc"), t0)
	store.Put("gallery/nourl.jpg", []byte("abc"), t0)
	store.Put("assets/hero/h.jpg", []byte("abc"), t0)
	store.Put("signature/s.jpg", []byte("abc"), t0)
	store.StatErr["gallery/nometa.jpg"] = errors.New("throttled")
	store.URLErr["gallery/nourl.jpg"] = errors.New("denied")
	store.ListErr[s3io.PrefixSignature] = errors.New("list denied")

	src := BlobSource{Store: store, Prefixes: s3io.LibraryPrefixes, Log: zap.NewNop(), Concurrency: 2}
	recs, err := src.Fetch(context.Background())
	require.NoError(t, err)

	byPath := map[string]models.AssetRecord{}
	for _, r := range recs {
		byPath[r.Path] = r
	}
	require.Len(t, byPath, 3)

	ok := byPath["gallery/ok.jpg"]
	assert.Equal(t, "st:gallery/ok.jpg", ok.ID)
	assert.Equal(t, int64(1000), ok.CreatedAt)
	require.NotNil(t, ok.Size)
	assert.Equal(t, int64(3), *ok.Size)

	nometa := byPath["gallery/nometa.jpg"]
	assert.Nil(t, nometa.Size)
	assert.Zero(t, nometa.CreatedAt)

	assert.Equal(t, models.CategoryHero, byPath["assets/hero/h.jpg"].Category)
}

func TestLibraryRefreshKeepsSnapshotOnCatalogFailure(t *testing.T) {
	catalog := mocks.NewCatalog()
	require.NoError(t, catalog.Create(context.Background(), models.CollectionImages, "c1",
		models.AssetRecord{ID: "c1", Path: "gallery/a.jpg", URL: "u", Category: models.CategoryNails}))
	store := mocks.NewBlobStore()
	store.Put("gallery/a.jpg", []byte("abc"), time.UnixMilli(5))
	store.Put("gallery/b.jpg", []byte("abc"), time.UnixMilli(6))

	lib := NewLibrary(CatalogSource{Catalog: catalog},
		BlobSource{Store: store, Prefixes: s3io.LibraryPrefixes, Log: zap.NewNop()}, zap.NewNop())
	require.NoError(t, lib.Refresh(context.Background()))
	require.Len(t, lib.Index.View().Records, 2)

	catalog.Fail("List", errors.New("unavailable"))
	err := lib.Refresh(context.Background())
	require.Error(t, err)

	view, err := lib.Search(context.Background(), Filter{Category: models.CategoryNails})
	require.NoError(t, err)
	require.Len(t, view.Records, 1)
	assert.Equal(t, "c1", view.Records[0].ID)

	picked, err := lib.Pick(context.Background(), "st:gallery/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "gallery/b.jpg", picked.Path)
}

func TestLibrarySearchFailsWhenNothingLoads(t *testing.T) {
	catalog := mocks.NewCatalog()
	catalog.Fail("List", errors.New("unavailable"))
	lib := NewLibrary(CatalogSource{Catalog: catalog},
		BlobSource{Store: mocks.NewBlobStore(), Log: zap.NewNop()}, zap.NewNop())

	// the blob side loads (empty), so the view is usable
	view, err := lib.Search(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, view.Records)
	assert.False(t, view.CatalogLoaded)
}

func TestLibraryMaxAgeCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	catalog := mocks.NewCatalog()
	store := mocks.NewBlobStore()
	store.Put("gallery/a.jpg", []byte("abc"), time.UnixMilli(5))

	lib := NewLibrary(CatalogSource{Catalog: catalog},
		BlobSource{Store: store, Prefixes: s3io.LibraryPrefixes, Log: zap.NewNop()}, zap.NewNop())
	lib.MaxAge = time.Hour

	view, err := lib.Search(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, view.Records, 1)

	store.Put("gallery/b.jpg", []byte("abc"), time.UnixMilli(6))
	view, err = lib.Search(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, view.Records, 1, "served from cache")

	lib.Invalidate()
	view, err = lib.Search(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, view.Records, 2)
}

func TestLibraryWithoutMaxAgeRefetchesEachSearch(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewBlobStore()
	lib := NewLibrary(CatalogSource{Catalog: mocks.NewCatalog()},
		BlobSource{Store: store, Prefixes: s3io.LibraryPrefixes, Log: zap.NewNop()}, zap.NewNop())

	view, err := lib.Search(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, view.Records)

	store.Put("signature/1_s.jpg", []byte("abc"), time.UnixMilli(6))
	view, err = lib.Search(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, view.Records, 1)
	assert.Equal(t, "signature/1_s.jpg", view.Records[0].Path)
}

func TestLibraryPickRefetchesOnMiss(t *testing.T) {
	ctx := context.Background()
	catalog := mocks.NewCatalog()
	lib := NewLibrary(CatalogSource{Catalog: catalog},
		BlobSource{Store: mocks.NewBlobStore(), Prefixes: s3io.LibraryPrefixes, Log: zap.NewNop()}, zap.NewNop())
	lib.MaxAge = time.Hour
	require.NoError(t, lib.Refresh(ctx))

	require.NoError(t, catalog.Create(ctx, models.CollectionImages, "late",
		models.AssetRecord{ID: "late", Path: "gallery/late.jpg", URL: "u"}))
	rec, err := lib.Pick(ctx, "late")
	require.NoError(t, err)
	assert.Equal(t, "gallery/late.jpg", rec.Path)

	_, err = lib.Pick(ctx, "never")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestBlobSourceWarnsOnMetadataFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	store := mocks.NewBlobStore()
	store.Put("gallery/nometa.jpg", []byte("abc"), time.UnixMilli(1))
	store.StatErr["gallery/nometa.jpg"] = errors.New("throttled")

	src := BlobSource{Store: store, Prefixes: s3io.LibraryPrefixes, Log: zap.New(core)}
	_, err := src.Fetch(context.Background())
	require.NoError(t, err)

	entries := logs.FilterMessage("metadata fetch failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}
