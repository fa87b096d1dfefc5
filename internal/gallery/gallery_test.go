package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/media"
	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/ports/mocks"
	"github.com/kylejryan/nail-studio-portal/internal/s3io"
	"github.com/kylejryan/nail-studio-portal/internal/upload"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

func newService(t *testing.T) (*Service, *mocks.Catalog, *mocks.BlobStore) {
	t.Helper()
	catalog := mocks.NewCatalog()
	store := mocks.NewBlobStore()
	pipeline := upload.New(store, 1<<20, zap.NewNop())
	pipeline.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	lib := media.NewLibrary(media.CatalogSource{Catalog: catalog},
		media.BlobSource{Store: store, Prefixes: s3io.LibraryPrefixes, Log: zap.NewNop()}, zap.NewNop())

	s := New(catalog, store, pipeline, lib, zap.NewNop())
	n := 0
	s.NewID = func() string { n++; return fmt.Sprintf("img%03d", n) }
	return s, catalog, store
}

func TestAddUploadRoundTrip(t *testing.T) {
	s, catalog, store := newService(t)
	ctx := context.Background()

	rec, err := s.Add(ctx, models.CategoryNails, upload.Request{
		File: &upload.LocalFile{Name: "chrome.jpg", Size: 4, ContentType: "image/jpeg", Body: strings.NewReader("abcd")},
	})
	require.NoError(t, err)

	var all []models.AssetRecord
	require.NoError(t, catalog.List(ctx, models.CollectionImages, &all))
	require.Len(t, all, 1)
	assert.Equal(t, "gallery/1700000000000_chrome.jpg", all[0].Path)
	assert.Equal(t, models.SourceUpload, all[0].Source)
	assert.Equal(t, models.CategoryNails, all[0].Category)
	assert.Equal(t, rec.ID, all[0].ID)
	assert.True(t, store.Has(all[0].Path))

	// the index saw the catalog write and dedupes against the blob listing
	require.NoError(t, s.Library.RefreshBlobs(ctx))
	v := s.Library.Index.View()
	require.Len(t, v.Records, 1)
	assert.Equal(t, models.OriginCatalog, v.Records[0].Origin)
}

func TestAddHeroGoesUnderHeroPrefix(t *testing.T) {
	s, _, _ := newService(t)
	rec, err := s.Add(context.Background(), models.CategoryHero, upload.Request{
		File: &upload.LocalFile{Name: "h.png", Size: 1, Body: strings.NewReader("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, "assets/hero/1700000000000_h.png", rec.Path)
}

func TestAddFailedTransferNoRecord(t *testing.T) {
	s, catalog, store := newService(t)
	store.UploadErr = errors.New("reset")
	_, err := s.Add(context.Background(), models.CategoryGeneral, upload.Request{
		File: &upload.LocalFile{Name: "a.jpg", Size: 2, Body: strings.NewReader("ab")},
	})
	require.Error(t, err)
	assert.Zero(t, catalog.Count(models.CollectionImages))
	assert.Empty(t, store.Keys())
}

func TestListPagesNewestFirst(t *testing.T) {
	s, catalog, _ := newService(t)
	ctx := context.Background()
	for i := 0; i < PageSize+3; i++ {
		id := fmt.Sprintf("img%03d", i)
		cat := models.CategoryGeneral
		if i%2 == 0 {
			cat = models.CategoryNails
		}
		require.NoError(t, catalog.Create(ctx, models.CollectionImages, id, models.AssetRecord{ID: id, Path: "gallery/" + id, Category: cat}))
	}

	first, err := s.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, first.Items, PageSize)
	assert.Equal(t, "img026", first.Items[0].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := s.List(ctx, first.NextCursor, models.CategoryAll)
	require.NoError(t, err)
	assert.Len(t, second.Items, 3)
	assert.Empty(t, second.NextCursor)

	nails, err := s.List(ctx, "", models.CategoryNails)
	require.NoError(t, err)
	for _, r := range nails.Items {
		assert.Equal(t, models.CategoryNails, r.Category)
	}

	_, err = s.List(ctx, "", "glitter")
	assert.True(t, validate.IsValidation(err))
}

func TestSetCategoryAndDelete(t *testing.T) {
	s, catalog, store := newService(t)
	ctx := context.Background()
	rec, err := s.Add(ctx, models.CategoryGeneral, upload.Request{
		File: &upload.LocalFile{Name: "a.jpg", Size: 1, Body: strings.NewReader("a")},
	})
	require.NoError(t, err)

	require.NoError(t, s.SetCategory(ctx, rec.ID, models.CategoryDesigns))
	var got models.AssetRecord
	require.NoError(t, catalog.Get(ctx, models.CollectionImages, rec.ID, &got))
	assert.Equal(t, models.CategoryDesigns, got.Category)
	assert.True(t, validate.IsValidation(s.SetCategory(ctx, rec.ID, models.CategoryAll)))
	assert.ErrorIs(t, s.SetCategory(ctx, "missing", models.CategoryNails), ports.ErrNotFound)

	store.DeleteErr = errors.New("denied")
	require.NoError(t, s.Delete(ctx, rec.ID))
	assert.Zero(t, catalog.Count(models.CollectionImages))
	assert.Equal(t, []string{rec.Path}, store.Deleted())
}

func TestDeleteLibraryRecordKeepsBlob(t *testing.T) {
	s, _, store := newService(t)
	ctx := context.Background()
	store.Put("signature/1_x.jpg", []byte("x"), time.Now())
	rec, err := s.Add(ctx, models.CategoryGeneral, upload.Request{
		Picked: &models.AssetRecord{ID: "st:signature/1_x.jpg", URL: "https://blobs.test/signature/1_x.jpg", Path: "signature/1_x.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.SourceLibrary, rec.Source)

	require.NoError(t, s.Delete(ctx, rec.ID))
	assert.Empty(t, store.Deleted())
}
