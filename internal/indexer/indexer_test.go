package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports/mocks"
)

func event(name, key string) events.S3Event {
	var rec events.S3EventRecord
	rec.EventName = name
	rec.S3.Object.Key = key
	return events.S3Event{Records: []events.S3EventRecord{rec}}
}

func seed(t *testing.T, c *mocks.Catalog, id, path string) {
	t.Helper()
	require.NoError(t, c.Create(context.Background(), models.CollectionImages, id, models.AssetRecord{
		ID: id, Path: path, URL: "https://blobs.test/" + path, Category: models.CategoryGeneral,
	}))
}

func TestRemovedObjectPrunesRecords(t *testing.T) {
	catalog := mocks.NewCatalog()
	seed(t, catalog, "a", "gallery/1_a.jpg")
	seed(t, catalog, "b", "gallery/2_b.jpg")
	x := New(catalog, mocks.NewBlobStore(), zap.NewNop())

	require.NoError(t, x.Handle(context.Background(), event("ObjectRemoved:Delete", "gallery/1_a.jpg")))
	assert.Equal(t, 1, catalog.Count(models.CollectionImages))

	var left models.AssetRecord
	require.NoError(t, catalog.Get(context.Background(), models.CollectionImages, "b", &left))
}

func TestEscapedKeysAreDecoded(t *testing.T) {
	catalog := mocks.NewCatalog()
	seed(t, catalog, "a", "gallery/1_my nails.jpg")
	x := New(catalog, mocks.NewBlobStore(), zap.NewNop())

	require.NoError(t, x.Handle(context.Background(), event("ObjectRemoved:Delete", "gallery/1_my+nails.jpg")))
	assert.Equal(t, 0, catalog.Count(models.CollectionImages))
}

func TestKeysOutsideNamespaceIgnored(t *testing.T) {
	catalog := mocks.NewCatalog()
	x := New(catalog, mocks.NewBlobStore(), zap.NewNop())
	require.NoError(t, x.Handle(context.Background(), event("ObjectRemoved:Delete", "tmp/x.jpg")))
	assert.Empty(t, catalog.Calls())
}

func TestCreatedObjectIsInspected(t *testing.T) {
	store := mocks.NewBlobStore()
	store.Put("avatars/1_r.png", []byte("png"), time.Now())
	x := New(mocks.NewCatalog(), store, zap.NewNop())

	assert.NoError(t, x.Handle(context.Background(), event("ObjectCreated:Put", "avatars/1_r.png")))
	assert.Error(t, x.Handle(context.Background(), event("ObjectCreated:Put", "avatars/missing.png")))
}

func TestListFailureIsReturned(t *testing.T) {
	catalog := mocks.NewCatalog()
	catalog.Fail("List", errors.New("throttled"))
	x := New(catalog, mocks.NewBlobStore(), zap.NewNop())
	err := x.Handle(context.Background(), event("ObjectRemoved:Delete", "gallery/1_a.jpg"))
	assert.ErrorContains(t, err, "throttled")
}
