package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylejryan/nail-studio-portal/internal/models"
)

func rec(id, path string, created int64, cat models.Category) models.AssetRecord {
	return models.AssetRecord{ID: id, Path: path, URL: "https://x/" + path, CreatedAt: created, Category: cat, Name: path}
}

func ids(recs []models.AssetRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestMergeIsOrderIndependent(t *testing.T) {
	catalog := []models.AssetRecord{
		rec("c1", "gallery/a.jpg", 10, models.CategoryNails),
		rec("c2", "gallery/b.jpg", 0, models.CategoryGeneral),
	}
	blobs := []models.AssetRecord{
		rec("st:gallery/a.jpg", "gallery/a.jpg", 12, models.CategoryGeneral),
		rec("st:gallery/c.jpg", "gallery/c.jpg", 7, models.CategoryGeneral),
		rec("st:gallery/d.jpg", "gallery/d.jpg", 7, models.CategoryGeneral),
	}

	first := Merge(catalog, blobs)
	reversedCatalog := []models.AssetRecord{catalog[1], catalog[0]}
	reversedBlobs := []models.AssetRecord{blobs[2], blobs[1], blobs[0]}
	second := Merge(reversedCatalog, reversedBlobs)

	assert.Equal(t, first, second)
	assert.Equal(t, first, Merge(catalog, blobs))
	assert.Equal(t, []string{"c1", "st:gallery/c.jpg", "st:gallery/d.jpg", "c2"}, ids(first))
}

func TestMergeCatalogWinsOnSharedPath(t *testing.T) {
	catalog := []models.AssetRecord{{ID: "c1", Path: "gallery/x.jpg", Category: models.CategoryNails, Name: "fancy set"}}
	blobs := []models.AssetRecord{{ID: "st:gallery/x.jpg", Path: "gallery/x.jpg", Category: models.CategoryGeneral, Name: "x.jpg", CreatedAt: 99}}

	got := Merge(catalog, blobs)
	require.Len(t, got, 1)
	assert.Equal(t, models.CategoryNails, got[0].Category)
	assert.Equal(t, "fancy set", got[0].Name)
	assert.Equal(t, models.OriginCatalog, got[0].Origin)
}

func TestMergeFallsBackToURLKey(t *testing.T) {
	catalog := []models.AssetRecord{{ID: "legacy", URL: "https://cdn/x.jpg"}}
	blobs := []models.AssetRecord{{ID: "st:x", URL: "https://cdn/x.jpg"}}
	got := Merge(catalog, blobs)
	require.Len(t, got, 1)
	assert.Equal(t, "legacy", got[0].ID)
}

func TestMergeKeepsNewerSameSourceDuplicate(t *testing.T) {
	catalog := []models.AssetRecord{
		rec("old", "gallery/x.jpg", 1, models.CategoryGeneral),
		rec("new", "gallery/x.jpg", 2, models.CategoryNails),
	}
	got := Merge(catalog, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)

	got = Merge([]models.AssetRecord{catalog[1], catalog[0]}, nil)
	assert.Equal(t, "new", got[0].ID)
}

func TestSortMissingCreatedAtLast(t *testing.T) {
	recs := []models.AssetRecord{
		rec("five", "a", 5, ""),
		rec("none", "b", 0, ""),
		rec("three", "c", 3, ""),
		rec("nine", "d", 9, ""),
	}
	Sort(recs)
	assert.Equal(t, []string{"nine", "five", "three", "none"}, ids(recs))
}

func TestApplyCategoryPreservesOrder(t *testing.T) {
	merged := Merge(nil, []models.AssetRecord{
		rec("1", "gallery/1.jpg", 50, models.CategoryGeneral),
		rec("2", "assets/hero/2.jpg", 40, models.CategoryHero),
		rec("3", "gallery/3.jpg", 30, models.CategoryGeneral),
		rec("4", "gallery/4.jpg", 20, models.CategoryNails),
		rec("5", "gallery/5.jpg", 10, models.CategoryDesigns),
	})
	before := append([]models.AssetRecord(nil), merged...)

	got := Apply(merged, Filter{Category: models.CategoryGeneral})
	assert.Equal(t, []string{"1", "3"}, ids(got))
	assert.Equal(t, before, merged, "filter must not mutate its input")

	assert.Len(t, Apply(merged, Filter{Category: models.CategoryAll}), 5)
	assert.Len(t, Apply(merged, Filter{}), 5)
}

func TestApplySearchMatchesNameOrPath(t *testing.T) {
	recs := []models.AssetRecord{
		{ID: "a", Name: "french-tips.jpg", Path: "gallery/1_french-tips.jpg"},
		{ID: "b", Name: "chrome.png", Path: "assets/hero/1_chrome.png"},
		{ID: "c", Name: "", Path: "avatars/HERO-SHOT.jpg"},
	}
	assert.Equal(t, []string{"a"}, ids(Apply(recs, Filter{Search: "FRENCH"})))
	assert.Equal(t, []string{"b", "c"}, ids(Apply(recs, Filter{Search: " hero "})))
}

func TestApplyUncategorisedCountsAsGeneral(t *testing.T) {
	recs := []models.AssetRecord{{ID: "a"}, {ID: "b", Category: models.CategoryHero}}
	assert.Equal(t, []string{"a"}, ids(Apply(recs, Filter{Category: models.CategoryGeneral})))
}

func TestPickNeverMutates(t *testing.T) {
	recs := []models.AssetRecord{{ID: "a"}, {ID: "b"}}
	got, err := Pick(recs, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	_, err = Pick(recs, "zzz")
	assert.Error(t, err)
	assert.Len(t, recs, 2)
}
