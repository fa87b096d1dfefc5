// Package media builds the media library: one deduplicated, sorted and
// filterable index over the catalog's image records and the blob store's
// listings.
package media

import (
	"sort"
	"strings"

	"github.com/kylejryan/nail-studio-portal/internal/models"
)

// Filter narrows the merged index. The zero Filter matches everything.
type Filter struct {
	Search   string          // case-insensitive substring over name and path
	Category models.Category // exact match; "" and "all" pass everything
}

// Merge reconciles the two sources. Records are keyed by path (url when path
// is missing); blob listings go in first and catalog records overwrite them.
// Two records from the same source on one key keep the newer. The result is
// sorted newest first with unknown createdAt last, and depends only on the
// contents of the two slices.
func Merge(catalog, blobs []models.AssetRecord) []models.AssetRecord {
	byKey := make(map[string]models.AssetRecord, len(catalog)+len(blobs))
	put := func(r models.AssetRecord, origin models.Origin) {
		k := r.Key()
		if k == "" {
			k = "id:" + r.ID
		}
		r.Origin = origin
		if prev, ok := byKey[k]; ok && prev.Origin == origin && newer(prev, r) {
			return
		}
		byKey[k] = r
	}
	for _, b := range blobs {
		put(b, models.OriginBlob)
	}
	for _, c := range catalog {
		put(c, models.OriginCatalog)
	}

	out := make([]models.AssetRecord, 0, len(byKey))
	for _, r := range byKey {
		out = append(out, r)
	}
	Sort(out)
	return out
}

// newer reports whether a should be kept over b.
func newer(a, b models.AssetRecord) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt > b.CreatedAt
	}
	return a.ID > b.ID
}

// Sort orders records by createdAt descending. A missing createdAt counts as
// 0. Ties fall back to key then id so the order never depends on input order.
func Sort(recs []models.AssetRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt > b.CreatedAt
		}
		if a.Key() != b.Key() {
			return a.Key() < b.Key()
		}
		return a.ID < b.ID
	})
}

// Apply returns the records matching f, in their existing order. recs is
// not modified.
func Apply(recs []models.AssetRecord, f Filter) []models.AssetRecord {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.AssetRecord, 0, len(recs))
	for _, r := range recs {
		if f.Category != "" && f.Category != models.CategoryAll && r.Category.OrDefault() != f.Category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(r.Name), term) &&
			!strings.Contains(strings.ToLower(r.Path), term) {
			continue
		}
		out = append(out, r)
	}
	return out
}
