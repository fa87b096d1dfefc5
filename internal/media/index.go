package media

import (
	"sync"

	"github.com/kylejryan/nail-studio-portal/internal/models"
)

// View is one merged state of the index.
type View struct {
	Records       []models.AssetRecord `json:"records"`
	Version       uint64               `json:"version"`
	CatalogLoaded bool                 `json:"catalogLoaded"`
	BlobsLoaded   bool                 `json:"blobsLoaded"`
}

// Index holds the latest snapshot of each source. Either source may update
// at any time and in any order; every accepted update re-merges from the two
// current snapshots and notifies subscribers.
type Index struct {
	mu      sync.Mutex
	catalog snapshot
	blobs   snapshot
	view    View
	subs    map[int]func(View)
	nextSub int
	closed  bool
}

type snapshot struct {
	recs   []models.AssetRecord
	seq    uint64
	loaded bool
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{subs: make(map[int]func(View))}
}

// SetCatalog replaces the catalog snapshot. seq orders fetches of this source:
// a result carrying a seq not newer than the applied one is stale and dropped.
// It reports whether the update was applied.
func (ix *Index) SetCatalog(seq uint64, recs []models.AssetRecord) bool {
	return ix.set(&ix.catalog, seq, recs)
}

// SetBlobs replaces the blob snapshot; see SetCatalog.
func (ix *Index) SetBlobs(seq uint64, recs []models.AssetRecord) bool {
	return ix.set(&ix.blobs, seq, recs)
}

func (ix *Index) set(s *snapshot, seq uint64, recs []models.AssetRecord) bool {
	ix.mu.Lock()
	if ix.closed || (s.loaded && seq <= s.seq) {
		ix.mu.Unlock()
		return false
	}
	s.recs = append([]models.AssetRecord(nil), recs...)
	s.seq = seq
	s.loaded = true

	ix.view = View{
		Records:       Merge(ix.catalog.recs, ix.blobs.recs),
		Version:       ix.view.Version + 1,
		CatalogLoaded: ix.catalog.loaded,
		BlobsLoaded:   ix.blobs.loaded,
	}
	v := ix.view
	subs := make([]func(View), 0, len(ix.subs))
	for _, fn := range ix.subs {
		subs = append(subs, fn)
	}
	ix.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
	return true
}

// View returns the current merged state.
func (ix *Index) View() View {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.view
}

// Filtered returns the current records matching f.
func (ix *Index) Filtered(f Filter) []models.AssetRecord {
	return Apply(ix.View().Records, f)
}

// Subscribe registers fn for every future update and, if anything is loaded,
// calls it once with the current view. The returned func unsubscribes.
func (ix *Index) Subscribe(fn func(View)) (cancel func()) {
	ix.mu.Lock()
	if ix.closed {
		ix.mu.Unlock()
		return func() {}
	}
	id := ix.nextSub
	ix.nextSub++
	ix.subs[id] = fn
	v := ix.view
	loaded := ix.catalog.loaded || ix.blobs.loaded
	ix.mu.Unlock()

	if loaded {
		fn(v)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			ix.mu.Lock()
			delete(ix.subs, id)
			ix.mu.Unlock()
		})
	}
}

// Close drops all subscribers; results arriving afterwards are ignored.
func (ix *Index) Close() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.closed = true
	ix.subs = map[int]func(View){}
}
