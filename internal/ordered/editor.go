// Package ordered edits the admin-curated ranked collections: signature
// looks and technicians.
package ordered

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports"
	"github.com/kylejryan/nail-studio-portal/internal/upload"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

// ErrConflict is returned when another editor changed the ranks first.
var ErrConflict = ports.ErrConflict

// Entry is a document of a ranked collection.
type Entry interface {
	EntryID() string
	Rank() float64
	Created() int64
	Visible() bool
	ImagePath() string
	OwnedBlobs() []string
}

// Direction moves an entry one slot.
type Direction string

// Possible values for Direction
const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Kind describes one ranked collection.
type Kind struct {
	Collection string
	Prefix     string   // blob prefix for uploaded images
	Label      string   // field Add requires and Edit may not clear
	Fields     []string // text fields Add and Edit accept
	// ImageFields maps a resolved image onto document fields.
	ImageFields func(models.ImageRef) map[string]any
}

func (k Kind) accepts(field string) bool {
	for _, f := range k.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Editor edits one ranked collection.
type Editor[T Entry] struct {
	Kind     Kind
	Catalog  ports.Catalog
	Store    ports.BlobStore
	Pipeline *upload.Pipeline
	NewID    func() string
	Now      func() time.Time
	Log      *zap.Logger
}

// NewEditor wires an editor for kind.
func NewEditor[T Entry](kind Kind, catalog ports.Catalog, store ports.BlobStore, pipeline *upload.Pipeline, log *zap.Logger) *Editor[T] {
	return &Editor[T]{
		Kind:     kind,
		Catalog:  catalog,
		Store:    store,
		Pipeline: pipeline,
		NewID:    func() string { return ulid.Make().String() },
		Now:      time.Now,
		Log:      log.Named(kind.Collection),
	}
}

// Sort orders entries by rank, then createdAt, then id, all ascending.
func Sort[T Entry](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Rank() != b.Rank() {
			return a.Rank() < b.Rank()
		}
		if a.Created() != b.Created() {
			return a.Created() < b.Created()
		}
		return a.EntryID() < b.EntryID()
	})
}

// Visible drops disabled entries.
func Visible[T Entry](items []T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it.Visible() {
			out = append(out, it)
		}
	}
	return out
}

// List returns every entry, disabled ones included, in display order.
func (e *Editor[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := e.Catalog.List(ctx, e.Kind.Collection, &items); err != nil {
		return nil, fmt.Errorf("list %s: %w", e.Kind.Collection, err)
	}
	Sort(items)
	return items, nil
}

// Public returns the enabled entries in display order.
func (e *Editor[T]) Public(ctx context.Context) ([]T, error) {
	items, err := e.List(ctx)
	if err != nil {
		return nil, err
	}
	return Visible(items), nil
}

// Get loads one entry.
func (e *Editor[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := e.Catalog.Get(ctx, e.Kind.Collection, id, &out)
	return out, err
}

// GetPublic loads one entry, reporting a disabled one as not found.
func (e *Editor[T]) GetPublic(ctx context.Context, id string) (T, error) {
	out, err := e.Get(ctx, id)
	if err != nil {
		return out, err
	}
	if !out.Visible() {
		var zero T
		return zero, fmt.Errorf("%s/%s: %w", e.Kind.Collection, id, ports.ErrNotFound)
	}
	return out, nil
}

func (e *Editor[T]) text(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if !e.Kind.accepts(k) {
			continue
		}
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		out[k] = v
	}
	return out
}

func (e *Editor[T]) label(fields map[string]any) string {
	s, _ := fields[e.Kind.Label].(string)
	return s
}

// Add creates an entry at the end of the list with the given image.
func (e *Editor[T]) Add(ctx context.Context, fields map[string]any, img upload.Request) (T, error) {
	var zero T
	fields = e.text(fields)
	if img.Prefix == "" {
		img.Prefix = e.Kind.Prefix
	}
	if err := validate.All(
		func() error { return validate.Required(e.Kind.Label, e.label(fields)) },
		func() error { return e.Pipeline.Validate(img) },
	); err != nil {
		return zero, err
	}

	items, err := e.List(ctx)
	if err != nil {
		return zero, err
	}
	order := 1.0
	if len(items) > 0 {
		order = items[len(items)-1].Rank() + 1
	}

	id := e.NewID()
	now := e.Now().UnixMilli()
	var created T
	_, err = e.Pipeline.Run(ctx, img, func(ctx context.Context, ref models.ImageRef) error {
		doc := map[string]any{}
		for k, v := range fields {
			doc[k] = v
		}
		for k, v := range e.Kind.ImageFields(ref) {
			doc[k] = v
		}
		doc["id"] = id
		doc["order"] = order
		doc["enabled"] = true
		doc["createdAt"] = now
		doc["updatedAt"] = now

		if err := decode(doc, &created); err != nil {
			return err
		}
		return e.Catalog.Create(ctx, e.Kind.Collection, id, doc)
	})
	if err != nil {
		return zero, err
	}
	e.Log.Info("entry added", zap.String("id", id), zap.Float64("order", order))
	return created, nil
}

// Move swaps the entry with its neighbour in display order. Moving the first
// entry up or the last one down does nothing.
func (e *Editor[T]) Move(ctx context.Context, id string, dir Direction) error {
	if dir != Up && dir != Down {
		return validate.New("direction", "direction must be up or down")
	}
	items, err := e.List(ctx)
	if err != nil {
		return err
	}
	idx := -1
	for i, it := range items {
		if it.EntryID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%s/%s: %w", e.Kind.Collection, id, ports.ErrNotFound)
	}

	step := -1
	if dir == Down {
		step = 1
	}
	n := idx + step
	if n < 0 || n >= len(items) {
		return nil
	}

	cur, next := items[idx], items[n]
	var changes []ports.RankChange
	if cur.Rank() != next.Rank() {
		changes = []ports.RankChange{
			{ID: cur.EntryID(), From: cur.Rank(), To: next.Rank()},
			{ID: next.EntryID(), From: next.Rank(), To: cur.Rank()},
		}
	} else {
		changes = []ports.RankChange{{ID: cur.EntryID(), From: cur.Rank(), To: beyond(items, n, step)}}
	}

	if err := e.Catalog.Reorder(ctx, e.Kind.Collection, changes); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			e.Log.Warn("reorder lost a race", zap.String("id", id))
		}
		return fmt.Errorf("move %s/%s: %w", e.Kind.Collection, id, err)
	}
	return nil
}

// beyond returns a rank strictly past the tie group containing items[n] in
// direction step: the midpoint to the next distinct rank, or one past the end.
func beyond[T Entry](items []T, n, step int) float64 {
	r := items[n].Rank()
	for i := n + step; i >= 0 && i < len(items); i += step {
		if other := items[i].Rank(); other != r {
			return (r + other) / 2
		}
	}
	return r + float64(step)
}

// SetEnabled toggles public visibility.
func (e *Editor[T]) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if _, err := e.Get(ctx, id); err != nil {
		return err
	}
	return e.Catalog.Update(ctx, e.Kind.Collection, id, map[string]any{
		"enabled":   enabled,
		"updatedAt": e.Now().UnixMilli(),
	})
}

// Edit merges text changes and, when img is set, replaces the image. With
// deleteOld the previous image blob is removed after the write, if its path
// changed.
func (e *Editor[T]) Edit(ctx context.Context, id string, fields map[string]any, img *upload.Request, deleteOld bool) (T, error) {
	var zero T
	fields = e.text(fields)
	if _, ok := fields[e.Kind.Label]; ok {
		if err := validate.Required(e.Kind.Label, e.label(fields)); err != nil {
			return zero, err
		}
	}
	if img != nil {
		if img.Prefix == "" {
			img.Prefix = e.Kind.Prefix
		}
		if err := e.Pipeline.Validate(*img); err != nil {
			return zero, err
		}
	}

	cur, err := e.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	fields["updatedAt"] = e.Now().UnixMilli()

	if img == nil {
		if err := e.Catalog.Update(ctx, e.Kind.Collection, id, fields); err != nil {
			return zero, err
		}
		return e.Get(ctx, id)
	}

	req := *img
	req.Replaces = cur.ImagePath()
	req.DeleteOld = deleteOld
	_, err = e.Pipeline.Run(ctx, req, func(ctx context.Context, ref models.ImageRef) error {
		for k, v := range e.Kind.ImageFields(ref) {
			fields[k] = v
		}
		return e.Catalog.Update(ctx, e.Kind.Collection, id, fields)
	})
	if err != nil {
		return zero, err
	}
	return e.Get(ctx, id)
}

// Delete removes the entry, then the blobs it uploaded. Blob failures are
// logged and do not fail the delete.
func (e *Editor[T]) Delete(ctx context.Context, id string) error {
	cur, err := e.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := e.Catalog.Delete(ctx, e.Kind.Collection, id); err != nil {
		return err
	}
	for _, p := range cur.OwnedBlobs() {
		if err := e.Store.Delete(ctx, p); err != nil {
			e.Log.Warn("blob delete failed", zap.String("id", id), zap.String("path", p), zap.Error(err))
		}
	}
	return nil
}

// decode round-trips doc through DynamoDB attribute values into out, so the
// returned entry matches what a later read would produce.
func decode(doc map[string]any, out any) error {
	av, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return err
	}
	return attributevalue.UnmarshalMap(av, out)
}
