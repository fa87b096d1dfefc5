// Package mocks holds in-memory implementations of the ports for tests and
// for running the dev server without AWS.
package mocks

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/kylejryan/nail-studio-portal/internal/ports"
)

type item = map[string]types.AttributeValue

// Catalog is an in-memory ports.Catalog. Documents are kept as DynamoDB
// attribute maps so marshalling behaves as it does against the real table.
type Catalog struct {
	mu    sync.Mutex
	docs  map[string]map[string]item
	errs  map[string]error
	calls []string
	Now   func() time.Time
}

var _ ports.Catalog = (*Catalog)(nil)

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{docs: map[string]map[string]item{}, errs: map[string]error{}}
}

// Fail makes every later call of op ("Create", "Update", "List", ...) return err.
// A nil err clears the failure.
func (c *Catalog) Fail(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.errs, op)
		return
	}
	c.errs[op] = err
}

// Calls returns the recorded calls as "Op collection/id".
func (c *Catalog) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// Writes counts recorded Create, Update, Delete and Reorder calls.
func (c *Catalog) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		switch opOf(call) {
		case "Create", "Update", "Delete", "Reorder":
			n++
		}
	}
	return n
}

// Count returns the number of documents in collection.
func (c *Catalog) Count(collection string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs[collection])
}

func opOf(call string) string {
	for i := range call {
		if call[i] == ' ' {
			return call[:i]
		}
	}
	return call
}

func (c *Catalog) begin(op, collection, id string) error {
	c.calls = append(c.calls, fmt.Sprintf("%s %s/%s", op, collection, id))
	return c.errs[op]
}

func (c *Catalog) coll(name string) map[string]item {
	m, ok := c.docs[name]
	if !ok {
		m = map[string]item{}
		c.docs[name] = m
	}
	return m
}

func (c *Catalog) Create(_ context.Context, collection, id string, doc any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("Create", collection, id); err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return err
	}
	m := c.coll(collection)
	if _, ok := m[id]; ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ports.ErrExists)
	}
	m[id] = av
	return nil
}

func (c *Catalog) Get(_ context.Context, collection, id string, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("Get", collection, id); err != nil {
		return err
	}
	av, ok := c.docs[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ports.ErrNotFound)
	}
	return attributevalue.UnmarshalMap(av, out)
}

func (c *Catalog) Update(_ context.Context, collection, id string, fields map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("Update", collection, id); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	m := c.coll(collection)
	doc, ok := m[id]
	if !ok {
		doc = item{}
		m[id] = doc
	}
	for k, v := range fields {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", k, err)
		}
		doc[k] = av
	}
	return nil
}

func (c *Catalog) Delete(_ context.Context, collection, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("Delete", collection, id); err != nil {
		return err
	}
	delete(c.docs[collection], id)
	return nil
}

// ids returns the ids of collection in sort key order.
func (c *Catalog) ids(collection string) []string {
	ids := make([]string, 0, len(c.docs[collection]))
	for id := range c.docs[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Catalog) List(_ context.Context, collection string, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("List", collection, ""); err != nil {
		return err
	}
	items := make([]item, 0, len(c.docs[collection]))
	for _, id := range c.ids(collection) {
		items = append(items, c.docs[collection][id])
	}
	return attributevalue.UnmarshalListOfMaps(items, out)
}

func (c *Catalog) Page(_ context.Context, collection string, limit int, cursor string, out any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("Page", collection, cursor); err != nil {
		return "", err
	}
	var after string
	if cursor != "" {
		b, err := base64.RawURLEncoding.DecodeString(cursor)
		if err != nil || len(b) == 0 {
			return "", fmt.Errorf("bad cursor %q", cursor)
		}
		after = string(b)
	}
	ids := c.ids(collection)
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	var items []item
	var last string
	more := false
	for _, id := range ids {
		if after != "" && id >= after {
			continue
		}
		if limit > 0 && len(items) == limit {
			more = true
			break
		}
		items = append(items, c.docs[collection][id])
		last = id
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return "", err
	}
	if !more {
		return "", nil
	}
	return base64.RawURLEncoding.EncodeToString([]byte(last)), nil
}

func (c *Catalog) Reorder(_ context.Context, collection string, changes []ports.RankChange) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("Reorder", collection, fmt.Sprint(len(changes))); err != nil {
		return err
	}
	m := c.docs[collection]
	for _, ch := range changes {
		doc, ok := m[ch.ID]
		if !ok {
			return fmt.Errorf("reorder %s: %w", collection, ports.ErrConflict)
		}
		var cur float64
		if av, ok := doc["order"]; ok {
			if err := attributevalue.Unmarshal(av, &cur); err != nil {
				return err
			}
		}
		if cur != ch.From {
			return fmt.Errorf("reorder %s: %w", collection, ports.ErrConflict)
		}
	}
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	for _, ch := range changes {
		doc := m[ch.ID]
		doc["order"], _ = attributevalue.Marshal(ch.To)
		doc["updatedAt"], _ = attributevalue.Marshal(now.UnixMilli())
	}
	return nil
}
