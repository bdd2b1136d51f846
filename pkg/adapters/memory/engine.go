// Package memory implements the storage-engine contract in process
// memory. It exists for tests, prototyping and the CLI's demo mode; it
// mimics the filter and update semantics of a document database without
// pretending to be one.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/silt/pkg/core"
)

// Dialer hands out sessions over a shared in-process store. Sessions
// dialed for the same database name see the same data, which lets
// reconnect scenarios be exercised in tests.
type Dialer struct {
	mu  sync.Mutex
	dbs map[string]*database
}

// NewDialer creates an empty in-memory store.
func NewDialer() *Dialer {
	return &Dialer{dbs: make(map[string]*database)}
}

// Dial returns a session bound to the named database. It never fails.
func (d *Dialer) Dial(ctx context.Context, name string) (core.Session, error) {
	d.mu.Lock()
	db, ok := d.dbs[name]
	if !ok {
		db = &database{collections: make(map[string]*collection)}
		d.dbs[name] = db
	}
	d.mu.Unlock()
	return &session{db: db, closed: make(chan error, 1)}, nil
}

type database struct {
	mu          sync.Mutex
	collections map[string]*collection
}

func (db *database) collection(name string) *collection {
	db.mu.Lock()
	defer db.mu.Unlock()
	col, ok := db.collections[name]
	if !ok {
		col = &collection{name: name}
		db.collections[name] = col
	}
	return col
}

type session struct {
	db     *database
	closed chan error
	once   sync.Once
}

func (s *session) Collection(name string) core.Collection {
	return s.db.collection(name)
}

func (s *session) Close(ctx context.Context) error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *session) Closed() <-chan error { return s.closed }

// Fail closes the session abnormally, simulating a transport error.
func (s *session) Fail(err error) {
	s.once.Do(func() {
		s.closed <- err
		close(s.closed)
	})
}

type collection struct {
	mu   sync.RWMutex
	name string
	docs []core.Document // insertion order preserved
}

func (c *collection) Name() string { return c.name }

func (c *collection) InsertOne(ctx context.Context, doc core.Document) (core.InsertOneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkDuplicate(doc); err != nil {
		return core.InsertOneResult{}, err
	}
	c.docs = append(c.docs, doc.Clone())
	return core.InsertOneResult{InsertedID: doc.ID()}, nil
}

// InsertMany appends documents one by one. Like a native bulk write, a
// duplicate identifier mid-batch leaves the earlier documents inserted.
func (c *collection) InsertMany(ctx context.Context, docs []core.Document) (core.InsertManyResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := core.InsertManyResult{InsertedIDs: make([]string, 0, len(docs))}
	for _, doc := range docs {
		if err := c.checkDuplicate(doc); err != nil {
			return res, err
		}
		c.docs = append(c.docs, doc.Clone())
		res.InsertedIDs = append(res.InsertedIDs, doc.ID())
	}
	return res, nil
}

func (c *collection) checkDuplicate(doc core.Document) error {
	id := doc.ID()
	if id == "" {
		return fmt.Errorf("memory: document without identifier")
	}
	for _, existing := range c.docs {
		if existing.ID() == id {
			return fmt.Errorf("memory: duplicate key %q", id)
		}
	}
	return nil
}

func (c *collection) FindOne(ctx context.Context, filter core.Filter) (core.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, doc := range c.docs {
		if matches(doc, filter) {
			return doc.Clone(), nil
		}
	}
	return nil, core.ErrNoDocuments
}

func (c *collection) Find(ctx context.Context, filter core.Filter, opts core.FindOptions) ([]core.Document, error) {
	c.mu.RLock()
	out := make([]core.Document, 0)
	for _, doc := range c.docs {
		if matches(doc, filter) {
			out = append(out, doc.Clone())
		}
	}
	c.mu.RUnlock()

	// Fixed stage order: projection, sort, skip, limit.
	if len(opts.Projection) > 0 {
		for i, doc := range out {
			out[i] = project(doc, opts.Projection)
		}
	}
	if len(opts.Sort) > 0 {
		sortDocs(out, opts.Sort)
	}
	if opts.Skip > 0 {
		if opts.Skip >= int64(len(out)) {
			return []core.Document{}, nil
		}
		out = out[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < int64(len(out)) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter core.Filter, update core.Update) (core.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, doc := range c.docs {
		if matches(doc, filter) {
			updated, err := applyUpdate(doc, update)
			if err != nil {
				return core.UpdateResult{}, err
			}
			c.docs[i] = updated
			return core.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return core.UpdateResult{}, nil
}

func (c *collection) UpdateMany(ctx context.Context, filter core.Filter, update core.Update) (core.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var res core.UpdateResult
	for i, doc := range c.docs {
		if matches(doc, filter) {
			updated, err := applyUpdate(doc, update)
			if err != nil {
				return res, err
			}
			c.docs[i] = updated
			res.MatchedCount++
			res.ModifiedCount++
		}
	}
	return res, nil
}

func (c *collection) FindOneAndUpdate(ctx context.Context, filter core.Filter, update core.Update) (core.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, doc := range c.docs {
		if matches(doc, filter) {
			updated, err := applyUpdate(doc, update)
			if err != nil {
				return nil, err
			}
			c.docs[i] = updated
			return updated.Clone(), nil
		}
	}
	return nil, core.ErrNoDocuments
}

func (c *collection) DeleteOne(ctx context.Context, filter core.Filter) (core.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, doc := range c.docs {
		if matches(doc, filter) {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return core.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return core.DeleteResult{}, nil
}

func (c *collection) DeleteMany(ctx context.Context, filter core.Filter) (core.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.docs[:0]
	var deleted int64
	for _, doc := range c.docs {
		if matches(doc, filter) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	c.docs = kept
	return core.DeleteResult{DeletedCount: deleted}, nil
}

func (c *collection) CountDocuments(ctx context.Context, filter core.Filter) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int64
	for _, doc := range c.docs {
		if matches(doc, filter) {
			n++
		}
	}
	return n, nil
}

func (c *collection) Distinct(ctx context.Context, field string, filter core.Filter) ([]any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]any, 0)
	for _, doc := range c.docs {
		if !matches(doc, filter) {
			continue
		}
		val, ok := doc[field]
		if !ok {
			continue
		}
		seen := false
		for _, v := range out {
			if equal(v, val) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, val)
		}
	}
	return out, nil
}

// project keeps only the listed fields. The identifier is always retained.
func project(doc core.Document, fields []string) core.Document {
	out := core.Document{}
	if id, ok := doc[core.IDField]; ok {
		out[core.IDField] = id
	}
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}

func sortDocs(docs []core.Document, keys []core.SortField) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range keys {
			c, ok := compare(docs[i][key.Field], docs[j][key.Field])
			if !ok || c == 0 {
				continue
			}
			if key.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// applyUpdate evaluates $set, $inc and $unset against a copy of doc.
func applyUpdate(doc core.Document, update core.Update) (core.Document, error) {
	out := doc.Clone()
	for op, arg := range update {
		clause, ok := clauseMap(arg)
		if !ok {
			return nil, fmt.Errorf("memory: malformed %s clause", op)
		}
		switch op {
		case "$set":
			for k, v := range clause {
				out[k] = v
			}
		case "$inc":
			for k, v := range clause {
				delta, ok := toFloat(v)
				if !ok {
					return nil, fmt.Errorf("memory: non-numeric $inc for %q", k)
				}
				current, _ := toFloat(out[k])
				out[k] = current + delta
			}
		case "$unset":
			for k := range clause {
				delete(out, k)
			}
		default:
			return nil, fmt.Errorf("memory: unsupported update operator %q", op)
		}
	}
	return out, nil
}

func clauseMap(arg any) (map[string]any, bool) {
	switch m := arg.(type) {
	case map[string]any:
		return m, true
	case core.Document:
		return m, true
	case core.Update:
		return m, true
	}
	return nil, false
}
