// Package typed provides a type-safe repository over one collection of a
// document database. Every write is validated against the repository's
// schema and stamped with monotonic timestamps before it reaches storage.
package typed

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/silt/pkg/core"
)

// SessionProvider is the slice of the connection manager a repository
// needs. Repositories hold no direct reference to the connection state;
// they only request access through the provider.
type SessionProvider interface {
	// EnsureReady blocks until a session is available or the readiness
	// wait times out.
	EnsureReady(ctx context.Context) (core.Session, error)

	// SessionOrFail returns the session without waiting.
	SessionOrFail() (core.Session, error)
}

// Repository provides schema-validated, timestamped access to a single
// collection. The zero value is not usable; construct with NewRepository.
type Repository[T any] struct {
	conn       SessionProvider
	name       string
	validator  core.Validator[T]
	timestamps bool
	clock      *core.TickClock
}

// Option configures a Repository.
type Option[T any] func(*Repository[T])

// WithValidator binds a schema to the repository. The validator is owned
// exclusively by this repository and runs before every insert.
func WithValidator[T any](v core.Validator[T]) Option[T] {
	return func(r *Repository[T]) {
		r.validator = v
	}
}

// WithoutTimestamps disables createdAt/updatedAt management.
func WithoutTimestamps[T any]() Option[T] {
	return func(r *Repository[T]) {
		r.timestamps = false
	}
}

// WithClock overrides the instant generator, mainly for tests.
func WithClock[T any](c *core.TickClock) Option[T] {
	return func(r *Repository[T]) {
		r.clock = c
	}
}

// NewRepository creates a repository for the named collection.
// Timestamps are enabled by default.
func NewRepository[T any](conn SessionProvider, collection string, opts ...Option[T]) *Repository[T] {
	r := &Repository[T]{
		conn:       conn,
		name:       collection,
		timestamps: true,
		clock:      core.DefaultClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the collection name this repository is bound to.
func (r *Repository[T]) Name() string { return r.name }

func (r *Repository[T]) collection(ctx context.Context) (core.Collection, error) {
	sess, err := r.conn.EnsureReady(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Collection(r.name), nil
}

// InsertOne validates and persists a single document. The returned
// Document is the exact normalized value written, not a re-read from
// storage. Validation failures surface as *core.ValidationError and abort
// before any storage call.
func (r *Repository[T]) InsertOne(ctx context.Context, input T) (core.Document, core.InsertOneResult, error) {
	doc, err := r.normalizeInsert(input)
	if err != nil {
		return nil, core.InsertOneResult{}, err
	}
	col, err := r.collection(ctx)
	if err != nil {
		return nil, core.InsertOneResult{}, err
	}
	res, err := col.InsertOne(ctx, doc)
	if err != nil {
		return nil, core.InsertOneResult{}, fmt.Errorf("insert one: %w", err)
	}
	return doc, res, nil
}

// InsertMany validates and persists a batch. Validation is all-or-nothing:
// a failure on any item aborts the whole batch before a single write is
// issued. Each document receives its own monotonic instant pair. The
// engine's native bulk-write atomicity is not strengthened here.
func (r *Repository[T]) InsertMany(ctx context.Context, inputs []T) ([]core.Document, core.InsertManyResult, error) {
	docs := make([]core.Document, 0, len(inputs))
	for i, input := range inputs {
		doc, err := r.normalizeInsert(input)
		if err != nil {
			return nil, core.InsertManyResult{}, fmt.Errorf("item %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	col, err := r.collection(ctx)
	if err != nil {
		return nil, core.InsertManyResult{}, err
	}
	res, err := col.InsertMany(ctx, docs)
	if err != nil {
		return nil, core.InsertManyResult{}, fmt.Errorf("insert many: %w", err)
	}
	return docs, res, nil
}

// FindOne returns the first matching document, or nil when nothing
// matched. Read results are not validated.
func (r *Repository[T]) FindOne(ctx context.Context, filter core.Filter) (*DocumentModel[T], error) {
	col, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := col.FindOne(ctx, filter)
	if errors.Is(err, core.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find one: %w", err)
	}
	return decode[T](doc)
}

// FindOneStrict is FindOne with expected presence: a missing document is
// an error carrying the filter that produced it.
func (r *Repository[T]) FindOneStrict(ctx context.Context, filter core.Filter) (*DocumentModel[T], error) {
	model, err := r.FindOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, &core.NotFoundError{Collection: r.name, Filter: filter}
	}
	return model, nil
}

// Find returns all matching documents in the engine's natural order.
func (r *Repository[T]) Find(ctx context.Context, filter core.Filter) ([]*DocumentModel[T], error) {
	return r.FindMany(ctx, filter, core.FindOptions{})
}

// FindMany returns matching documents shaped by opts. Projection, sort,
// skip and limit apply in that fixed order.
func (r *Repository[T]) FindMany(ctx context.Context, filter core.Filter, opts core.FindOptions) ([]*DocumentModel[T], error) {
	col, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	models := make([]*DocumentModel[T], 0, len(docs))
	for _, doc := range docs {
		model, err := decode[T](doc)
		if err != nil {
			return nil, fmt.Errorf("decode document %s: %w", doc.ID(), err)
		}
		models = append(models, model)
	}
	return models, nil
}

// UpdateOne applies the update to the first matching document. With
// timestamps enabled, a fresh updatedAt is forced into the $set clause;
// callers cannot suppress or override it.
func (r *Repository[T]) UpdateOne(ctx context.Context, filter core.Filter, update core.Update) (core.UpdateResult, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return core.UpdateResult{}, err
	}
	res, err := col.UpdateOne(ctx, filter, r.normalizeUpdate(update))
	if err != nil {
		return core.UpdateResult{}, fmt.Errorf("update one: %w", err)
	}
	return res, nil
}

// UpdateMany applies the update to every matching document.
func (r *Repository[T]) UpdateMany(ctx context.Context, filter core.Filter, update core.Update) (core.UpdateResult, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return core.UpdateResult{}, err
	}
	res, err := col.UpdateMany(ctx, filter, r.normalizeUpdate(update))
	if err != nil {
		return core.UpdateResult{}, fmt.Errorf("update many: %w", err)
	}
	return res, nil
}

// FindOneAndUpdate applies the update and returns the post-update
// document. A missing document is an error carrying the filter.
func (r *Repository[T]) FindOneAndUpdate(ctx context.Context, filter core.Filter, update core.Update) (*DocumentModel[T], error) {
	col, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := col.FindOneAndUpdate(ctx, filter, r.normalizeUpdate(update))
	if errors.Is(err, core.ErrNoDocuments) {
		return nil, &core.NotFoundError{Collection: r.name, Filter: filter}
	}
	if err != nil {
		return nil, fmt.Errorf("find one and update: %w", err)
	}
	return decode[T](doc)
}

// DeleteOne removes the first matching document.
func (r *Repository[T]) DeleteOne(ctx context.Context, filter core.Filter) (core.DeleteResult, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return core.DeleteResult{}, err
	}
	res, err := col.DeleteOne(ctx, filter)
	if err != nil {
		return core.DeleteResult{}, fmt.Errorf("delete one: %w", err)
	}
	return res, nil
}

// DeleteMany removes every matching document.
func (r *Repository[T]) DeleteMany(ctx context.Context, filter core.Filter) (core.DeleteResult, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return core.DeleteResult{}, err
	}
	res, err := col.DeleteMany(ctx, filter)
	if err != nil {
		return core.DeleteResult{}, fmt.Errorf("delete many: %w", err)
	}
	return res, nil
}

// Exists reports whether at least one document matches the filter.
func (r *Repository[T]) Exists(ctx context.Context, filter core.Filter) (bool, error) {
	n, err := r.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountDocuments returns the number of matching documents.
func (r *Repository[T]) CountDocuments(ctx context.Context, filter core.Filter) (int64, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return 0, err
	}
	n, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Distinct returns the distinct values of a field across matching
// documents.
func (r *Repository[T]) Distinct(ctx context.Context, field string, filter core.Filter) ([]any, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	vals, err := col.Distinct(ctx, field, filter)
	if err != nil {
		return nil, fmt.Errorf("distinct: %w", err)
	}
	return vals, nil
}

// Collection is the escape hatch: it returns the raw engine collection
// handle, bypassing validation and timestamp logic entirely. It fails
// immediately when the connection is not established; it never waits.
func (r *Repository[T]) Collection() (core.Collection, error) {
	sess, err := r.conn.SessionOrFail()
	if err != nil {
		return nil, err
	}
	return sess.Collection(r.name), nil
}

func (r *Repository[T]) normalizeUpdate(update core.Update) core.Update {
	if !r.timestamps {
		return update
	}
	return NormalizeUpdate(update, r.clock.Now())
}
