package core

import "context"

// Dialer opens sessions against a storage engine.
// Adhering to this interface allows the core to be independent of the
// underlying engine (MongoDB, in-memory, future backends).
type Dialer interface {
	// Dial establishes the transport and returns a session bound to the
	// named database. A failed dial is retryable by the caller.
	Dial(ctx context.Context, database string) (Session, error)
}

// Session is a live handle to the storage engine.
type Session interface {
	// Collection returns a handle to the named collection. Handles are
	// cheap and need not be cached.
	Collection(name string) Collection

	// Close tears down the transport. Closing an already closed session
	// is a no-op.
	Close(ctx context.Context) error

	// Closed exposes the transport-close signal. The channel yields a
	// non-nil error for abnormal termination and is closed afterwards
	// (or closed directly on a clean shutdown).
	Closed() <-chan error
}

// Collection is the narrow slice of a document-database collection the
// repository layer consumes. Implementations are expected to offer the
// semantics of a standard document-database client.
type Collection interface {
	Name() string

	InsertOne(ctx context.Context, doc Document) (InsertOneResult, error)
	InsertMany(ctx context.Context, docs []Document) (InsertManyResult, error)

	// FindOne returns the first matching document, or ErrNoDocuments.
	FindOne(ctx context.Context, filter Filter) (Document, error)
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]Document, error)

	UpdateOne(ctx context.Context, filter Filter, update Update) (UpdateResult, error)
	UpdateMany(ctx context.Context, filter Filter, update Update) (UpdateResult, error)

	// FindOneAndUpdate applies the update and returns the post-update
	// document, or ErrNoDocuments when nothing matched.
	FindOneAndUpdate(ctx context.Context, filter Filter, update Update) (Document, error)

	DeleteOne(ctx context.Context, filter Filter) (DeleteResult, error)
	DeleteMany(ctx context.Context, filter Filter) (DeleteResult, error)

	CountDocuments(ctx context.Context, filter Filter) (int64, error)
	Distinct(ctx context.Context, field string, filter Filter) ([]any, error)
}

// InsertOneResult is the engine's acknowledgment of a single insert.
type InsertOneResult struct {
	InsertedID string
}

// InsertManyResult is the engine's acknowledgment of a batch insert.
type InsertManyResult struct {
	InsertedIDs []string
}

// UpdateResult is the engine's acknowledgment of an update.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// DeleteResult is the engine's acknowledgment of a delete.
type DeleteResult struct {
	DeletedCount int64
}
