// Package silt is the Composition Root for the silt library.
//
// It connects the core domain (documents, validation, timestamps) with the
// storage adapters (MongoDB, in-memory) using the Hexagonal Architecture
// pattern.
//
// Philosophy:
//
// silt is a typed access layer over a document database. A Repository
// validates every write against a declared schema, manages creation and
// update timestamps with a strictly monotonic generator, and translates
// missing results into a uniform not-found contract. One connection
// manager owns the single logical connection; many repositories share it
// and wait for readiness instead of failing while it comes up.
//
// Features:
//
//   - **Typed Repositories**: Generic `Repository[T]` with schema
//     validation on every write.
//   - **Connection Lifecycle**: Retry-with-backoff establishment, event
//     driven readiness, explicit teardown.
//   - **Monotonic Timestamps**: createdAt/updatedAt strictly increase even
//     under coarse clocks and concurrent writers.
//   - **Uniform Errors**: ValidationError, NotFoundError (carrying the
//     filter) and ErrNotConnected; engine errors pass through untouched.
//   - **Extensible**: Any backend implementing `core.Dialer` plugs in;
//     MongoDB and in-memory adapters ship in the box.
//
// Usage:
//
//	mgr, err := silt.Connect(ctx, "mongodb://localhost:27017",
//		silt.WithDatabase("app"),
//		silt.WithLogger(logger),
//	)
//
//	users := silt.NewRepository[User](mgr, "users",
//		silt.WithValidator[User](schema.NewStruct[User]()),
//	)
//	doc, _, err := users.InsertOne(ctx, User{Name: "John", Age: 30})
package silt
