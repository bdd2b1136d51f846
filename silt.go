package silt

import (
	"context"

	"github.com/aretw0/silt/internal/platform"
	"github.com/aretw0/silt/pkg/conn"
	"github.com/aretw0/silt/pkg/core"
	"github.com/aretw0/silt/pkg/typed"
)

// --- Types ---

// Document is a public alias for the raw document map.
type Document = core.Document

// Filter is a public alias for the query filter map.
type Filter = core.Filter

// Update is a public alias for the update document.
type Update = core.Update

// FindOptions is a public alias for multi-document read options.
type FindOptions = core.FindOptions

// SortField is a public alias for a sort key.
type SortField = core.SortField

// Validator is a public alias for the schema capability.
type Validator[T any] = core.Validator[T]

// Repository is a public alias for the typed repository.
type Repository[T any] = typed.Repository[T]

// DocumentModel is a public alias for the typed document view.
type DocumentModel[T any] = typed.DocumentModel[T]

// Manager is a public alias for the connection manager.
type Manager = conn.Manager

// --- Errors ---

// ErrNotConnected is returned when no live session is available.
var ErrNotConnected = core.ErrNotConnected

// ValidationError is a public alias for the schema-rejection error.
type ValidationError = core.ValidationError

// NotFoundError is a public alias for the expected-presence error.
type NotFoundError = core.NotFoundError

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool { return core.IsNotFound(err) }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool { return core.IsValidation(err) }

// --- Configuration ---

// Option defines a functional option for Connect.
type Option = platform.Option

// WithLogger sets the logger for the connection manager.
var WithLogger = platform.WithLogger

// WithAdapter selects the storage adapter by name ("mongo" or "memory").
var WithAdapter = platform.WithAdapter

// WithDatabase sets the logical database name.
var WithDatabase = platform.WithDatabase

// WithDialer injects a custom storage dialer.
var WithDialer = platform.WithDialer

// WithMaxRetries bounds the dial attempts of the connection setup.
var WithMaxRetries = platform.WithMaxRetries

// WithRetryDelay sets the sleep between dial attempts.
var WithRetryDelay = platform.WithRetryDelay

// --- Factories ---

// Connect builds a connection manager for the given URI and runs its
// setup procedure.
func Connect(ctx context.Context, uri string, opts ...Option) (*conn.Manager, error) {
	return platform.Connect(ctx, uri, opts...)
}

// NewManager creates an unconnected manager for callers that want full
// control over the lifecycle.
func NewManager(cfg conn.Config) *conn.Manager {
	return conn.NewManager(cfg)
}

// NewRepository creates a typed repository for the named collection,
// sharing the manager's connection.
func NewRepository[T any](mgr typed.SessionProvider, collection string, opts ...typed.Option[T]) *typed.Repository[T] {
	return typed.NewRepository[T](mgr, collection, opts...)
}

// WithValidator binds a schema to a repository.
func WithValidator[T any](v core.Validator[T]) typed.Option[T] {
	return typed.WithValidator[T](v)
}

// WithoutTimestamps disables createdAt/updatedAt management.
func WithoutTimestamps[T any]() typed.Option[T] {
	return typed.WithoutTimestamps[T]()
}
