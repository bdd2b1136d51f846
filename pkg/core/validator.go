package core

// Validator decides whether an input is acceptable for persistence.
// It is the only contract silt has with a schema-validation engine; the
// error it returns is surfaced to callers as-is, wrapped in a
// ValidationError.
type Validator[T any] interface {
	Validate(input T) error
}
