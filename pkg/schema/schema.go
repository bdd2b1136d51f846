// Package schema provides validator adapters for the repository layer.
// The repository only depends on the core.Validator capability, so any
// validation engine can be plugged in; these are the ones silt ships.
package schema

import "github.com/go-playground/validator/v10"

// Struct validates inputs using go-playground struct tags
// (`validate:"required,gte=0"` and friends). One instance is meant to be
// owned by exactly one repository.
type Struct[T any] struct {
	v *validator.Validate
}

// NewStruct creates a struct-tag validator.
func NewStruct[T any]() *Struct[T] {
	return &Struct[T]{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks the input against its struct tags. The returned error
// is the validation engine's own, surfaced as-is.
func (s *Struct[T]) Validate(input T) error {
	return s.v.Struct(input)
}

// Func adapts a plain function into a validator, for schemas that are
// easier to express as code.
type Func[T any] func(T) error

func (f Func[T]) Validate(input T) error { return f(input) }
