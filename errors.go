package objgraph

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrInvalidArgument indicates malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrFieldAccess indicates a field value could not be read.
	ErrFieldAccess = errors.New("field access failed")

	// ErrNoCommonAncestor indicates two types share no ancestor, not even the root.
	ErrNoCommonAncestor = errors.New("no common ancestor")

	// ErrFactoryNotFound indicates no way to construct an empty instance of a type.
	ErrFactoryNotFound = errors.New("factory not found")

	// ErrFillingMethodNotFound indicates no method could be verified to insert elements.
	ErrFillingMethodNotFound = errors.New("filling method not found")

	// ErrUnresolvedReference indicates a ref node points at an id that was never rebuilt.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrInvalidTag indicates a graph struct tag has an invalid format or value.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrHash indicates hashing of a field value failed.
	ErrHash = errors.New("hash failed")

	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")

	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")
)

// FieldAccessError reports a field whose value could not be read while walking a value.
type FieldAccessError struct {
	Field string // Field name as declared on the struct
	Type  string // Qualified name of the owning type
	Cause error  // Original error from reflection
}

func (e *FieldAccessError) Error() string {
	return fmt.Sprintf("%s: field %s of %s: %v", ErrFieldAccess.Error(), e.Field, e.Type, e.Cause)
}

func (e *FieldAccessError) Unwrap() error {
	return ErrFieldAccess
}

// HierarchyError reports a pair of types the hierarchy could not reconcile.
type HierarchyError struct {
	A, B reflect.Type
	Err  error
}

func (e *HierarchyError) Error() string {
	return fmt.Sprintf("%s: %v and %v", e.Err.Error(), e.A, e.B)
}

func (e *HierarchyError) Unwrap() error {
	return e.Err
}

// ResolveError represents a reconstruction failure for a specific type.
type ResolveError struct {
	Err   error  // Underlying sentinel error (ErrFactoryNotFound, etc.)
	Type  string // Qualified type name being rebuilt
	Cause error  // Original error, if any
}

func (e *ResolveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s for %s: %v", e.Err.Error(), e.Type, e.Cause)
	}
	return fmt.Sprintf("%s for %s", e.Err.Error(), e.Type)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error discovered while planning a type.
// It wraps a sentinel error with additional context about the field and option.
type ConfigError struct {
	Err    error  // Underlying sentinel error (ErrInvalidTag, etc.)
	Field  string // Field name that triggered the error
	Option string // Tag option that was invalid
}

func (e *ConfigError) Error() string {
	if e.Field != "" && e.Option != "" {
		return fmt.Sprintf("%s %q (field %s)", e.Err.Error(), e.Option, e.Field)
	}
	if e.Option != "" {
		return fmt.Sprintf("%s %q", e.Err.Error(), e.Option)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s (field %s)", e.Err.Error(), e.Field)
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrMarshal, ErrUnmarshal)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

func newFieldAccessError(field string, owner reflect.Type, cause error) error {
	return &FieldAccessError{
		Field: field,
		Type:  qualifiedName(owner),
		Cause: cause,
	}
}

func newResolveError(sentinel error, t reflect.Type, cause error) error {
	return &ResolveError{
		Err:   sentinel,
		Type:  qualifiedName(t),
		Cause: cause,
	}
}

func newConfigError(sentinel error, option, field string) error {
	return &ConfigError{
		Err:    sentinel,
		Option: option,
		Field:  field,
	}
}

func newCodecError(sentinel error, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
