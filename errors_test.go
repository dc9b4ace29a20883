package objgraph

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestConfigError_Message(t *testing.T) {
	tests := []struct {
		err  *ConfigError
		want string
	}{
		{&ConfigError{Err: ErrInvalidTag, Field: "Email", Option: "mask=x"}, `invalid tag "mask=x" (field Email)`},
		{&ConfigError{Err: ErrInvalidTag, Option: "mask=x"}, `invalid tag "mask=x"`},
		{&ConfigError{Err: ErrInvalidTag, Field: "Email"}, "invalid tag (field Email)"},
		{&ConfigError{Err: ErrInvalidTag}, "invalid tag"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
		if !errors.Is(tt.err, ErrInvalidTag) {
			t.Error("ConfigError should unwrap to its sentinel")
		}
	}
}

func TestFieldAccessError(t *testing.T) {
	type owner struct{}
	cause := errors.New("nil embedded pointer")
	err := newFieldAccessError("Inner", reflect.TypeFor[owner](), cause)

	if !errors.Is(err, ErrFieldAccess) {
		t.Error("FieldAccessError should match ErrFieldAccess")
	}
	var fae *FieldAccessError
	if !errors.As(err, &fae) {
		t.Fatal("errors.As should find FieldAccessError")
	}
	if fae.Field != "Inner" || !strings.HasSuffix(fae.Type, ".owner") {
		t.Errorf("FieldAccessError = %+v", fae)
	}
	if !strings.Contains(err.Error(), "nil embedded pointer") {
		t.Errorf("Error() = %q, want cause", err.Error())
	}
}

func TestResolveError(t *testing.T) {
	err := newResolveError(ErrFactoryNotFound, reflect.TypeFor[fmt.Stringer](), nil)
	if !errors.Is(err, ErrFactoryNotFound) {
		t.Error("ResolveError should unwrap to its sentinel")
	}
	if got := err.Error(); got != "factory not found for fmt.Stringer" {
		t.Errorf("Error() = %q", got)
	}

	withCause := newResolveError(ErrFillingMethodNotFound, reflect.TypeFor[int](), errors.New("panicked"))
	if got := withCause.Error(); got != "filling method not found for int: panicked" {
		t.Errorf("Error() = %q", got)
	}
}

func TestHierarchyError(t *testing.T) {
	err := &HierarchyError{A: reflect.TypeFor[int](), B: reflect.TypeFor[string](), Err: ErrNoCommonAncestor}
	if !errors.Is(err, ErrNoCommonAncestor) {
		t.Error("HierarchyError should unwrap to its sentinel")
	}
	if got := err.Error(); got != "no common ancestor: int and string" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCodecError(t *testing.T) {
	err := newCodecError(ErrUnmarshal, errors.New("bad input"))
	if !errors.Is(err, ErrUnmarshal) {
		t.Error("CodecError should unwrap to its sentinel")
	}
	if got := err.Error(); got != "unmarshal failed: bad input" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&CodecError{Err: ErrMarshal}).Error(); got != "marshal failed" {
		t.Errorf("Error() = %q", got)
	}
}

func TestInvalidArgument(t *testing.T) {
	err := invalidArgument("max depth must be at least 1, got %d", 0)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Error("invalidArgument should wrap ErrInvalidArgument")
	}
	if got := err.Error(); got != "invalid argument: max depth must be at least 1, got 0" {
		t.Errorf("Error() = %q", got)
	}
}
