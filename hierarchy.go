package objgraph

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
)

var (
	anyType       = reflect.TypeFor[any]()
	errorType     = reflect.TypeFor[error]()
	iterableType  = reflect.TypeFor[Iterable]()
	mappingType   = reflect.TypeFor[Mapping]()
	textMarshaler = reflect.TypeFor[encoding.TextMarshaler]()
)

// basicTypes maps each basic kind to its predeclared type, used as the
// underlying ancestor of defined types such as `type Celsius float64`.
var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:       reflect.TypeFor[bool](),
	reflect.Int:        reflect.TypeFor[int](),
	reflect.Int8:       reflect.TypeFor[int8](),
	reflect.Int16:      reflect.TypeFor[int16](),
	reflect.Int32:      reflect.TypeFor[int32](),
	reflect.Int64:      reflect.TypeFor[int64](),
	reflect.Uint:       reflect.TypeFor[uint](),
	reflect.Uint8:      reflect.TypeFor[uint8](),
	reflect.Uint16:     reflect.TypeFor[uint16](),
	reflect.Uint32:     reflect.TypeFor[uint32](),
	reflect.Uint64:     reflect.TypeFor[uint64](),
	reflect.Uintptr:    reflect.TypeFor[uintptr](),
	reflect.Float32:    reflect.TypeFor[float32](),
	reflect.Float64:    reflect.TypeFor[float64](),
	reflect.Complex64:  reflect.TypeFor[complex64](),
	reflect.Complex128: reflect.TypeFor[complex128](),
	reflect.String:     reflect.TypeFor[string](),
}

// Hierarchy answers type-hierarchy questions: ancestor chains and common
// ancestors of two types.
//
// Go has no class inheritance, so a type's ancestors are its underlying
// unnamed type followed by the registered interfaces it implements, most
// specific first. A Hierarchy is immutable after construction and safe for
// concurrent use.
type Hierarchy struct {
	root       reflect.Type
	interfaces []reflect.Type
}

// HierarchyOption configures a Hierarchy.
type HierarchyOption func(*Hierarchy)

// WithInterfaces registers additional interface types as ancestors.
// Non-interface types are ignored.
func WithInterfaces(types ...reflect.Type) HierarchyOption {
	return func(h *Hierarchy) {
		for _, t := range types {
			if t == nil || t.Kind() != reflect.Interface || t == h.root {
				continue
			}
			if !containsType(h.interfaces, t) {
				h.interfaces = append(h.interfaces, t)
			}
		}
	}
}

// WithRoot replaces the universal root type (any by default).
func WithRoot(t reflect.Type) HierarchyOption {
	return func(h *Hierarchy) {
		if t != nil {
			h.root = t
		}
	}
}

// NewHierarchy creates a hierarchy with the given options.
// Without options only the root is known.
func NewHierarchy(opts ...HierarchyOption) *Hierarchy {
	h := &Hierarchy{root: anyType}
	for _, opt := range opts {
		opt(h)
	}
	// More methods means more specific; registration order breaks ties.
	sort.SliceStable(h.interfaces, func(i, j int) bool {
		return h.interfaces[i].NumMethod() > h.interfaces[j].NumMethod()
	})
	return h
}

var defaultHierarchy = NewHierarchy(WithInterfaces(
	mappingType,
	iterableType,
	errorType,
	reflect.TypeFor[fmt.Stringer](),
	textMarshaler,
	reflect.TypeFor[encoding.BinaryMarshaler](),
))

// DefaultHierarchy returns the shared hierarchy used by package-level helpers.
func DefaultHierarchy() *Hierarchy {
	return defaultHierarchy
}

// Root returns the universal root type.
func (h *Hierarchy) Root() reflect.Type {
	return h.root
}

// Ancestors returns t followed by its ancestors from most derived to most
// general, stopping before the root.
func (h *Hierarchy) Ancestors(t reflect.Type) []reflect.Type {
	if t == nil || t == h.root {
		return nil
	}
	chain := []reflect.Type{t}
	if u := underlying(t); u != nil && u != t {
		chain = append(chain, u)
	}
	for _, iface := range h.interfaces {
		if iface != t && t.Implements(iface) {
			chain = append(chain, iface)
		}
	}
	return chain
}

// CommonAncestor returns the most specific type both a and b belong to.
// A nil argument yields the other type.
func (h *Hierarchy) CommonAncestor(a, b reflect.Type) (reflect.Type, error) {
	switch {
	case a == nil:
		return b, nil
	case b == nil, a == b:
		return a, nil
	case h.isAncestor(b, a):
		return b, nil
	case h.isAncestor(a, b):
		return a, nil
	}

	left, right := h.Ancestors(a), h.Ancestors(b)
	for i := 0; i < len(left) || i < len(right); i++ {
		if i < len(left) && containsType(right, left[i]) {
			return left[i], nil
		}
		if i < len(right) && containsType(left, right[i]) {
			return right[i], nil
		}
	}

	if a.AssignableTo(h.root) && b.AssignableTo(h.root) {
		return h.root, nil
	}
	return nil, &HierarchyError{A: a, B: b, Err: ErrNoCommonAncestor}
}

// CommonClassOf folds CommonAncestor over the dynamic types of values.
// Invalid (nil) values are skipped; an empty input yields nil.
func (h *Hierarchy) CommonClassOf(values []reflect.Value) (reflect.Type, error) {
	var common reflect.Type
	for _, v := range values {
		t := dynamicType(v)
		if t == nil {
			continue
		}
		next, err := h.CommonAncestor(common, t)
		if err != nil {
			return nil, err
		}
		common = next
	}
	return common, nil
}

// isAncestor reports whether anc is t's root, underlying type or an
// interface t implements.
func (h *Hierarchy) isAncestor(anc, t reflect.Type) bool {
	if anc == h.root {
		return t.AssignableTo(anc)
	}
	if anc.Kind() == reflect.Interface {
		return t.Implements(anc)
	}
	return underlying(t) == anc
}

// CommonAncestor returns the common ancestor of a and b in the default hierarchy.
func CommonAncestor(a, b reflect.Type) (reflect.Type, error) {
	return defaultHierarchy.CommonAncestor(a, b)
}

// Ancestors returns the ancestor chain of t in the default hierarchy.
func Ancestors(t reflect.Type) []reflect.Type {
	return defaultHierarchy.Ancestors(t)
}

// underlying returns the unnamed type a defined type is declared over, or
// nil when it cannot be expressed (structs, funcs, interfaces).
func underlying(t reflect.Type) reflect.Type {
	if t.Name() == "" {
		return nil
	}
	if basic, ok := basicTypes[t.Kind()]; ok {
		return basic
	}
	switch t.Kind() {
	case reflect.Slice:
		return reflect.SliceOf(t.Elem())
	case reflect.Array:
		return reflect.ArrayOf(t.Len(), t.Elem())
	case reflect.Map:
		return reflect.MapOf(t.Key(), t.Elem())
	case reflect.Pointer:
		return reflect.PointerTo(t.Elem())
	case reflect.Chan:
		return reflect.ChanOf(t.ChanDir(), t.Elem())
	}
	return nil
}

// dynamicType returns the concrete type behind v, unwrapping interfaces.
func dynamicType(v reflect.Value) reflect.Type {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}
	return v.Type()
}

func containsType(types []reflect.Type, t reflect.Type) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
