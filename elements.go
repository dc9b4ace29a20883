package objgraph

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// valueKind is the walking strategy chosen for a value.
type valueKind uint8

const (
	kindNull valueKind = iota
	kindPrimitive
	kindOpaque
	kindArray
	kindIterable
	kindMap
	kindRecord
)

func (k valueKind) container() bool {
	return k == kindArray || k == kindIterable || k == kindMap
}

func (k valueKind) sequence() bool {
	return k == kindArray || k == kindIterable
}

// refKey identifies a referent by allocation: its type, its address and,
// for slices, its length.
type refKey struct {
	typ  reflect.Type
	addr uintptr
	n    int
}

// view is a value classified for walking. typ is the dynamic type the value
// was reached with (pointers included); value is what gets walked.
type view struct {
	kind   valueKind
	typ    reflect.Type
	value  reflect.Value
	key    refKey
	keyed  bool
	custom bool // described by a capability interface
}

// classify unwraps interfaces and pointers until it finds how to walk v.
func classify(v reflect.Value) view {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return view{kind: kindNull}
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return view{kind: kindNull}
	}

	vw := view{typ: v.Type()}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return view{kind: kindNull}
		}
		if v.Type().Elem().Size() > 0 {
			vw.key, vw.keyed = refKey{typ: v.Type(), addr: v.Pointer()}, true
		}
	}

	for {
		if kind, recv, ok := capability(v); ok {
			vw.kind, vw.value, vw.custom = kind, recv, true
			break
		}
		if v.Kind() != reflect.Pointer {
			vw.kind, vw.value = kindOf(v), v
			break
		}
		if v.IsNil() {
			return view{kind: kindNull}
		}
		v = v.Elem()
	}

	if vw.kind == kindNull {
		return view{kind: kindNull}
	}
	if !vw.keyed {
		vw.key, vw.keyed = addressOf(vw.value)
	}
	return vw
}

// capability reports whether v describes itself through one of the
// capability interfaces. The returned value is the receiver to call.
func capability(v reflect.Value) (valueKind, reflect.Value, bool) {
	if recv, ok := implementer(v, mappingType); ok {
		return kindMap, recv, true
	}
	if recv, ok := implementer(v, iterableType); ok {
		return kindIterable, recv, true
	}
	if recv, ok := implementer(v, textMarshaler); ok {
		return kindPrimitive, recv, true
	}
	if recv, ok := implementer(v, errorType); ok {
		return kindPrimitive, recv, true
	}
	return kindNull, reflect.Value{}, false
}

// implementer returns v, or its address, when it implements iface and can be
// called through an interface.
func implementer(v reflect.Value, iface reflect.Type) (reflect.Value, bool) {
	if v.Type().Implements(iface) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return reflect.Value{}, false
		}
		if v.CanInterface() {
			return v, true
		}
		return reflect.Value{}, false
	}
	if v.Kind() != reflect.Pointer && v.CanAddr() && reflect.PointerTo(v.Type()).Implements(iface) {
		if addr := v.Addr(); addr.CanInterface() {
			return addr, true
		}
	}
	return reflect.Value{}, false
}

func kindOf(v reflect.Value) valueKind {
	switch v.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128, reflect.String:
		return kindPrimitive
	case reflect.Array:
		return kindArray
	case reflect.Slice:
		if v.IsNil() {
			return kindNull
		}
		return kindIterable
	case reflect.Map:
		if v.IsNil() {
			return kindNull
		}
		return kindMap
	case reflect.Struct:
		return kindRecord
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if v.IsNil() {
			return kindNull
		}
		return kindOpaque
	}
	return kindNull
}

// addressOf derives an allocation key for values not reached through a pointer.
// Zero-size values may all live at one address and are never keyed.
func addressOf(v reflect.Value) (refKey, bool) {
	if v.Type().Size() == 0 {
		return refKey{}, false
	}
	if v.CanAddr() {
		return refKey{typ: v.Type(), addr: v.UnsafeAddr()}, true
	}
	switch v.Kind() {
	case reflect.Slice:
		// Empty slices may share the zero-size base address.
		if v.Len() == 0 || v.Type().Elem().Size() == 0 {
			return refKey{}, false
		}
		return refKey{typ: v.Type(), addr: v.Pointer(), n: v.Len()}, true
	case reflect.Map:
		return refKey{typ: v.Type(), addr: v.Pointer()}, true
	}
	return refKey{}, false
}

// text renders a primitive or opaque value.
func (vw view) text() (string, error) {
	switch {
	case vw.custom:
		return capabilityText(vw.value)
	case vw.kind == kindOpaque:
		return fmt.Sprintf("%#x", vw.value.Pointer()), nil
	}
	return formatBasic(vw.value), nil
}

func capabilityText(v reflect.Value) (string, error) {
	switch x := v.Interface().(type) {
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return "", err
		}
		return string(b), nil
	case error:
		return x.Error(), nil
	}
	return fmt.Sprint(v.Interface()), nil
}

func formatBasic(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Complex64:
		return strconv.FormatComplex(v.Complex(), 'g', -1, 64)
	case reflect.Complex128:
		return strconv.FormatComplex(v.Complex(), 'g', -1, 128)
	case reflect.String:
		return v.String()
	}
	return v.Type().String()
}

// contents materializes a container: keys are only set for maps.
// Go maps are ordered by the textual form of their keys.
func (vw view) contents() (keys, values []reflect.Value) {
	v := vw.value
	switch {
	case vw.custom && vw.kind == kindMap:
		for _, e := range v.Interface().(Mapping).Entries() {
			keys = append(keys, reflect.ValueOf(e.Key))
			values = append(values, reflect.ValueOf(e.Value))
		}
	case vw.custom && vw.kind == kindIterable:
		for _, e := range v.Interface().(Iterable).Elements() {
			values = append(values, reflect.ValueOf(e))
		}
	case vw.kind.sequence():
		values = make([]reflect.Value, v.Len())
		for i := range values {
			values[i] = v.Index(i)
		}
	case vw.kind == kindMap:
		keys = v.MapKeys()
		sortKeys(keys)
		values = make([]reflect.Value, len(keys))
		for i, k := range keys {
			values[i] = v.MapIndex(k)
		}
	}
	return keys, values
}

// empty reports whether a container or record has nothing to walk.
func (vw view) empty(fields int) bool {
	switch {
	case vw.kind == kindRecord:
		return fields == 0
	case vw.custom:
		_, values := vw.contents()
		return len(values) == 0
	case vw.kind.container():
		return vw.value.Len() == 0
	}
	return true
}

// staticElems returns the declared element types of a Go array, slice or map.
// Custom containers have none.
func (vw view) staticElems() []reflect.Type {
	if vw.custom {
		return nil
	}
	return staticTypes(vw.value.Type())
}

// staticTypes returns the element types declared by t, dereferencing pointers.
func staticTypes(t reflect.Type) []reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return nil
	}
	switch t.Kind() {
	case reflect.Array, reflect.Slice, reflect.Chan:
		return []reflect.Type{t.Elem()}
	case reflect.Map:
		return []reflect.Type{t.Key(), t.Elem()}
	}
	return nil
}

func sortKeys(keys []reflect.Value) {
	text := make([]string, len(keys))
	for i, k := range keys {
		text[i] = keyText(k)
	}
	sort.Sort(keySorter{text, keys})
}

func keyText(k reflect.Value) string {
	if k.CanInterface() {
		return fmt.Sprint(k.Interface())
	}
	if kindOf(k) == kindPrimitive {
		return formatBasic(k)
	}
	return k.Type().String()
}

type keySorter struct {
	text []string
	keys []reflect.Value
}

func (s keySorter) Len() int           { return len(s.text) }
func (s keySorter) Less(i, j int) bool { return s.text[i] < s.text[j] }
func (s keySorter) Swap(i, j int) {
	s.text[i], s.text[j] = s.text[j], s.text[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}
