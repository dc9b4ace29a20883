package objgraph

import (
	"reflect"
	"strconv"
	"strings"
)

// qualifiedName returns the fully qualified name of t: the import path plus
// the type name for defined types, composed recursively for pointers,
// slices, arrays and maps.
func qualifiedName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name() != "" {
		if pkg := t.PkgPath(); pkg != "" {
			return pkg + "." + t.Name()
		}
		return t.Name()
	}
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + qualifiedName(t.Elem())
	case reflect.Slice:
		return "[]" + qualifiedName(t.Elem())
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + qualifiedName(t.Elem())
	case reflect.Map:
		return "map[" + qualifiedName(t.Key()) + "]" + qualifiedName(t.Elem())
	}
	return t.String()
}

// QualifiedName exposes the naming used in identity strings and shapes.
func QualifiedName(t reflect.Type) string {
	return qualifiedName(t)
}

// TypeNameOf extracts the qualified type name from an identity string,
// dropping the element fragment and the address.
func TypeNameOf(id string) string {
	if i := strings.LastIndexByte(id, '@'); i >= 0 {
		id = id[:i]
	}
	if !strings.HasSuffix(id, ">") {
		return id
	}
	depth := 0
	for i := len(id) - 1; i >= 0; i-- {
		switch id[i] {
		case '>':
			depth++
		case '<':
			depth--
			if depth == 0 {
				return id[:i]
			}
		}
	}
	return id
}

func joinNames(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = qualifiedName(t)
	}
	return strings.Join(names, ",")
}
