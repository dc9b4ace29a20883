package objgraph

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/zoobzio/sentinel"
)

func init() {
	sentinel.Tag("graph")
}

// FieldRef describes one walkable field of a struct type, including fields
// promoted from embedded structs.
type FieldRef struct {
	Name     string       // Output name (graph tag name or Go name)
	GoName   string       // Name as declared
	Owner    reflect.Type // Struct type the field was planned for
	Type     reflect.Type // Declared field type
	Index    []int        // Index path from Owner, for FieldByIndex
	Exported bool
	Sanitize *Sanitizer // nil when the field is emitted as is
}

// ValueOf reads the field from a struct value of the owner type, following
// pointers to it. A nil embedded pointer on the path yields the invalid
// Value, which walks as null. A value of another type fails with a
// FieldAccessError.
func (f *FieldRef) ValueOf(v reflect.Value) (reflect.Value, error) {
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, nil
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Type() != f.Owner {
		return reflect.Value{}, newFieldAccessError(f.GoName, f.Owner, fmt.Errorf("value is not a %s", qualifiedName(f.Owner)))
	}
	for i, x := range f.Index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, nil
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, nil
}

type fieldPlan struct {
	fields []FieldRef
	err    error
}

// Introspector enumerates struct fields and element types. Plans are computed
// once per type and cached, so an Introspector is safe for concurrent use.
type Introspector struct {
	hierarchy  *Hierarchy
	unexported bool

	mu    sync.RWMutex
	plans map[reflect.Type]*fieldPlan
}

// NewIntrospector creates an introspector. With unexported set, unexported
// fields are walked too.
func NewIntrospector(h *Hierarchy, unexported bool) *Introspector {
	if h == nil {
		h = defaultHierarchy
	}
	return &Introspector{
		hierarchy:  h,
		unexported: unexported,
		plans:      make(map[reflect.Type]*fieldPlan),
	}
}

// Fields returns the walkable fields of v's struct type (pointers are
// dereferenced). Non-struct values have no fields.
func (in *Introspector) Fields(v any) ([]FieldRef, error) {
	return in.FieldsOf(reflect.TypeOf(v))
}

// FieldsOf returns the walkable fields of t, most derived first: declared
// fields, then fields promoted from embedded structs. Fields tagged
// `graph:"-"` and blank fields are excluded.
func (in *Introspector) FieldsOf(t reflect.Type) ([]FieldRef, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, nil
	}

	in.mu.RLock()
	if p, ok := in.plans[t]; ok {
		in.mu.RUnlock()
		return p.fields, p.err
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if p, ok := in.plans[t]; ok {
		return p.fields, p.err
	}

	p := &fieldPlan{}
	b := planBuilder{in: in, owner: t, seen: map[string]bool{}, path: map[reflect.Type]bool{}}
	if p.err = b.collect(t, nil); p.err == nil {
		p.fields = b.fields
	}
	in.plans[t] = p
	return p.fields, p.err
}

type planBuilder struct {
	in     *Introspector
	owner  reflect.Type
	fields []FieldRef
	seen   map[string]bool // output names and Go names already taken
	path   map[reflect.Type]bool
}

type embedding struct {
	typ   reflect.Type
	index []int
}

func (b *planBuilder) collect(t reflect.Type, prefix []int) error {
	if b.path[t] {
		return nil
	}
	b.path[t] = true
	defer delete(b.path, t)

	var embedded []embedding
	for _, fm := range b.in.metadata(t).Fields {
		if len(fm.Index) == 0 {
			continue
		}
		sf := t.FieldByIndex(fm.Index)
		if sf.Name == "_" {
			continue
		}
		name, opts := parseGraphTag(fm.Tags["graph"])
		if name == "-" && len(opts) == 0 {
			continue
		}
		index := append(append([]int{}, prefix...), sf.Index...)

		if sf.Anonymous && name == "" {
			et := sf.Type
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct {
				embedded = append(embedded, embedding{typ: et, index: index})
				continue
			}
		}
		if !sf.IsExported() && !b.in.unexported {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		// Shallower fields shadow promoted ones by Go name, as in Go itself.
		if b.seen[name] || b.seen["."+sf.Name] {
			continue
		}
		b.seen[name] = true
		b.seen["."+sf.Name] = true

		san, err := parseSanitizer(sf.Name, opts)
		if err != nil {
			return err
		}
		b.fields = append(b.fields, FieldRef{
			Name:     name,
			GoName:   sf.Name,
			Owner:    b.owner,
			Type:     sf.Type,
			Index:    index,
			Exported: sf.IsExported(),
			Sanitize: san,
		})
	}

	for _, e := range embedded {
		if err := b.collect(e.typ, e.index); err != nil {
			return err
		}
	}
	return nil
}

// metadata returns sentinel's view of a struct type. Types sentinel has
// already scanned are reused unless unexported fields are wanted, which
// sentinel does not report.
func (in *Introspector) metadata(rt reflect.Type) sentinel.Metadata {
	if !in.unexported {
		if meta, ok := sentinel.Lookup(rt.String()); ok && meta.PackageName == rt.PkgPath() {
			return meta
		}
	}

	meta := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        map[string]string{},
		}
		if tag, ok := sf.Tag.Lookup("graph"); ok {
			fm.Tags["graph"] = tag
		}
		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Pointer:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}
		meta.Fields = append(meta.Fields, fm)
	}
	return meta
}

// ElementTypes returns the representative element types of a container,
// derived either from a declared field type or from a sample value. Exactly
// one of field and sample must be given.
//
// Slices, arrays and Iterables yield one type, maps and Mappings yield a key
// type and a value type, and anything else yields none. With a sample the
// element type is the common ancestor of the element values' dynamic types,
// falling back to the declared element type (or the root) when there are no
// elements.
func (in *Introspector) ElementTypes(field *FieldRef, sample reflect.Value) ([]reflect.Type, error) {
	switch {
	case field == nil && !sample.IsValid():
		return nil, invalidArgument("element types need a field or a sample")
	case field != nil && sample.IsValid():
		return nil, invalidArgument("element types take a field or a sample, not both")
	case field != nil:
		return staticTypes(field.Type), nil
	}
	return in.sampledTypes(classify(sample))
}

func (in *Introspector) sampledTypes(vw view) ([]reflect.Type, error) {
	if !vw.kind.container() {
		return nil, nil
	}
	static := vw.staticElems()
	if len(static) > 0 && !needsSampling(static) {
		return static, nil
	}

	keys, values := vw.contents()
	if vw.kind == kindMap {
		kt, err := in.representative(keys, staticAt(static, 0))
		if err != nil {
			return nil, err
		}
		vt, err := in.representative(values, staticAt(static, 1))
		if err != nil {
			return nil, err
		}
		return []reflect.Type{kt, vt}, nil
	}
	et, err := in.representative(values, staticAt(static, 0))
	if err != nil {
		return nil, err
	}
	return []reflect.Type{et}, nil
}

func (in *Introspector) representative(values []reflect.Value, static reflect.Type) (reflect.Type, error) {
	t, err := in.hierarchy.CommonClassOf(values)
	if err != nil {
		return nil, err
	}
	switch {
	case t != nil:
		return t, nil
	case static != nil:
		return static, nil
	}
	return in.hierarchy.Root(), nil
}

// needsSampling reports whether any declared element type is an interface,
// the only case where element values can have other dynamic types.
func needsSampling(types []reflect.Type) bool {
	for _, t := range types {
		if t.Kind() == reflect.Interface {
			return true
		}
	}
	return false
}

func staticAt(types []reflect.Type, i int) reflect.Type {
	if i < len(types) {
		return types[i]
	}
	return nil
}
