package objgraph

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var textUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()

// Rebuild reconstructs a value of type target from n.
//
// Reconstruction is best-effort: sanitized, truncated or opaque values cannot
// be restored, and Iterable/Mapping types need a registered builder or
// heuristics. Ref nodes are resolved against objects rebuilt earlier in the
// same call, so pointer cycles survive a round trip.
func (r *Resolver) Rebuild(ctx context.Context, n *Node, target reflect.Type) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, invalidArgument("rebuild target is nil")
	}
	rb := &rebuilder{resolver: r, cache: make(map[string]reflect.Value)}
	session := uuid.NewString()
	typeName := qualifiedName(target)
	start := time.Now()
	emitRebuildStart(ctx, session, typeName)

	v, err := rb.value(n, target)

	emitRebuildComplete(ctx, session, typeName, rb.nodes, time.Since(start), err)
	if err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

// RebuildAs reconstructs a T from n.
func RebuildAs[T any](ctx context.Context, r *Resolver, n *Node) (T, error) {
	var zero T
	v, err := r.Rebuild(ctx, n, reflect.TypeFor[T]())
	if err != nil || !v.IsValid() {
		return zero, err
	}
	out, _ := v.Interface().(T)
	return out, nil
}

// rebuilder is the state of one Rebuild call: id to rebuilt value.
type rebuilder struct {
	resolver *Resolver
	cache    map[string]reflect.Value
	nodes    int
}

func (rb *rebuilder) remember(id string, v reflect.Value) {
	if id != "" {
		rb.cache[id] = v
	}
}

// value returns a new value of type t built from n.
func (rb *rebuilder) value(n *Node, t reflect.Type) (reflect.Value, error) {
	if n == nil || n.Kind == KindNull {
		return reflect.Zero(t), nil
	}
	switch {
	case n.Kind == KindRef:
		rb.nodes++
		return rb.reference(n, t)
	case t.Kind() == reflect.Interface:
		return rb.dynamic(n, t)
	case rb.custom(t):
		rb.nodes++
		return rb.container(n, t)
	case t.Kind() == reflect.Pointer:
		p := reflect.New(t.Elem())
		rb.remember(n.ID, p)
		if err := rb.fill(n, p.Elem()); err != nil {
			return reflect.Value{}, err
		}
		return p, nil
	}
	dst := reflect.New(t).Elem()
	rb.remember(n.ID, dst)
	if err := rb.fill(n, dst); err != nil {
		return reflect.Value{}, err
	}
	return dst, nil
}

// fill writes n into the settable dst.
func (rb *rebuilder) fill(n *Node, dst reflect.Value) error {
	t := dst.Type()
	if n == nil || n.Kind == KindNull {
		dst.Set(reflect.Zero(t))
		return nil
	}
	if n.Kind == KindRef || t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface || rb.custom(t) {
		v, err := rb.value(n, t)
		if err != nil {
			return err
		}
		dst.Set(v)
		return nil
	}
	rb.nodes++

	if n.Kind == KindPrimitive {
		return rb.primitive(n, dst)
	}

	switch t.Kind() {
	case reflect.Struct:
		return rb.record(n, dst)
	case reflect.Slice:
		s := reflect.MakeSlice(t, len(n.Elements), len(n.Elements))
		rb.remember(n.ID, s)
		for i, e := range n.Elements {
			if err := rb.fill(e, s.Index(i)); err != nil {
				return err
			}
		}
		dst.Set(s)
	case reflect.Array:
		for i, e := range n.Elements {
			if i >= t.Len() {
				break
			}
			if err := rb.fill(e, dst.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		m := reflect.MakeMapWithSize(t, len(n.Entries))
		rb.remember(n.ID, m)
		for _, p := range n.Entries {
			k, err := rb.value(p.Key, t.Key())
			if err != nil {
				return err
			}
			if !k.Comparable() {
				return mismatch(p.Key, t.Key())
			}
			v, err := rb.value(p.Value, t.Elem())
			if err != nil {
				return err
			}
			m.SetMapIndex(k, v)
		}
		dst.Set(m)
	default:
		return mismatch(n, t)
	}
	return nil
}

func (rb *rebuilder) record(n *Node, dst reflect.Value) error {
	refs, err := rb.resolver.intro.FieldsOf(dst.Type())
	if err != nil {
		return err
	}
	byName := make(map[string]*FieldRef, len(refs))
	for i := range refs {
		byName[refs[i].Name] = &refs[i]
	}
	for _, f := range n.Fields {
		ref, ok := byName[f.Name]
		if !ok {
			continue
		}
		fv := fieldForWrite(dst, ref.Index)
		if !fv.IsValid() || !fv.CanSet() {
			continue
		}
		if err := rb.fill(f.Node, fv); err != nil {
			return err
		}
	}
	return nil
}

// fieldForWrite walks an index path, allocating nil embedded pointers.
func fieldForWrite(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

func (rb *rebuilder) primitive(n *Node, dst reflect.Value) error {
	text := n.Text()
	t := dst.Type()

	if t.Implements(textMarshaler) || reflect.PointerTo(t).Implements(textMarshaler) {
		if u, ok := dst.Addr().Interface().(encoding.TextUnmarshaler); ok {
			if err := u.UnmarshalText([]byte(text)); err != nil {
				return newResolveError(ErrInvalidArgument, t, err)
			}
			return nil
		}
	}

	var err error
	switch t.Kind() {
	case reflect.String:
		dst.SetString(text)
	case reflect.Bool:
		var b bool
		if b, err = strconv.ParseBool(text); err == nil {
			dst.SetBool(b)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var i int64
		if i, err = strconv.ParseInt(text, 10, t.Bits()); err == nil {
			dst.SetInt(i)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		var u uint64
		if u, err = strconv.ParseUint(text, 10, t.Bits()); err == nil {
			dst.SetUint(u)
		}
	case reflect.Float32, reflect.Float64:
		var f float64
		if f, err = strconv.ParseFloat(text, t.Bits()); err == nil {
			dst.SetFloat(f)
		}
	case reflect.Complex64, reflect.Complex128:
		var c complex128
		if c, err = strconv.ParseComplex(text, t.Bits()); err == nil {
			dst.SetComplex(c)
		}
	default:
		return mismatch(n, t)
	}
	if err != nil {
		return newResolveError(ErrInvalidArgument, t, err)
	}
	return nil
}

// reference resolves a ref node against the values rebuilt so far.
func (rb *rebuilder) reference(n *Node, t reflect.Type) (reflect.Value, error) {
	v, ok := rb.cache[n.ID]
	if !ok {
		return reflect.Value{}, newResolveError(ErrUnresolvedReference, t, fmt.Errorf("id %s", n.ID))
	}
	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case v.Kind() == reflect.Pointer && v.Type().Elem().AssignableTo(t):
		return v.Elem(), nil
	case t.Kind() == reflect.Pointer && v.CanAddr() && v.Type().AssignableTo(t.Elem()):
		return v.Addr(), nil
	}
	return reflect.Value{}, newResolveError(ErrUnresolvedReference, t,
		fmt.Errorf("id %s holds %s", n.ID, qualifiedName(v.Type())))
}

// dynamic rebuilds a node stored in an interface-typed slot. The concrete
// type comes from the identity string when the resolver knows it; otherwise
// generic containers are used.
func (rb *rebuilder) dynamic(n *Node, t reflect.Type) (reflect.Value, error) {
	if concrete, ok := rb.resolver.lookupType(TypeNameOf(n.ID)); ok && concrete.AssignableTo(t) {
		v, err := rb.value(n, concrete)
		if err != nil {
			return reflect.Value{}, err
		}
		return convertTo(v, t), nil
	}
	if t == errorType && n.Kind == KindPrimitive {
		return convertTo(reflect.ValueOf(errors.New(n.Text())), t), nil
	}
	if t.NumMethod() > 0 {
		return reflect.Value{}, newResolveError(ErrFactoryNotFound, t,
			fmt.Errorf("type %s is not registered", TypeNameOf(n.ID)))
	}

	if len(n.Fields) > 0 {
		return rb.fieldsAsMap(n, t)
	}
	var generic reflect.Type
	switch {
	case n.Kind == KindPrimitive:
		generic = reflect.TypeFor[string]()
	case len(n.Elements) > 0:
		generic = reflect.TypeFor[[]any]()
	case len(n.Entries) > 0 && stringKeys(n.Entries):
		generic = reflect.TypeFor[map[string]any]()
	case len(n.Entries) > 0:
		generic = reflect.TypeFor[map[any]any]()
	default:
		generic = reflect.TypeFor[map[string]any]()
	}
	v, err := rb.value(n, generic)
	if err != nil {
		return reflect.Value{}, err
	}
	return convertTo(v, t), nil
}

func (rb *rebuilder) fieldsAsMap(n *Node, t reflect.Type) (reflect.Value, error) {
	rb.nodes++
	m := make(map[string]any, len(n.Fields))
	mv := reflect.ValueOf(m)
	rb.remember(n.ID, mv)
	for _, f := range n.Fields {
		v, err := rb.value(f.Node, anyType)
		if err != nil {
			return reflect.Value{}, err
		}
		mv.SetMapIndex(reflect.ValueOf(f.Name), convertTo(v, anyType))
	}
	return convertTo(mv, t), nil
}

func stringKeys(entries []Pair) bool {
	for _, p := range entries {
		if p.Key == nil || p.Key.Kind != KindPrimitive {
			return false
		}
	}
	return true
}

// convertTo wraps v in the interface type t.
func convertTo(v reflect.Value, t reflect.Type) reflect.Value {
	if !v.IsValid() {
		return reflect.Zero(t)
	}
	if v.Type() == t {
		return v
	}
	out := reflect.New(t).Elem()
	out.Set(v)
	return out
}

// custom reports whether t is rebuilt through a builder or filling method
// rather than by kind.
func (rb *rebuilder) custom(t reflect.Type) bool {
	if rb.resolver.builder(t) != nil {
		return true
	}
	if t.Kind() == reflect.Interface {
		return false
	}
	implements := func(iface reflect.Type) bool {
		return t.Implements(iface) || reflect.PointerTo(t).Implements(iface)
	}
	if !implements(iterableType) && !implements(mappingType) {
		return false
	}
	switch derefType(t).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return false
	}
	return true
}

// container rebuilds an Iterable or Mapping: an empty instance from the
// factory, then one fill call per element or entry.
func (rb *rebuilder) container(n *Node, t reflect.Type) (reflect.Value, error) {
	if n.Kind != KindObject {
		return reflect.Value{}, mismatch(n, t)
	}
	factory, err := rb.resolver.FindFactory(t)
	if err != nil {
		return reflect.Value{}, err
	}
	c, err := factory()
	if err != nil {
		return reflect.Value{}, newResolveError(ErrFactoryNotFound, t, err)
	}
	rb.remember(n.ID, c)

	groups := make([][]*Node, 0, len(n.Elements)+len(n.Entries))
	for _, e := range n.Elements {
		groups = append(groups, []*Node{e})
	}
	for _, p := range n.Entries {
		groups = append(groups, []*Node{p.Key, p.Value})
	}
	if len(groups) == 0 {
		return c, nil
	}

	var f filler
	var first []reflect.Value
	if b := rb.resolver.builder(t); b != nil {
		f = b
	} else {
		// Without declared parameter types the first arguments are decoded
		// by their identity strings and used to discover the method.
		if first, err = rb.args(groups[0], nil); err != nil {
			return reflect.Value{}, err
		}
		if f, err = rb.resolver.fillerFor(t, first); err != nil {
			return reflect.Value{}, err
		}
	}

	for i, g := range groups {
		args := first
		if i > 0 || args == nil {
			if args, err = rb.args(g, f); err != nil {
				return reflect.Value{}, err
			}
		}
		if c, err = f.fill(c, args); err != nil {
			return reflect.Value{}, newResolveError(ErrFillingMethodNotFound, t, err)
		}
	}
	rb.remember(n.ID, c)
	return c, nil
}

// args rebuilds a group of nodes as call arguments typed after f's
// parameters, or as any without a filler.
func (rb *rebuilder) args(group []*Node, f filler) ([]reflect.Value, error) {
	out := make([]reflect.Value, len(group))
	for i, node := range group {
		t := anyType
		if f != nil {
			t = f.paramType(i)
		}
		v, err := rb.value(node, t)
		if err != nil {
			return nil, err
		}
		out[i] = unwrapInterface(v)
	}
	return out, nil
}

func mismatch(n *Node, t reflect.Type) error {
	return newResolveError(ErrInvalidArgument, t, fmt.Errorf("cannot rebuild %s node %s", n.Kind, n.ID))
}
