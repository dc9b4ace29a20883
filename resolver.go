package objgraph

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Factory produces a fresh, empty instance of a type.
type Factory func() (reflect.Value, error)

// filler inserts one element (or one key/value pair) into a container and
// returns the container to keep using.
type filler interface {
	paramType(i int) reflect.Type
	fill(container reflect.Value, args []reflect.Value) (reflect.Value, error)
}

// builder is an explicitly registered way to construct and fill a container.
type builder struct {
	create func() reflect.Value
	types  []reflect.Type
	add    func(c reflect.Value, args []reflect.Value) reflect.Value
}

func (b *builder) paramType(i int) reflect.Type {
	if i < len(b.types) {
		return b.types[i]
	}
	return anyType
}

func (b *builder) fill(c reflect.Value, args []reflect.Value) (out reflect.Value, err error) {
	defer recoverCall(&err)
	return b.add(c, args), nil
}

// FillingMethod is a method found to insert its arguments into a container.
type FillingMethod struct {
	Method reflect.Method // Method of Target, or of *Target for value types
	Target reflect.Type

	// Builder is set for methods that return the updated container instead
	// of modifying the receiver.
	Builder bool
}

// paramType returns the type the i-th argument is passed as, mapping
// variadic arguments to the element type.
func (m *FillingMethod) paramType(i int) reflect.Type {
	ft := m.Method.Type
	p := i + 1
	switch {
	case ft.IsVariadic() && p >= ft.NumIn()-1:
		return ft.In(ft.NumIn() - 1).Elem()
	case p < ft.NumIn():
		return ft.In(p)
	}
	return anyType
}

func (m *FillingMethod) fill(c reflect.Value, args []reflect.Value) (reflect.Value, error) {
	return m.Fill(c, args...)
}

// Fill calls the method on container with args and returns the container
// holding the new element. Panics raised by the method are returned as errors.
func (m *FillingMethod) Fill(container reflect.Value, args ...reflect.Value) (out reflect.Value, err error) {
	defer recoverCall(&err)

	recv, read := receiver(m.Target, container)
	in := append([]reflect.Value{recv}, callArgs(m.Method.Type, args)...)
	results := m.Method.Func.Call(in)
	if m.Builder {
		return results[0], nil
	}
	return read(), nil
}

// receiver returns a value the method set of t can be called on, and a
// function reading the possibly modified container back.
func receiver(t reflect.Type, container reflect.Value) (reflect.Value, func() reflect.Value) {
	if t.Kind() == reflect.Pointer {
		return container, func() reflect.Value { return container }
	}
	holder := reflect.New(t)
	holder.Elem().Set(container)
	return holder, holder.Elem
}

// callArgs replaces nil arguments with zero values of the declared parameter.
func callArgs(ft reflect.Type, args []reflect.Value) []reflect.Value {
	out := make([]reflect.Value, len(args))
	for i, a := range args {
		if a.IsValid() {
			out[i] = a
			continue
		}
		p := i + 1
		if ft.IsVariadic() && p >= ft.NumIn()-1 {
			out[i] = reflect.Zero(ft.In(ft.NumIn() - 1).Elem())
			continue
		}
		out[i] = reflect.Zero(ft.In(p))
	}
	return out
}

func recoverCall(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("call panicked: %v", r)
	}
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHeuristics enables behavioural discovery of factories and filling
// methods for container types that have no registered builder.
func WithHeuristics() ResolverOption {
	return func(r *Resolver) { r.heuristics = true }
}

// WithResolverHierarchy replaces the hierarchy used to match arguments.
func WithResolverHierarchy(h *Hierarchy) ResolverOption {
	return func(r *Resolver) {
		if h != nil {
			r.hierarchy = h
		}
	}
}

// Resolver rebuilds values from node trees. Registrations may happen at any
// time; a Resolver is safe for concurrent use.
type Resolver struct {
	hierarchy  *Hierarchy
	intro      *Introspector
	heuristics bool

	mu       sync.RWMutex
	builders map[reflect.Type]*builder
	types    map[string]reflect.Type
	methods  map[methodKey]*FillingMethod
}

// methodKey caches a discovered filling method per container type and the
// dynamic types of the sample arguments.
type methodKey struct {
	t    reflect.Type
	args string
}

func newMethodKey(t reflect.Type, args []reflect.Value) methodKey {
	names := make([]string, len(args))
	for i, a := range args {
		if dt := dynamicType(a); dt != nil {
			names[i] = qualifiedName(dt)
		} else {
			names[i] = "nil"
		}
	}
	return methodKey{t: t, args: strings.Join(names, ",")}
}

// NewResolver creates a resolver that knows the basic types.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		hierarchy: defaultHierarchy,
		builders:  make(map[reflect.Type]*builder),
		types:     make(map[string]reflect.Type),
		methods:   make(map[methodKey]*FillingMethod),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.intro = NewIntrospector(r.hierarchy, false)
	for _, t := range basicTypes {
		r.types[qualifiedName(t)] = t
	}
	for _, t := range []reflect.Type{
		reflect.TypeFor[[]any](),
		reflect.TypeFor[[]string](),
		reflect.TypeFor[map[string]any](),
		reflect.TypeFor[map[string]string](),
	} {
		r.types[qualifiedName(t)] = t
	}
	return r
}

// RegisterType makes t resolvable by its qualified name, so nodes stored in
// interface-typed slots are rebuilt as t.
func (r *Resolver) RegisterType(t reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[qualifiedName(t)] = t
}

// RegisterIterable registers how to create an empty C and append an E to it.
// add returns the container to keep using, which may be its argument.
func RegisterIterable[C, E any](r *Resolver, create func() C, add func(C, E) C) {
	r.register(reflect.TypeFor[C](), &builder{
		create: func() reflect.Value { return reflect.ValueOf(create()) },
		types:  []reflect.Type{reflect.TypeFor[E]()},
		add: func(c reflect.Value, args []reflect.Value) reflect.Value {
			return reflect.ValueOf(add(as[C](c), as[E](args[0])))
		},
	})
}

// RegisterMapping registers how to create an empty C and put a K/V pair into it.
func RegisterMapping[C, K, V any](r *Resolver, create func() C, put func(C, K, V) C) {
	r.register(reflect.TypeFor[C](), &builder{
		create: func() reflect.Value { return reflect.ValueOf(create()) },
		types:  []reflect.Type{reflect.TypeFor[K](), reflect.TypeFor[V]()},
		add: func(c reflect.Value, args []reflect.Value) reflect.Value {
			return reflect.ValueOf(put(as[C](c), as[K](args[0]), as[V](args[1])))
		},
	})
}

func as[T any](v reflect.Value) T {
	if !v.IsValid() {
		var zero T
		return zero
	}
	out, _ := v.Interface().(T)
	return out
}

func (r *Resolver) register(t reflect.Type, b *builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[t] = b
	r.types[qualifiedName(t)] = t
}

func (r *Resolver) builder(t reflect.Type) *builder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.builders[t]
}

// lookupType resolves a qualified type name registered with the resolver.
func (r *Resolver) lookupType(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// FindFactory returns a way to create an empty instance of t: a registered
// builder first, then an exported zero-argument method returning t, then the
// zero value for concrete types. Interface and func types have no factory.
func (r *Resolver) FindFactory(t reflect.Type) (Factory, error) {
	if t == nil {
		return nil, invalidArgument("factory for nil type")
	}
	if b := r.builder(t); b != nil {
		return func() (reflect.Value, error) { return b.create(), nil }, nil
	}
	if m, ok := factoryMethod(t); ok {
		return func() (out reflect.Value, err error) {
			defer recoverCall(&err)
			return m.Func.Call([]reflect.Value{emptyValue(t)})[0], nil
		}, nil
	}
	switch t.Kind() {
	case reflect.Interface, reflect.Func, reflect.Invalid:
		return nil, newResolveError(ErrFactoryNotFound, t, nil)
	}
	return func() (reflect.Value, error) { return emptyValue(t), nil }, nil
}

// factoryMethod finds a zero-argument method on t's value method set that
// returns something assignable to t, such as `func (Set) New() Set`.
func factoryMethod(t reflect.Type) (reflect.Method, bool) {
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		ft := m.Type
		if ft.NumIn() == 1 && ft.NumOut() == 1 && ft.Out(0).AssignableTo(t) {
			return m, true
		}
	}
	return reflect.Method{}, false
}

// emptyValue returns a usable empty instance: allocated maps, slices,
// channels and pointees, zero values otherwise.
func emptyValue(t reflect.Type) reflect.Value {
	switch t.Kind() {
	case reflect.Map:
		return reflect.MakeMap(t)
	case reflect.Slice:
		return reflect.MakeSlice(t, 0, 0)
	case reflect.Chan:
		return reflect.MakeChan(t, 0)
	case reflect.Pointer:
		return reflect.New(t.Elem())
	}
	return reflect.New(t).Elem()
}

// FindFillingMethod discovers a method of t that inserts elements, using
// source (an instance of a container holding at least one element) as the
// sample. expected, when given, restricts candidates to methods whose
// parameters accept the shape's element types.
//
// Candidates are tried in name order on a scratch instance and kept only if
// the sample element comes back out of the container afterwards.
func (r *Resolver) FindFillingMethod(t reflect.Type, expected *Shape, source reflect.Value) (*FillingMethod, error) {
	vw := classify(source)
	if !vw.kind.container() {
		return nil, invalidArgument("sample for %s is not a container", qualifiedName(t))
	}
	keys, values := vw.contents()
	if len(values) == 0 {
		return nil, invalidArgument("sample for %s is empty", qualifiedName(t))
	}
	args := []reflect.Value{values[0]}
	if vw.kind == kindMap {
		args = []reflect.Value{keys[0], values[0]}
	}
	return r.findFillingMethod(t, expected, args)
}

func (r *Resolver) findFillingMethod(t reflect.Type, expected *Shape, args []reflect.Value) (*FillingMethod, error) {
	// Shape-filtered lookups are not cached; the shape narrows the candidates.
	key := newMethodKey(t, args)
	if expected == nil {
		r.mu.RLock()
		cached, ok := r.methods[key]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}
	}

	factory, err := r.FindFactory(t)
	if err != nil {
		return nil, err
	}

	mt := t
	if t.Kind() != reflect.Pointer {
		mt = reflect.PointerTo(t)
	}
	for i := 0; i < mt.NumMethod(); i++ {
		m := mt.Method(i)
		params := methodParams(m)
		if !r.hierarchy.ParametersSuit(params, args, m.Type.IsVariadic()) {
			continue
		}
		if !shapeSuits(expected, params, m.Type.IsVariadic()) {
			continue
		}
		fm := &FillingMethod{
			Method:  m,
			Target:  t,
			Builder: m.Type.NumOut() == 1 && m.Type.Out(0).AssignableTo(t),
		}
		scratch, err := factory()
		if err != nil {
			return nil, newResolveError(ErrFactoryNotFound, t, err)
		}
		if verifyFill(fm, scratch, args) {
			if expected == nil {
				r.mu.Lock()
				r.methods[key] = fm
				r.mu.Unlock()
			}
			return fm, nil
		}
	}
	return nil, newResolveError(ErrFillingMethodNotFound, t, nil)
}

// shapeSuits checks the element types described by expected against params.
func shapeSuits(expected *Shape, params []reflect.Type, variadic bool) bool {
	if expected == nil || expected.IsLeaf() {
		return true
	}
	if !variadic && len(expected.Children) != len(params) {
		return false
	}
	for i, child := range expected.Children {
		if child.Type == nil {
			continue
		}
		var p reflect.Type
		switch {
		case variadic && i >= len(params)-1:
			p = params[len(params)-1].Elem()
		case i < len(params):
			p = params[i]
		default:
			return false
		}
		if !child.Type.AssignableTo(p) {
			return false
		}
	}
	return true
}

// verifyFill runs the method on a scratch container and checks that the
// arguments can be read back as its first element or entry.
func verifyFill(fm *FillingMethod, scratch reflect.Value, args []reflect.Value) bool {
	out, err := fm.Fill(scratch, args...)
	if err != nil {
		return false
	}
	vw := classify(out)
	if !vw.kind.container() {
		return false
	}
	keys, values := vw.contents()
	if len(values) == 0 {
		return false
	}
	if vw.kind == kindMap {
		return len(args) == 2 && sameValue(keys[0], args[0]) && sameValue(values[0], args[1])
	}
	return len(args) == 1 && sameValue(values[0], args[0])
}

func sameValue(a, b reflect.Value) bool {
	a, b = unwrapInterface(a), unwrapInterface(b)
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if !a.CanInterface() || !b.CanInterface() {
		return false
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}

func unwrapInterface(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// fillerFor returns the registered builder for t, or with heuristics enabled
// a filling method discovered from the first decoded arguments.
func (r *Resolver) fillerFor(t reflect.Type, sample []reflect.Value) (filler, error) {
	if b := r.builder(t); b != nil {
		return b, nil
	}
	if !r.heuristics {
		return nil, newResolveError(ErrFillingMethodNotFound, t,
			fmt.Errorf("no builder registered and heuristics disabled"))
	}
	return r.findFillingMethod(t, nil, sample)
}
