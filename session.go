package objgraph

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Session is the identity scope of one top-level call. It remembers the
// identity string assigned to each referent and which referents were already
// emitted. A Session is not safe for concurrent use and should be discarded
// after the call.
type Session struct {
	ID string

	intro   *Introspector
	cfg     *config
	ids     map[refKey]string
	taken   map[string]refKey
	emitted map[refKey]struct{}
	seq     uint64

	nodes int
	refs  int
}

func newSession(intro *Introspector, cfg *config) *Session {
	return &Session{
		ID:      uuid.NewString(),
		intro:   intro,
		cfg:     cfg,
		ids:     make(map[refKey]string),
		taken:   make(map[string]refKey),
		emitted: make(map[refKey]struct{}),
	}
}

// Identify returns the identity string of v: its qualified type name, the
// element-type fragment for containers, and its address. The same referent
// always gets the same string within a session. A nil value yields "".
func (s *Session) Identify(v any) (string, error) {
	return s.identity(classify(reflect.ValueOf(v)))
}

func (s *Session) identity(vw view) (string, error) {
	if vw.kind == kindNull {
		return "", nil
	}
	if vw.keyed {
		if id, ok := s.ids[vw.key]; ok {
			return id, nil
		}
	}

	var b strings.Builder
	b.WriteString(qualifiedName(vw.typ))
	if vw.kind.container() {
		types, err := s.intro.sampledTypes(vw)
		if err != nil {
			return "", err
		}
		if len(types) > 0 {
			b.WriteByte('<')
			b.WriteString(joinNames(types))
			b.WriteByte('>')
		}
	}
	b.WriteByte('@')
	prefix := b.String()

	// An identity string names exactly one referent. Subslices sharing a
	// backing array share an address, so a taken string falls back to the
	// sequence number.
	var id string
	if vw.keyed {
		id = prefix + strconv.FormatUint(uint64(vw.key.addr), 16)
		if other, ok := s.taken[id]; ok && other != vw.key {
			id = ""
		}
	}
	for id == "" {
		s.seq++
		next := prefix + strconv.FormatUint(s.seq, 16)
		if _, ok := s.taken[next]; !ok {
			id = next
		}
	}

	s.taken[id] = vw.key
	if vw.keyed {
		s.ids[vw.key] = id
	}
	return id, nil
}

// identifier returns the identity of v together with whether it still has to
// be emitted. When shapes are enabled the shape is computed from depth.
func (s *Session) identifier(v reflect.Value, vw view, depth int) (Identifier, error) {
	id, err := s.identity(vw)
	if err != nil {
		return Identifier{}, err
	}
	ident := Identifier{ID: id, Include: true}
	if vw.keyed && !vw.kind.primitiveLike() {
		if _, seen := s.emitted[vw.key]; seen {
			ident.Include = false
			return ident, nil
		}
		s.emitted[vw.key] = struct{}{}
	}
	if s.cfg.shapes && ident.Include && !vw.kind.primitiveLike() {
		ident.Shape, err = s.shape([]reflect.Value{v}, nil, depth, s.cfg.maxDepth)
		if err != nil {
			return Identifier{}, err
		}
	}
	return ident, nil
}

// BuildShape returns the recursive type descriptor of v. The root is at
// depth 1 and no branch goes deeper than maxDepth.
func (s *Session) BuildShape(v any, maxDepth int) (*Shape, error) {
	if maxDepth < 1 {
		return nil, invalidArgument("max depth must be at least 1, got %d", maxDepth)
	}
	return s.shape([]reflect.Value{reflect.ValueOf(v)}, nil, 1, maxDepth)
}

// shape describes a group of values that share a position in the graph, such
// as all elements of a slice. The group's type is the common ancestor of the
// members' types; children flatten the members' contents one level down.
func (s *Session) shape(group []reflect.Value, static reflect.Type, depth, maxDepth int) (*Shape, error) {
	views := make([]view, 0, len(group))
	var types []reflect.Type
	for _, v := range group {
		vw := classify(v)
		if vw.kind == kindNull {
			continue
		}
		views = append(views, vw)
		types = append(types, vw.typ)
	}

	t, err := s.commonType(types)
	if err != nil {
		return nil, err
	}
	if t == nil {
		t = static
	}
	if t == nil {
		t = s.intro.hierarchy.Root()
	}
	sh := newShape(t)
	if depth >= maxDepth {
		return sh, nil
	}

	kind, elems := groupKind(views, static)
	switch {
	case kind.sequence():
		var values []reflect.Value
		for _, vw := range views {
			_, vals := vw.contents()
			values = append(values, vals...)
		}
		child, err := s.shape(values, staticAt(elems, 0), depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		sh.Children = []*Shape{child}
	case kind == kindMap:
		var keys, values []reflect.Value
		for _, vw := range views {
			ks, vals := vw.contents()
			keys = append(keys, ks...)
			values = append(values, vals...)
		}
		kc, err := s.shape(keys, staticAt(elems, 0), depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		vc, err := s.shape(values, staticAt(elems, 1), depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		sh.Children = []*Shape{kc, vc}
	}
	return sh, nil
}

func (s *Session) commonType(types []reflect.Type) (reflect.Type, error) {
	var common reflect.Type
	for _, t := range types {
		next, err := s.intro.hierarchy.CommonAncestor(common, t)
		if err != nil {
			return nil, err
		}
		common = next
	}
	return common, nil
}

// groupKind decides whether a group of values can be flattened: all members
// must be sequences, or all must be maps. With no members the declared type
// decides. The declared element types are returned when the members agree.
func groupKind(views []view, static reflect.Type) (valueKind, []reflect.Type) {
	if len(views) == 0 {
		elems := staticTypes(static)
		switch len(elems) {
		case 1:
			if t := derefType(static); t.Kind() != reflect.Chan {
				return kindArray, elems
			}
		case 2:
			return kindMap, elems
		}
		return kindNull, nil
	}

	kind := views[0].kind
	elems := views[0].staticElems()
	for _, vw := range views[1:] {
		switch {
		case kind.sequence() && vw.kind.sequence():
		case kind == kindMap && vw.kind == kindMap:
		default:
			return kindNull, nil
		}
		if !sameTypes(elems, vw.staticElems()) {
			elems = nil
		}
	}
	if !kind.container() {
		return kindNull, nil
	}
	return kind, elems
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func sameTypes(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (k valueKind) primitiveLike() bool {
	return k == kindPrimitive || k == kindOpaque
}

// Serialize walks v from depth 1.
func (s *Session) Serialize(v any) (*Node, error) {
	if s.cfg.maxDepth < 1 {
		return nil, invalidArgument("max depth must be at least 1, got %d", s.cfg.maxDepth)
	}
	return s.walk(reflect.ValueOf(v), 1, nil)
}

// walk emits the node for v. san is the sanitizer inherited from the field v
// was read from, if any.
func (s *Session) walk(v reflect.Value, depth int, san *Sanitizer) (*Node, error) {
	s.nodes++
	vw := classify(v)
	if vw.kind == kindNull {
		return nullNode(), nil
	}

	ident, err := s.identifier(v, vw, depth)
	if err != nil {
		return nil, err
	}

	if vw.kind.primitiveLike() {
		text, err := vw.text()
		if err != nil {
			return nil, err
		}
		if san != nil {
			if text, err = san.apply(text, s.cfg); err != nil {
				return nil, err
			}
		}
		return primitiveNode(ident.ID, text), nil
	}

	if !ident.Include {
		s.refs++
		return &Node{Kind: KindRef, ID: ident.ID}, nil
	}

	n := &Node{Kind: KindObject, ID: ident.ID, Shape: ident.Shape}
	var fields []FieldRef
	if vw.kind == kindRecord {
		if fields, err = s.intro.FieldsOf(vw.value.Type()); err != nil {
			return nil, err
		}
	}
	if depth >= s.cfg.maxDepth {
		n.Truncated = !vw.empty(len(fields))
		return n, nil
	}

	switch {
	case vw.kind == kindRecord:
		err = s.walkFields(n, vw.value, fields, depth)
	case vw.kind.sequence():
		err = s.walkElements(n, vw, depth, san.forElements())
	case vw.kind == kindMap:
		err = s.walkEntries(n, vw, depth, san.forElements())
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Session) walkFields(n *Node, rv reflect.Value, fields []FieldRef, depth int) error {
	for i := range fields {
		f := &fields[i]
		fv, err := f.ValueOf(rv)
		if err != nil {
			return err
		}
		child, err := s.walk(fv, depth+1, f.Sanitize)
		if err != nil {
			return err
		}
		n.Fields = append(n.Fields, Field{Name: f.Name, Node: child})
	}
	return nil
}

func (s *Session) walkElements(n *Node, vw view, depth int, san *Sanitizer) error {
	_, values := vw.contents()
	for _, v := range values {
		child, err := s.walk(v, depth+1, san)
		if err != nil {
			return err
		}
		n.Elements = append(n.Elements, child)
	}
	return nil
}

func (s *Session) walkEntries(n *Node, vw view, depth int, san *Sanitizer) error {
	keys, values := vw.contents()
	for i := range keys {
		k, err := s.walk(keys[i], depth+1, nil)
		if err != nil {
			return err
		}
		v, err := s.walk(values[i], depth+1, san)
		if err != nil {
			return err
		}
		n.Entries = append(n.Entries, Pair{Key: k, Value: v})
	}
	return nil
}
