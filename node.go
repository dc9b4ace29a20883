package objgraph

// NodeKind discriminates the four node variants.
type NodeKind string

const (
	// KindNull is an absent value: nil pointers, interfaces, slices and maps.
	KindNull NodeKind = "null"

	// KindPrimitive carries a textual value inline.
	KindPrimitive NodeKind = "primitive"

	// KindObject is a struct, array, slice, map or capability container.
	// Exactly one of Fields, Elements and Entries is populated, unless the
	// object is empty or was truncated by the depth limit.
	KindObject NodeKind = "object"

	// KindRef points back at an object already emitted in the same tree.
	KindRef NodeKind = "ref"
)

// Node is one element of a serialized object graph. It carries tags for every
// bundled codec so a tree can be encoded and decoded without loss.
type Node struct {
	Kind      NodeKind `json:"kind" yaml:"kind" msgpack:"kind" bson:"kind" xml:"kind,attr"`
	ID        string   `json:"_id,omitempty" yaml:"_id,omitempty" msgpack:"_id,omitempty" bson:"_id,omitempty" xml:"id,attr,omitempty"`
	Value     *string  `json:"value,omitempty" yaml:"value,omitempty" msgpack:"value,omitempty" bson:"value,omitempty" xml:"value,omitempty"`
	Truncated bool     `json:"truncated,omitempty" yaml:"truncated,omitempty" msgpack:"truncated,omitempty" bson:"truncated,omitempty" xml:"truncated,attr,omitempty"`
	Fields    []Field  `json:"fields,omitempty" yaml:"fields,omitempty" msgpack:"fields,omitempty" bson:"fields,omitempty" xml:"field,omitempty"`
	Elements  []*Node  `json:"elements,omitempty" yaml:"elements,omitempty" msgpack:"elements,omitempty" bson:"elements,omitempty" xml:"element,omitempty"`
	Entries   []Pair   `json:"entries,omitempty" yaml:"entries,omitempty" msgpack:"entries,omitempty" bson:"entries,omitempty" xml:"entry,omitempty"`
	Shape     *Shape   `json:"shape,omitempty" yaml:"shape,omitempty" msgpack:"shape,omitempty" bson:"shape,omitempty" xml:"shape,omitempty"`
}

// Field is a named struct field of an object node.
type Field struct {
	Name string `json:"name" yaml:"name" msgpack:"name" bson:"name" xml:"name,attr"`
	Node *Node  `json:"node" yaml:"node" msgpack:"node" bson:"node" xml:"node"`
}

// Pair is a key/value entry of a map-like object node.
type Pair struct {
	Key   *Node `json:"key" yaml:"key" msgpack:"key" bson:"key" xml:"key"`
	Value *Node `json:"value" yaml:"value" msgpack:"value" bson:"value" xml:"value"`
}

func nullNode() *Node {
	return &Node{Kind: KindNull}
}

func primitiveNode(id, text string) *Node {
	return &Node{Kind: KindPrimitive, ID: id, Value: &text}
}

// Text returns the primitive value, or "" for other kinds.
func (n *Node) Text() string {
	if n == nil || n.Value == nil {
		return ""
	}
	return *n.Value
}

// Field returns the node of the named field, or nil.
func (n *Node) Field(name string) *Node {
	if n == nil {
		return nil
	}
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Node
		}
	}
	return nil
}

// Walk visits n and all of its descendants depth first, stopping early when
// fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, f := range n.Fields {
		if !f.Node.Walk(fn) {
			return false
		}
	}
	for _, e := range n.Elements {
		if !e.Walk(fn) {
			return false
		}
	}
	for _, p := range n.Entries {
		if !p.Key.Walk(fn) || !p.Value.Walk(fn) {
			return false
		}
	}
	return true
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Depth returns the nesting depth of the tree, counting n as 1. Map entries
// sit one level below their map.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	deepest := 0
	deeper := func(c *Node) {
		if d := c.Depth(); d > deepest {
			deepest = d
		}
	}
	for _, f := range n.Fields {
		deeper(f.Node)
	}
	for _, e := range n.Elements {
		deeper(e)
	}
	for _, p := range n.Entries {
		deeper(p.Key)
		deeper(p.Value)
	}
	return deepest + 1
}
