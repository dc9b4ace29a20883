package objgraph

import (
	"reflect"
	"strings"
)

// Shape is the recursive type descriptor of a value: its runtime type plus
// the shapes of its element types.
//
// A map-like value has exactly two children (key, value), a slice, array or
// Iterable has exactly one, and everything else (including nodes truncated
// by the depth limit) has none.
type Shape struct {
	Type     reflect.Type `json:"-" yaml:"-" msgpack:"-" bson:"-" xml:"-"`
	Name     string       `json:"type" yaml:"type" msgpack:"type" bson:"type" xml:"type,attr"`
	Children []*Shape     `json:"children,omitempty" yaml:"children,omitempty" msgpack:"children,omitempty" bson:"children,omitempty" xml:"shape,omitempty"`
}

func newShape(t reflect.Type) *Shape {
	return &Shape{Type: t, Name: qualifiedName(t)}
}

// IsLeaf reports whether the shape has no children.
func (s *Shape) IsLeaf() bool {
	return len(s.Children) == 0
}

// Depth returns the number of levels in the shape tree, counting the root as 1.
func (s *Shape) Depth() int {
	if s == nil {
		return 0
	}
	deepest := 0
	for _, c := range s.Children {
		if d := c.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// String renders the shape as Name<child,child>.
func (s *Shape) String() string {
	if s == nil {
		return "<nil>"
	}
	if s.IsLeaf() {
		return s.Name
	}
	parts := make([]string, len(s.Children))
	for i, c := range s.Children {
		parts[i] = c.String()
	}
	return s.Name + "<" + strings.Join(parts, ",") + ">"
}

// Identifier pairs a value's identity string and shape with whether the value
// still has to be emitted. Include is false once the value has been emitted
// elsewhere in the same call.
type Identifier struct {
	ID      string
	Shape   *Shape
	Include bool
}
