package objgraph

// Capability interfaces let types describe their own contents. When a value
// implements one of them the serializer walks what the method returns instead
// of the value's fields, and the resolver rebuilds it through a registered
// builder or a discovered filling method.
//
// Implement these for containers whose fields are an implementation detail:
// ring buffers, ordered sets, tries, persistent collections.

// Iterable bypasses reflection for list-like types.
// The serializer walks the returned elements instead of the type's fields.
type Iterable interface {
	// Elements returns the contained values in iteration order.
	Elements() []any
}

// Mapping bypasses reflection for dictionary-like types.
// The serializer walks the returned entries instead of the type's fields.
type Mapping interface {
	// Entries returns the contained key/value pairs in iteration order.
	Entries() []Entry
}

// Entry is a single key/value pair exposed by a Mapping.
type Entry struct {
	Key   any
	Value any
}
