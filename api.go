// Package objgraph identifies and serializes arbitrary Go object graphs.
//
// Given any value (primitive, array, slice, map, struct or a pointer graph that
// may refer back to itself), objgraph produces a depth-bounded, cycle-safe tree
// of Nodes labelled with identity strings. The tree is meant for audit logs:
// it is human-inspectable, encodes through any Codec, and can be rebuilt into
// an equivalent value on a best-effort basis.
//
// # Identity Strings
//
// Every visited value is labelled with
//
//	qualifiedTypeName[<elem,elem>]@hex
//
// The bracketed fragment lists the representative element types of slices,
// maps and Iterable/Mapping values. The hex part is the referent address, or a
// per-call sequence number for values that have no address.
//
// # Basic Usage
//
//	s := objgraph.New(objgraph.WithMaxDepth(4))
//	node, err := s.Serialize(ctx, args)
//	data, err := objgraph.Encode(json.New(), node)
//
// A value that was already emitted in the same call is rendered as a ref node
// carrying only its identity string, which is what breaks cycles.
//
// # Tag Syntax
//
// Struct fields can be renamed, skipped or sanitized with the graph tag:
//
//	type Login struct {
//	    User     string `graph:"user,mask=email"`
//	    Password string `graph:"password,hash=sha256"`
//	    Token    string `graph:",redact=***"`
//	    cache    []byte `graph:"-"`
//	}
//
// # Capability Interfaces
//
// Types can describe their own contents instead of being walked field by field:
//
//   - Iterable: exposes an ordered list of elements
//   - Mapping: exposes an ordered list of key/value entries
//
// # Reconstruction
//
// A Resolver rebuilds values from Nodes. Containers built from Iterable or
// Mapping types need a registered builder (RegisterIterable, RegisterMapping)
// or the opt-in heuristic discovery enabled with WithHeuristics. Rebuilding is
// best-effort and never guaranteed to reproduce the original value.
//
// # Codec Providers
//
// The following codec implementations are available as subpackages:
//
//   - json - JSON encoding (application/json)
//   - xml - XML encoding (application/xml)
//   - yaml - YAML encoding (application/yaml)
//   - msgpack - MessagePack encoding (application/msgpack)
//   - bson - BSON encoding (application/bson)
package objgraph
