// Package testing provides fixtures shared by objgraph tests.
package testing

import (
	"sort"
	"time"

	"github.com/zoobzio/objgraph"
	"github.com/zoobzio/objgraph/bson"
	"github.com/zoobzio/objgraph/json"
	"github.com/zoobzio/objgraph/msgpack"
	"github.com/zoobzio/objgraph/xml"
	"github.com/zoobzio/objgraph/yaml"
)

// Employee is a record that points back at itself through Manager and Reports.
type Employee struct {
	Name    string
	Manager *Employee
	Reports []*Employee
}

// Team returns a manager with two reports whose Manager points back at it.
func Team() *Employee {
	boss := &Employee{Name: "Ada"}
	boss.Reports = []*Employee{
		{Name: "Grace", Manager: boss},
		{Name: "Linus", Manager: boss},
	}
	return boss
}

// Bag is an Iterable that keeps insertion order.
type Bag struct {
	items []any
}

// NewBag returns a Bag holding items.
func NewBag(items ...any) *Bag {
	b := &Bag{}
	for _, it := range items {
		b.Add(it)
	}
	return b
}

// Add appends v.
func (b *Bag) Add(v any) { b.items = append(b.items, v) }

// Elements implements objgraph.Iterable.
func (b *Bag) Elements() []any { return b.items }

// Len returns the number of items.
func (b *Bag) Len() int { return len(b.items) }

// Dict is a Mapping from string keys to counts.
type Dict struct {
	counts map[string]int
}

// NewDict returns an empty Dict.
func NewDict() *Dict {
	return &Dict{counts: make(map[string]int)}
}

// Put stores v under k.
func (d *Dict) Put(k string, v int) {
	if d.counts == nil {
		d.counts = make(map[string]int)
	}
	d.counts[k] = v
}

// Get returns the count stored under k.
func (d *Dict) Get(k string) (int, bool) {
	v, ok := d.counts[k]
	return v, ok
}

// Entries implements objgraph.Mapping, sorted by key.
func (d *Dict) Entries() []objgraph.Entry {
	keys := make([]string, 0, len(d.counts))
	for k := range d.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]objgraph.Entry, len(keys))
	for i, k := range keys {
		out[i] = objgraph.Entry{Key: k, Value: d.counts[k]}
	}
	return out
}

// Call is an intercepted method call as an audit agent records it.
type Call struct {
	Method   string         `graph:"method"`
	User     string         `graph:"user,mask=email"`
	Password string         `graph:"password,hash=sha256"`
	Token    string         `graph:"token,redact"`
	Cards    []string       `graph:"cards,mask=card"`
	Args     []any          `graph:"args"`
	Labels   map[string]int `graph:"labels"`
	Started  time.Time      `graph:"started"`
	Internal string         `graph:"-"`
}

// SampleCall returns a Call with every field populated.
func SampleCall() *Call {
	return &Call{
		Method:   "Transfer",
		User:     "alice@example.com",
		Password: "hunter2",
		Token:    "tok_live_123",
		Cards:    []string{"4111 1111 1111 1111"},
		Args:     []any{42, "EUR", true},
		Labels:   map[string]int{"retry": 1, "attempt": 2},
		Started:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Internal: "not audited",
	}
}

// Codecs returns every bundled codec keyed by name.
func Codecs() map[string]objgraph.Codec {
	return map[string]objgraph.Codec{
		"json":    json.New(),
		"yaml":    yaml.New(),
		"msgpack": msgpack.New(),
		"bson":    bson.New(),
		"xml":     xml.New(),
	}
}
