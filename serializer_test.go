package objgraph

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

type Inner struct {
	X int
}

type outer struct {
	*Inner
	Y int
}

type account struct {
	Owner    string            `graph:"owner,mask=name"`
	Email    string            `graph:"email,mask=email"`
	Password string            `graph:"password,hash=sha256"`
	Notes    []string          `graph:"notes,redact"`
	Meta     map[string]string `graph:"meta,redact=[x]"`
	Skip     string            `graph:"-"`
	Parent   *account          `graph:"parent"`
}

type withHidden struct {
	Public int
	hidden int
}

func TestSerializeSelfCycle(t *testing.T) {
	l := &link{Name: "a"}
	l.Next = l

	n, err := New().Serialize(context.Background(), l)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if n.Kind != KindObject {
		t.Fatalf("root kind = %s, want object", n.Kind)
	}
	if !strings.HasPrefix(n.ID, "*github.com/zoobzio/objgraph.link@") {
		t.Errorf("root ID = %q", n.ID)
	}
	next := n.Field("Next")
	if next == nil || next.Kind != KindRef || next.ID != n.ID {
		t.Errorf("Next = %+v, want ref to %s", next, n.ID)
	}
	if got := n.Field("Name").Text(); got != "a" {
		t.Errorf("Name = %q, want a", got)
	}
}

func TestSerializeSharedReference(t *testing.T) {
	shared := &Inner{X: 1}
	pair := []*Inner{shared, shared}

	n, err := Serialize(pair, 3)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if len(n.Elements) != 2 {
		t.Fatalf("Elements = %d, want 2", len(n.Elements))
	}
	first, second := n.Elements[0], n.Elements[1]
	if first.Kind != KindObject || second.Kind != KindRef || second.ID != first.ID {
		t.Errorf("second occurrence = %+v, want ref to %s", second, first.ID)
	}
}

func TestSerializeDistinctInstances(t *testing.T) {
	s := New()
	x, y := &Inner{X: 1}, &Inner{X: 1}
	a, err := s.Identify(x)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Identify(y)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("distinct instances share identity %q", a)
	}

	sess := s.NewSession()
	first, _ := sess.Identify(x)
	second, _ := sess.Identify(x)
	if first != second {
		t.Errorf("same instance got %q and %q", first, second)
	}
}

func TestIdentifyFormat(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		prefix string
	}{
		{"pointer", &Inner{}, "*github.com/zoobzio/objgraph.Inner@"},
		{"typed slice", []int{1, 2}, "[]int<int>@"},
		{"sampled slice", []any{1, 2}, "[]interface {}<int>@"},
		{"mixed slice", []any{1, "a", "b"}, "[]interface {}<interface {}>@"},
		{"map", map[string]int{"a": 1}, "map[string]int<string,int>@"},
		{"primitive", 5, "int@1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Identify(tt.value)
			if err != nil {
				t.Fatalf("Identify() error = %v", err)
			}
			if !strings.HasPrefix(id, tt.prefix) {
				t.Errorf("Identify() = %q, want prefix %q", id, tt.prefix)
			}
		})
	}

	if id, err := Identify(nil); err != nil || id != "" {
		t.Errorf("Identify(nil) = %q, %v", id, err)
	}
}

func TestSerializeInvalidDepth(t *testing.T) {
	for _, depth := range []int{0, -1} {
		if _, err := Serialize(1, depth); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Serialize(depth=%d) error = %v, want ErrInvalidArgument", depth, err)
		}
	}
}

func TestSerializeDepthLimit(t *testing.T) {
	v := [][][]int{{{1}}, {}}

	n, err := Serialize(v, 2)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if n.Truncated {
		t.Error("root should not be truncated")
	}
	if got := n.Depth(); got > 2 {
		t.Errorf("Depth() = %d, want at most 2", got)
	}
	full, empty := n.Elements[0], n.Elements[1]
	if !full.Truncated || full.Elements != nil {
		t.Errorf("non-empty child at max depth = %+v, want truncated", full)
	}
	if empty.Truncated {
		t.Error("empty child at max depth should not be truncated")
	}
}

func TestSerializeDepthOne(t *testing.T) {
	n, err := Serialize(&Inner{X: 3}, 1)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if n.Kind != KindObject || !n.Truncated || n.Fields != nil {
		t.Errorf("root = %+v, want truncated object", n)
	}
}

func TestSerializePrimitives(t *testing.T) {
	type celsius float64
	tests := []struct {
		value any
		want  string
	}{
		{42, "42"},
		{"hi", "hi"},
		{true, "true"},
		{3.5, "3.5"},
		{celsius(-1.25), "-1.25"},
		{uint8(7), "7"},
		{complex(1, 2), "(1+2i)"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		n, err := Serialize(tt.value, 1)
		if err != nil {
			t.Fatalf("Serialize(%v) error = %v", tt.value, err)
		}
		if n.Kind != KindPrimitive || n.Text() != tt.want {
			t.Errorf("Serialize(%v) = %s %q, want primitive %q", tt.value, n.Kind, n.Text(), tt.want)
		}
	}
}

func TestSerializeNulls(t *testing.T) {
	var p *Inner
	var m map[string]int
	var s []int
	for _, v := range []any{nil, p, m, s} {
		n, err := Serialize(v, 3)
		if err != nil {
			t.Fatalf("Serialize(%#v) error = %v", v, err)
		}
		if n.Kind != KindNull {
			t.Errorf("Serialize(%#v) kind = %s, want null", v, n.Kind)
		}
	}
}

func TestSerializeOpaque(t *testing.T) {
	ch := make(chan int)
	n, err := Serialize(ch, 1)
	if err != nil {
		t.Fatal(err)
	}
	if n.Kind != KindPrimitive || !strings.HasPrefix(n.Text(), "0x") {
		t.Errorf("channel = %s %q, want address text", n.Kind, n.Text())
	}
}

func TestSerializeMapOrder(t *testing.T) {
	n, err := Serialize(map[string]int{"b": 2, "c": 3, "a": 1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for _, p := range n.Entries {
		keys = append(keys, p.Key.Text())
	}
	if strings.Join(keys, ",") != "a,b,c" {
		t.Errorf("keys = %v, want sorted", keys)
	}
}

func TestSerializeSanitizers(t *testing.T) {
	acc := &account{
		Owner:    "Jane Doe",
		Email:    "jane@example.com",
		Password: "hello",
		Notes:    []string{"one", "two"},
		Meta:     map[string]string{"k": "v"},
		Skip:     "never",
	}
	acc.Parent = acc

	n, err := New().Serialize(context.Background(), acc)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	checks := map[string]string{
		"owner":    "J*** D**",
		"email":    "j***@example.com",
		"password": "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
	}
	for field, want := range checks {
		if got := n.Field(field).Text(); got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}
	for _, e := range n.Field("notes").Elements {
		if e.Text() != DefaultRedaction {
			t.Errorf("note = %q, want redacted", e.Text())
		}
	}
	meta := n.Field("meta")
	if len(meta.Entries) != 1 || meta.Entries[0].Key.Text() != "k" || meta.Entries[0].Value.Text() != "[x]" {
		t.Errorf("meta = %+v, want key kept and value redacted", meta.Entries)
	}
	if n.Field("Skip") != nil || n.Field("-") != nil {
		t.Error("skipped field was emitted")
	}
	if p := n.Field("parent"); p.Kind != KindRef || p.ID != n.ID {
		t.Errorf("parent = %+v, want ref to root", p)
	}
}

func TestSerializeCustomMasker(t *testing.T) {
	s := New().SetMasker(MaskEmail, MaskerFunc(func(string) string { return "hidden" }))
	n, err := s.Serialize(context.Background(), &account{Email: "a@b.c"})
	if err != nil {
		t.Fatal(err)
	}
	if got := n.Field("email").Text(); got != "hidden" {
		t.Errorf("email = %q, want hidden", got)
	}
}

func TestSerializeHashFailure(t *testing.T) {
	boom := errors.New("boom")
	s := New(WithHasher(HashSHA256, HasherFunc(func([]byte) (string, error) { return "", boom })))
	_, err := s.Serialize(context.Background(), &account{Password: "x"})
	if !errors.Is(err, ErrHash) {
		t.Errorf("Serialize() error = %v, want ErrHash", err)
	}
}

func TestSerializeInvalidTag(t *testing.T) {
	type bad struct {
		Secret string `graph:"secret,mask=retina"`
	}
	_, err := Serialize(&bad{}, 2)
	if !errors.Is(err, ErrInvalidTag) {
		t.Errorf("Serialize() error = %v, want ErrInvalidTag", err)
	}
}

func TestSerializeNilEmbeddedPointer(t *testing.T) {
	n, err := Serialize(&outer{Y: 1}, 3)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if x := n.Field("X"); x == nil || x.Kind != KindNull {
		t.Errorf("promoted X through nil pointer = %+v, want null", x)
	}
	if n.Field("Y").Text() != "1" {
		t.Errorf("Y = %+v", n.Field("Y"))
	}

	n, err = Serialize(&outer{Inner: &Inner{X: 2}, Y: 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if n.Field("X").Text() != "2" || n.Field("Y").Text() != "1" {
		t.Errorf("promoted fields = %+v", n.Fields)
	}
}

func TestFieldRefValueOf(t *testing.T) {
	fields, err := NewIntrospector(nil, false).FieldsOf(reflect.TypeFor[outer]())
	if err != nil {
		t.Fatal(err)
	}
	var x *FieldRef
	for i := range fields {
		if fields[i].Name == "X" {
			x = &fields[i]
		}
	}
	if x == nil {
		t.Fatal("promoted field X not planned")
	}

	v, err := x.ValueOf(reflect.ValueOf(&outer{Inner: &Inner{X: 4}}))
	if err != nil || v.Int() != 4 {
		t.Errorf("ValueOf(set) = %v, %v", v, err)
	}
	v, err = x.ValueOf(reflect.ValueOf(outer{}))
	if err != nil || v.IsValid() {
		t.Errorf("ValueOf(nil embedded) = %v, %v; want invalid value", v, err)
	}

	_, err = x.ValueOf(reflect.ValueOf(Inner{}))
	if !errors.Is(err, ErrFieldAccess) {
		t.Fatalf("ValueOf(wrong type) error = %v, want ErrFieldAccess", err)
	}
	var fae *FieldAccessError
	if !errors.As(err, &fae) || fae.Field != "X" {
		t.Errorf("error = %#v, want FieldAccessError for X", err)
	}
}

func TestSerializeUnexported(t *testing.T) {
	v := &withHidden{Public: 1, hidden: 2}

	n, err := Serialize(v, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(n.Fields) != 1 {
		t.Errorf("default fields = %d, want 1", len(n.Fields))
	}

	n, err = New(WithUnexported()).Serialize(context.Background(), v)
	if err != nil {
		t.Fatal(err)
	}
	if got := n.Field("hidden").Text(); got != "2" {
		t.Errorf("hidden = %q, want 2", got)
	}
}

func TestSerializeShapes(t *testing.T) {
	s := New(WithShapes())
	n, err := s.Serialize(context.Background(), map[string][]int{"a": {1}})
	if err != nil {
		t.Fatal(err)
	}
	if n.Shape == nil {
		t.Fatal("root shape missing")
	}
	if got := n.Shape.String(); got != "map[string][]int<string,[]int<int>>" {
		t.Errorf("shape = %q", got)
	}
	if n.Entries[0].Key.Shape != nil {
		t.Error("primitives carry no shape")
	}
}

func TestSerializerConcurrent(t *testing.T) {
	s := New(WithMaxDepth(4))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := &link{Name: "x"}
			l.Next = l
			n, err := s.Serialize(context.Background(), l)
			if err != nil || n.Field("Next").Kind != KindRef {
				t.Errorf("concurrent Serialize() = %+v, %v", n, err)
			}
		}()
	}
	wg.Wait()
}

func TestSerializeSubslicesGetDistinctIDs(t *testing.T) {
	s := []int{1, 2, 3}
	n, err := Serialize([]any{s[:2], s, s[:2]}, 5)
	if err != nil {
		t.Fatal(err)
	}
	short, full, again := n.Elements[0], n.Elements[1], n.Elements[2]
	if short.Kind != KindObject || full.Kind != KindObject {
		t.Fatalf("kinds = %s, %s; want two objects", short.Kind, full.Kind)
	}
	if short.ID == full.ID {
		t.Errorf("s[:2] and s share ID %q", short.ID)
	}
	if len(short.Elements) != 2 || len(full.Elements) != 3 {
		t.Errorf("lengths = %d, %d; want 2, 3", len(short.Elements), len(full.Elements))
	}
	if again.Kind != KindRef || again.ID != short.ID {
		t.Errorf("repeated s[:2] = %s %q, want ref to %q", again.Kind, again.ID, short.ID)
	}
}

type empty struct{}

type emptyPair struct {
	A, B empty
	C    int
}

func TestSerializeZeroSizeValuesAreDistinct(t *testing.T) {
	n, err := Serialize(&emptyPair{C: 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	a, b := n.Field("A"), n.Field("B")
	if a.Kind != KindObject || b.Kind != KindObject {
		t.Fatalf("kinds = %s, %s; want two objects", a.Kind, b.Kind)
	}
	if a.ID == b.ID {
		t.Errorf("sibling empty structs share ID %q", a.ID)
	}

	n, err = Serialize([]empty{{}, {}, {}}, 3)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for i, e := range n.Elements {
		if e.Kind != KindObject || seen[e.ID] {
			t.Errorf("element %d = %s %q, want a distinct object", i, e.Kind, e.ID)
		}
		seen[e.ID] = true
	}

	x, y := &empty{}, &empty{}
	n, err = Serialize([]*empty{x, y}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if n.Elements[1].Kind == KindRef {
		t.Error("pointers to zero-size values must not collapse into one referent")
	}
}

func TestPackageSerializeSharesFieldPlans(t *testing.T) {
	type planned struct{ V int }

	if _, err := Serialize(&planned{V: 1}, 7); err != nil {
		t.Fatal(err)
	}
	in := std().Introspector()
	in.mu.RLock()
	_, ok := in.plans[reflect.TypeFor[planned]()]
	in.mu.RUnlock()
	if !ok {
		t.Error("package Serialize did not use the default serializer's plan cache")
	}
	if got := std().MaxDepth(); got != DefaultMaxDepth {
		t.Errorf("default MaxDepth = %d after Serialize(v, 7), want %d", got, DefaultMaxDepth)
	}
}
