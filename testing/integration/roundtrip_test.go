package integration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"reflect"
	"testing"
	"time"

	"github.com/zoobzio/objgraph"
	objtest "github.com/zoobzio/objgraph/testing"
)

// Inventory holds containers that are only rebuilt through builders or
// discovered filling methods.
type Inventory struct {
	Items  *objtest.Bag
	Counts *objtest.Dict
}

func serialize(t *testing.T, v any, opts ...objgraph.Option) *objgraph.Node {
	t.Helper()
	node, err := objgraph.New(opts...).Serialize(context.Background(), v)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	return node
}

func TestCodecRoundTrip(t *testing.T) {
	node := serialize(t, objtest.Team(), objgraph.WithMaxDepth(5))

	for name, codec := range objtest.Codecs() {
		t.Run(name, func(t *testing.T) {
			data, err := objgraph.Encode(codec, node)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			decoded, err := objgraph.Decode(codec, data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(node, decoded) {
				t.Errorf("decoded tree differs from original")
			}
		})
	}
}

func TestTeamRebuildRestoresCycle(t *testing.T) {
	node := serialize(t, objtest.Team(), objgraph.WithMaxDepth(5))

	for name, codec := range objtest.Codecs() {
		t.Run(name, func(t *testing.T) {
			data, err := objgraph.Encode(codec, node)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			decoded, err := objgraph.Decode(codec, data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			boss, err := objgraph.RebuildAs[*objtest.Employee](context.Background(), objgraph.NewResolver(), decoded)
			if err != nil {
				t.Fatalf("RebuildAs() error = %v", err)
			}
			if boss.Name != "Ada" || len(boss.Reports) != 2 {
				t.Fatalf("boss = %+v", boss)
			}
			for _, r := range boss.Reports {
				if r.Manager != boss {
					t.Errorf("%s.Manager does not point back at the rebuilt boss", r.Name)
				}
			}
		})
	}
}

func TestSanitizedCall(t *testing.T) {
	call := objtest.SampleCall()
	node := serialize(t, call)

	sum := sha256.Sum256([]byte(call.Password))
	tests := []struct {
		field string
		want  string
	}{
		{"method", "Transfer"},
		{"user", "a***@example.com"},
		{"password", hex.EncodeToString(sum[:])},
		{"token", objgraph.DefaultRedaction},
		{"started", call.Started.Format(time.RFC3339)},
	}
	for _, tt := range tests {
		f := node.Field(tt.field)
		if f == nil {
			t.Errorf("field %s missing", tt.field)
			continue
		}
		if got := f.Text(); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, got, tt.want)
		}
	}

	cards := node.Field("cards")
	if cards == nil || len(cards.Elements) != 1 {
		t.Fatalf("cards = %+v", cards)
	}
	if got := cards.Elements[0].Text(); got != "**** **** **** 1111" {
		t.Errorf("card = %q", got)
	}
	if node.Field("Internal") != nil {
		t.Error("fields tagged graph:\"-\" must not be emitted")
	}
}

func TestSanitizedCallSurvivesCodecs(t *testing.T) {
	node := serialize(t, objtest.SampleCall())
	for name, codec := range objtest.Codecs() {
		t.Run(name, func(t *testing.T) {
			data, err := objgraph.Encode(codec, node)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			decoded, err := objgraph.Decode(codec, data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got := decoded.Field("token").Text(); got != objgraph.DefaultRedaction {
				t.Errorf("token = %q after %s", got, name)
			}
		})
	}
}

func TestInventoryRebuildWithBuilders(t *testing.T) {
	inv := &Inventory{Items: objtest.NewBag(1, "two"), Counts: objtest.NewDict()}
	inv.Counts.Put("a", 1)
	inv.Counts.Put("b", 2)
	node := serialize(t, inv, objgraph.WithMaxDepth(4))

	r := objgraph.NewResolver()
	objgraph.RegisterIterable(r, func() *objtest.Bag { return objtest.NewBag() },
		func(b *objtest.Bag, v any) *objtest.Bag { b.Add(v); return b })
	objgraph.RegisterMapping(r, objtest.NewDict,
		func(d *objtest.Dict, k string, v int) *objtest.Dict { d.Put(k, v); return d })

	got, err := objgraph.RebuildAs[*Inventory](context.Background(), r, node)
	if err != nil {
		t.Fatalf("RebuildAs() error = %v", err)
	}
	if !reflect.DeepEqual(got.Items.Elements(), []any{1, "two"}) {
		t.Errorf("Items = %v", got.Items.Elements())
	}
	if v, ok := got.Counts.Get("b"); !ok || v != 2 {
		t.Errorf("Counts[b] = %d, %v", v, ok)
	}
}

func TestInventoryRebuildWithHeuristics(t *testing.T) {
	inv := &Inventory{Items: objtest.NewBag(1, "two"), Counts: objtest.NewDict()}
	inv.Counts.Put("a", 1)
	node := serialize(t, inv, objgraph.WithMaxDepth(4))

	got, err := objgraph.RebuildAs[*Inventory](context.Background(), objgraph.NewResolver(objgraph.WithHeuristics()), node)
	if err != nil {
		t.Fatalf("RebuildAs() error = %v", err)
	}
	if got.Items.Len() != 2 {
		t.Errorf("Items.Len() = %d, want 2", got.Items.Len())
	}
	if v, ok := got.Counts.Get("a"); !ok || v != 1 {
		t.Errorf("Counts[a] = %d, %v", v, ok)
	}
}

func TestInventoryRebuildWithoutBuilders(t *testing.T) {
	inv := &Inventory{Items: objtest.NewBag(1)}
	node := serialize(t, inv)

	_, err := objgraph.RebuildAs[*Inventory](context.Background(), objgraph.NewResolver(), node)
	if err == nil {
		t.Fatal("RebuildAs() should fail without a builder or heuristics")
	}
}
