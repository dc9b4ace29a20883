package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zoobzio/objgraph"
	jsoncodec "github.com/zoobzio/objgraph/json"
)

const serviceDoc = `{"name": "svc", "ports": [80, 443]}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDumpJSON(t *testing.T) {
	path := writeFile(t, "service.json", serviceDoc)

	out, err := execute(t, "dump", path)
	if err != nil {
		t.Fatalf("dump error = %v", err)
	}
	node, err := objgraph.Decode(jsoncodec.New(), []byte(out))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if node.Kind != objgraph.KindObject {
		t.Fatalf("root kind = %v, want object", node.Kind)
	}
	if len(node.Entries) != 2 {
		t.Fatalf("root entries = %d, want 2", len(node.Entries))
	}
	if got := node.Entries[0].Key.Text(); got != "name" {
		t.Errorf("first key = %q, want name", got)
	}
	if got := node.Entries[0].Value.Text(); got != "svc" {
		t.Errorf("name = %q, want svc", got)
	}
}

func TestDumpDepthTruncates(t *testing.T) {
	path := writeFile(t, "service.json", serviceDoc)

	out, err := execute(t, "dump", path, "--depth", "1")
	if err != nil {
		t.Fatalf("dump error = %v", err)
	}
	node, err := objgraph.Decode(jsoncodec.New(), []byte(out))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !node.Truncated || len(node.Entries) != 0 {
		t.Errorf("root = %+v, want truncated without entries", node)
	}
}

func TestDumpDOT(t *testing.T) {
	path := writeFile(t, "service.yaml", "name: svc\nports: [80, 443]\n")

	out, err := execute(t, "dump", path, "--format", "dot")
	if err != nil {
		t.Fatalf("dump error = %v", err)
	}
	if !strings.HasPrefix(out, "digraph G {") {
		t.Errorf("dot output = %q", out)
	}
	if !strings.Contains(out, "svc") {
		t.Error("dot output should show primitive values")
	}
}

func TestDumpUnknownFormat(t *testing.T) {
	path := writeFile(t, "service.json", serviceDoc)
	if _, err := execute(t, "dump", path, "--format", "csv"); err == nil {
		t.Error("dump should reject an unknown format")
	}
}

func TestDumpInvalidDocument(t *testing.T) {
	path := writeFile(t, "broken.json", "{")
	if _, err := execute(t, "dump", path); err == nil {
		t.Error("dump should fail on a broken document")
	}
}

func TestShape(t *testing.T) {
	path := writeFile(t, "service.toml", "name = \"svc\"\nports = [80, 443]\n")

	out, err := execute(t, "shape", path)
	if err != nil {
		t.Fatalf("shape error = %v", err)
	}
	if !strings.HasPrefix(out, "map[string]interface {}<string,") {
		t.Errorf("shape = %q", out)
	}
}

func TestDumpRebuildRoundTrip(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "service.json")
	if err := os.WriteFile(input, []byte(serviceDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	tree := filepath.Join(dir, "tree.yaml")

	if _, err := execute(t, "dump", input, "--format", "yaml", "--depth", "4", "-o", tree); err != nil {
		t.Fatalf("dump error = %v", err)
	}
	out, err := execute(t, "rebuild", tree)
	if err != nil {
		t.Fatalf("rebuild error = %v", err)
	}
	for _, want := range []string{"name: svc", "- 80", "- 443"} {
		if !strings.Contains(out, want) {
			t.Errorf("rebuild output %q missing %q", out, want)
		}
	}
}

func TestDumpRebuildCompressed(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "service.json")
	if err := os.WriteFile(input, []byte(serviceDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	tree := filepath.Join(dir, "tree.msgpack.zst")

	if _, err := execute(t, "dump", input, "-f", "msgpack", "-d", "4", "-z", "-o", tree); err != nil {
		t.Fatalf("dump error = %v", err)
	}
	raw, err := os.ReadFile(tree)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, zstdMagic) {
		t.Fatalf("output is not a zstd frame: % x", raw[:min(len(raw), 4)])
	}

	out, err := execute(t, "rebuild", tree)
	if err != nil {
		t.Fatalf("rebuild error = %v", err)
	}
	if !strings.Contains(out, "name: svc") {
		t.Errorf("rebuild output %q missing name", out)
	}
}

func TestDecodeDocument(t *testing.T) {
	tests := []struct {
		path string
		data string
	}{
		{"doc.json", `{"a": 1}`},
		{"doc.yaml", "a: 1\n"},
		{"doc.toml", "a = 1\n"},
		{"-", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			doc, err := decodeDocument(tt.path, []byte(tt.data))
			if err != nil {
				t.Fatalf("decodeDocument() error = %v", err)
			}
			m, ok := doc.(map[string]any)
			if !ok {
				t.Fatalf("decodeDocument() = %T, want map[string]any", doc)
			}
			if _, ok := m["a"]; !ok {
				t.Errorf("decoded document %v lacks key a", m)
			}
		})
	}
}
