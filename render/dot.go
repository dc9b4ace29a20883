package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/zoobzio/objgraph"
)

// Options configures diagram generation.
type Options struct {
	// Values shows primitive values next to their identity strings.
	Values bool

	// MaxLabel truncates labels longer than this many runes; 0 keeps them whole.
	MaxLabel int
}

type dotWriter struct {
	buf   bytes.Buffer
	opts  Options
	names map[string]string // identity string -> DOT node name
	next  int
}

// ToDOT converts a node tree to Graphviz DOT format.
func ToDOT(root *objgraph.Node, opts Options) string {
	w := &dotWriter{opts: opts, names: make(map[string]string)}
	w.buf.WriteString("digraph G {\n")
	w.buf.WriteString("  rankdir=LR;\n")
	w.buf.WriteString("  bgcolor=\"transparent\";\n")
	w.buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	w.buf.WriteString("  edge [fontsize=10];\n\n")

	// Objects are named up front so refs can point forward or backward.
	root.Walk(func(n *objgraph.Node) bool {
		if n.Kind == objgraph.KindObject && n.ID != "" {
			if _, ok := w.names[n.ID]; !ok {
				w.names[n.ID] = w.fresh()
			}
		}
		return true
	})
	w.node(root)
	w.buf.WriteString("}\n")
	return w.buf.String()
}

func (w *dotWriter) fresh() string {
	w.next++
	return "n" + strconv.Itoa(w.next)
}

// node writes n and its subtree, returning n's DOT name.
func (w *dotWriter) node(n *objgraph.Node) string {
	switch n.Kind {
	case objgraph.KindRef:
		return w.names[n.ID]
	case objgraph.KindObject:
		name := w.names[n.ID]
		if name == "" {
			name = w.fresh()
		}
		attrs := []string{fmt.Sprintf("label=%q", w.label(n.ID))}
		if n.Truncated {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
		}
		fmt.Fprintf(&w.buf, "  %s [%s];\n", name, strings.Join(attrs, ", "))
		for _, f := range n.Fields {
			w.edge(name, f.Node, f.Name)
		}
		for i, e := range n.Elements {
			w.edge(name, e, "["+strconv.Itoa(i)+"]")
		}
		for _, p := range n.Entries {
			w.edge(name, p.Value, w.label(p.Key.Text()))
		}
		return name
	case objgraph.KindPrimitive:
		name := w.fresh()
		label := n.ID
		if w.opts.Values {
			label = n.Text() + "\n" + n.ID
		}
		fmt.Fprintf(&w.buf, "  %s [label=%q, shape=plaintext, style=\"\"];\n", name, w.label(label))
		return name
	}
	name := w.fresh()
	fmt.Fprintf(&w.buf, "  %s [label=\"nil\", shape=plaintext, style=\"\", fontcolor=grey];\n", name)
	return name
}

func (w *dotWriter) edge(from string, to *objgraph.Node, label string) {
	target := w.node(to)
	if target == "" {
		return
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if to.Kind == objgraph.KindRef {
		attrs = append(attrs, "style=dashed", "constraint=false")
	}
	fmt.Fprintf(&w.buf, "  %s -> %s [%s];\n", from, target, strings.Join(attrs, ", "))
}

func (w *dotWriter) label(s string) string {
	if w.opts.MaxLabel <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= w.opts.MaxLabel {
		return s
	}
	return string(r[:w.opts.MaxLabel]) + "…"
}

// RenderSVG renders DOT source to SVG using an embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
