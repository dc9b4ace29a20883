package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zoobzio/objgraph"
	"github.com/zoobzio/objgraph/render"
)

// dumpOpts holds the command-line flags for the dump command.
type dumpOpts struct {
	graph    graphFlags
	output   string // output file; stdout when empty
	values   bool   // show primitive values in diagrams
	maxLabel int    // truncate diagram labels
	compress bool   // zstd-compress the output
}

func newDumpCmd() *cobra.Command {
	var opts dumpOpts

	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Serialize a document into a node tree",
		Long:  `Decode a JSON, YAML or TOML document (or "-" for JSON on stdin), walk it and write the node tree as json, yaml, msgpack, bson, xml, dot or svg.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.graph.resolve(cmd)
			if err != nil {
				return err
			}
			return runDump(cmd.Context(), args[0], cfg, &opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	opts.graph.register(cmd, true)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.values, "values", true, "show primitive values in dot/svg output")
	cmd.Flags().IntVar(&opts.maxLabel, "label-width", 40, "truncate dot/svg labels to this many characters (0 disables)")
	cmd.Flags().BoolVarP(&opts.compress, "compress", "z", false, "zstd-compress the output")

	return cmd
}

func runDump(ctx context.Context, path string, cfg config, opts *dumpOpts, stdin io.Reader, stdout io.Writer) error {
	logger := loggerFromContext(ctx)

	data, err := readInput(path, stdin)
	if err != nil {
		return err
	}
	doc, err := decodeDocument(path, data)
	if err != nil {
		return err
	}
	logger.Debug("decoded document", "path", path, "bytes", len(data))

	prog := newProgress(logger)
	node, err := objgraph.New(cfg.options()...).Serialize(ctx, doc)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Serialized %d nodes", node.Count()))

	out, err := encodeNode(ctx, node, cfg, render.Options{Values: opts.values, MaxLabel: opts.maxLabel})
	if err != nil {
		return err
	}
	if opts.compress {
		raw := len(out)
		if out, err = compress(out); err != nil {
			return err
		}
		logger.Debug("compressed output", "raw", raw, "bytes", len(out))
	}
	logger.Debug("writing output", "format", cfg.Format, "bytes", len(out))
	return writeOutput(opts.output, stdout, out)
}

func encodeNode(ctx context.Context, n *objgraph.Node, cfg config, ro render.Options) ([]byte, error) {
	switch cfg.Format {
	case formatDOT:
		return []byte(render.ToDOT(n, ro)), nil
	case formatSVG:
		return render.RenderSVG(ctx, render.ToDOT(n, ro))
	}
	c, err := codecFor(cfg.Format, cfg.Indent)
	if err != nil {
		return nil, err
	}
	return objgraph.Encode(c, n)
}
