package cli

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zoobzio/objgraph"
)

type rebuildOpts struct {
	format     string
	heuristics bool
	output     string
}

func newRebuildCmd() *cobra.Command {
	var opts rebuildOpts

	cmd := &cobra.Command{
		Use:   "rebuild [file]",
		Short: "Reconstruct a value from an encoded node tree",
		Long:  `Decode a node tree written by dump (optionally zstd-compressed) and print the reconstructed value as YAML. Sanitized and truncated parts come back as they were emitted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRebuild(cmd.Context(), args[0], &opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "input codec: json, yaml, msgpack, bson, xml (default from extension)")
	cmd.Flags().BoolVar(&opts.heuristics, "heuristics", false, "discover filling methods for unregistered containers")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func runRebuild(ctx context.Context, path string, opts *rebuildOpts, stdin io.Reader, stdout io.Writer) error {
	logger := loggerFromContext(ctx)

	format := opts.format
	if format == "" {
		format = formatFromPath(trimCompressed(path))
	}
	c, err := codecFor(format, "")
	if err != nil {
		return err
	}
	data, err := readInput(path, stdin)
	if err != nil {
		return err
	}
	if data, err = decompress(data); err != nil {
		return err
	}
	node, err := objgraph.Decode(c, data)
	if err != nil {
		return err
	}

	var ropts []objgraph.ResolverOption
	if opts.heuristics {
		ropts = append(ropts, objgraph.WithHeuristics())
	}
	prog := newProgress(logger)
	v, err := objgraph.NewResolver(ropts...).Rebuild(ctx, node, reflect.TypeFor[any]())
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rebuilt %d nodes", node.Count()))

	var out any
	if v.IsValid() {
		out = v.Interface()
	}
	text, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return writeOutput(opts.output, stdout, text)
}
