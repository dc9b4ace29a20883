package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/zoobzio/objgraph"
)

func newShapeCmd() *cobra.Command {
	var flags graphFlags

	cmd := &cobra.Command{
		Use:   "shape [file]",
		Short: "Print the shape of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			return runShape(cmd.Context(), args[0], cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	flags.register(cmd, false)
	return cmd
}

func runShape(ctx context.Context, path string, cfg config, stdin io.Reader, stdout io.Writer) error {
	data, err := readInput(path, stdin)
	if err != nil {
		return err
	}
	doc, err := decodeDocument(path, data)
	if err != nil {
		return err
	}
	sh, err := objgraph.New(cfg.options()...).BuildShape(doc)
	if err != nil {
		return err
	}
	loggerFromContext(ctx).Debug("built shape", "depth", sh.Depth())
	_, err = io.WriteString(stdout, sh.String()+"\n")
	return err
}
