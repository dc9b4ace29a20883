package cli

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/zoobzio/objgraph"
)

// config is the optional TOML file passed with --config. Flags given on the
// command line take precedence over it.
type config struct {
	MaxDepth   int    `toml:"max_depth"`
	Format     string `toml:"format"`
	Shapes     bool   `toml:"shapes"`
	Unexported bool   `toml:"unexported"`
	Indent     string `toml:"indent"`
}

func defaultConfig() config {
	return config{MaxDepth: objgraph.DefaultMaxDepth, Format: formatJSON}
}

// loadConfig reads path over the defaults. An empty path yields the defaults.
// Unknown keys are rejected.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// graphFlags are the serializer flags shared by dump and shape.
type graphFlags struct {
	configPath string
	depth      int
	format     string
	shapes     bool
	unexported bool
}

func (f *graphFlags) register(cmd *cobra.Command, withFormat bool) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "TOML config file")
	cmd.Flags().IntVarP(&f.depth, "depth", "d", objgraph.DefaultMaxDepth, "maximum walk depth (root is 1)")
	cmd.Flags().BoolVar(&f.shapes, "shapes", false, "attach shapes to object nodes")
	cmd.Flags().BoolVar(&f.unexported, "unexported", false, "walk unexported struct fields")
	if withFormat {
		cmd.Flags().StringVarP(&f.format, "format", "f", formatJSON, "output format: "+strings.Join(formats, ", "))
	}
}

// resolve merges the config file with the flags that were set explicitly.
func (f *graphFlags) resolve(cmd *cobra.Command) (config, error) {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("depth") {
		cfg.MaxDepth = f.depth
	}
	if flags.Changed("format") {
		cfg.Format = f.format
	}
	if flags.Changed("shapes") {
		cfg.Shapes = f.shapes
	}
	if flags.Changed("unexported") {
		cfg.Unexported = f.unexported
	}
	if cfg.MaxDepth < 1 {
		return cfg, fmt.Errorf("depth must be at least 1, got %d", cfg.MaxDepth)
	}
	if err := validateFormat(cfg.Format); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c config) options() []objgraph.Option {
	opts := []objgraph.Option{objgraph.WithMaxDepth(c.MaxDepth)}
	if c.Shapes {
		opts = append(opts, objgraph.WithShapes())
	}
	if c.Unexported {
		opts = append(opts, objgraph.WithUnexported())
	}
	return opts
}
