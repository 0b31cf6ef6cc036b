package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"vispath/color"
	"vispath/config"
	"vispath/logger"
	"vispath/pipeline"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vispath [path-file]",
		Short: "Render neural pathway tables as Sankey, network and Excel outputs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runVisualize,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(logger.ContextWithLogger(cmd.Context(), log))
			return nil
		},

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "YAML config file")
	pf.String("env-file", ".env", "dotenv file with VISPATH_* variables")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.Bool("log-json", false, "log as JSON")

	bindFlags(root.Flags(), config.Default())
	root.AddCommand(colorCmd())
	return root
}

// Execute runs the root command. A failure is logged through the logger
// the command line configured.
func Execute() error {
	return executeLogged(RootCmd())
}

func executeLogged(root *cobra.Command) error {
	cmd, err := root.ExecuteC()
	if err != nil {
		logger.FromContext(cmd.Context()).Error("vispath failed", "err", err)
	}
	return err
}

func bindFlags(fs *pflag.FlagSet, d *config.Config) {
	fs.String("path-file", d.PathFile, "connection table (.xlsx or .csv)")
	fs.String("sheet", d.SheetName, "sheet name or index; empty picks the first path* sheet")
	fs.String("output-folder", d.OutputFolder, "folder for generated files")
	fs.String("source-color", d.SourceColor, "color of source nodes")
	fs.String("intermediate-color", d.IntermediateColor, "color of intermediate nodes")
	fs.String("target-color", d.TargetColor, "color of target nodes")
	fs.String("link-color", d.LinkColor, "color of links, rgba() sets opacity")
	fs.String("layout", d.NetworkLayout, "network layout: hierarchical, spring, circular, distributed")
	fs.String("edge-width-scale", d.EdgeWidthScale, "edge width scale: linear, sqrt, log")
	fs.Float64("max-edge-width", d.MaxEdgeWidth, "widest edge in pixels")
	fs.Float64("min-edge-width", d.MinEdgeWidth, "thinnest edge in pixels")
	fs.Bool("show", d.ShowFigure, "open the HTML outputs in a browser")
	fs.Bool("empty", d.GenerateEmptyNetwork, "write an empty network and ignore the table")
	fs.Bool("png", d.PNG, "also write a PNG of the network")
	fs.Bool("trace", d.Trace, "write a stage trace file to the output folder")
}

// applyFlags copies only the flags set on the command line, so they win
// over file and environment values without clobbering them with defaults.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	strs := map[string]*string{
		"path-file":          &cfg.PathFile,
		"sheet":              &cfg.SheetName,
		"output-folder":      &cfg.OutputFolder,
		"source-color":       &cfg.SourceColor,
		"intermediate-color": &cfg.IntermediateColor,
		"target-color":       &cfg.TargetColor,
		"link-color":         &cfg.LinkColor,
		"layout":             &cfg.NetworkLayout,
		"edge-width-scale":   &cfg.EdgeWidthScale,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	floats := map[string]*float64{"max-edge-width": &cfg.MaxEdgeWidth, "min-edge-width": &cfg.MinEdgeWidth}
	for name, dst := range floats {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetFloat64(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	bools := map[string]*bool{
		"show":  &cfg.ShowFigure,
		"empty": &cfg.GenerateEmptyNetwork,
		"png":   &cfg.PNG,
		"trace": &cfg.Trace,
	}
	for name, dst := range bools {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

// LoadConfig resolves defaults, then the YAML file, then the environment,
// then command line flags.
func LoadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		if err := config.LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if err := config.LoadEnv(cfg, envFile); err != nil {
		return nil, err
	}

	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		cfg.PathFile = args[0]
	}
	return cfg, cfg.Validate()
}

func newLogger(cmd *cobra.Command) (logger.Logger, error) {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	asJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-json flag: %w", err)
	}
	cfg := logger.DefaultConfig()
	cfg.Level = level
	cfg.JSON = asJSON
	cfg.Output = cmd.ErrOrStderr()
	return logger.New(cfg), nil
}

func runVisualize(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(cmd, args)
	if err != nil {
		return err
	}

	res, err := pipeline.New(cfg, afero.NewOsFs(), nil).Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %d connections\n", len(res.Connections))
	fmt.Fprintf(out, "Network has %d nodes and %d edges\n", res.Pathway.NumNodes(), res.Pathway.NumEdges())
	fmt.Fprintln(out, "Output files:")
	for _, f := range res.Files {
		fmt.Fprintf(out, "  %s\n", f)
	}
	return nil
}

func colorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "color <spec>...",
		Short: "Print the normalized hex and opacity of color specs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, spec := range args {
				n, err := color.Normalize(spec)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%g\n", spec, n.Hex, n.Opacity)
			}
			return nil
		},
	}
}
