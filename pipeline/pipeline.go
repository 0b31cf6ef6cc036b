package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"vispath/config"
	"vispath/export"
	"vispath/graph"
	"vispath/layout"
	"vispath/logger"
	"vispath/render"
	"vispath/table"
	"vispath/trace"
)

const (
	SANKEY_FILE      = "sankey_selected_paths.html"
	HEATMAP_FILE     = "heatmap_selected_paths.html"
	NETWORK_FILE     = "network_selected_paths.html"
	NETWORK_PNG_FILE = "network_selected_paths.png"
	EXCEL_FILE       = "selected_paths_connections.xlsx"
	TRACE_FILE       = "vispath.trace"
)

type Result struct {
	Connections []table.Connection
	Pathway     *graph.Pathway
	Files       []string
}

type Visualizer struct {
	cfg  *config.Config
	fs   afero.Fs
	log  logger.Logger
	open func(path string) error
}

func New(cfg *config.Config, fs afero.Fs, log logger.Logger) *Visualizer {
	return &Visualizer{cfg: cfg, fs: fs, log: log, open: OpenInBrowser}
}

// WithOpener replaces the function used for show_figure.
func (v *Visualizer) WithOpener(open func(path string) error) *Visualizer {
	v.open = open
	return v
}

func (v *Visualizer) Run(ctx context.Context) (res *Result, err error) {
	if v.log == nil {
		v.log = logger.FromContext(ctx)
	}
	cfg := v.cfg
	palette, err := render.NewPalette(cfg.SourceColor, cfg.IntermediateColor, cfg.TargetColor, cfg.LinkColor)
	if err != nil {
		return nil, err
	}
	if err := v.fs.MkdirAll(cfg.OutputFolder, 0o755); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	var rec *trace.Recorder
	if cfg.Trace {
		f, err := v.fs.Create(filepath.Join(cfg.OutputFolder, TRACE_FILE))
		if err != nil {
			return nil, fmt.Errorf("create trace file: %w", err)
		}
		rec = trace.NewRecorder(f)
		defer func() {
			if ferr := rec.Finish(); ferr != nil && err == nil {
				err = fmt.Errorf("finish trace: %w", ferr)
			}
		}()
	}

	res = &Result{}
	stages := []struct {
		name string
		run  func() error
	}{
		{"load", func() error { return v.load(res) }},
		{"graph", func() error { return v.build(res) }},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := rec.Stage(s.name, s.run); err != nil {
			return nil, err
		}
	}

	var pos layout.Positions
	err = rec.Stage("layout", func() error {
		pos = layout.Compute(res.Pathway, cfg.NetworkLayout, layout.Params(res.Pathway.NumNodes()))
		v.log.Debug("layout computed", "kind", cfg.NetworkLayout, "nodes", len(pos))
		return nil
	})
	if err != nil {
		return nil, err
	}

	opts := render.Options{
		Title:          "Selected paths",
		EdgeWidthScale: cfg.EdgeWidthScale,
		MinEdgeWidth:   cfg.MinEdgeWidth,
		MaxEdgeWidth:   cfg.MaxEdgeWidth,
	}
	outputs := []struct {
		name string
		file string
		skip bool
		show bool
		fn   func(io.Writer) error
	}{
		{"sankey", SANKEY_FILE, false, true, func(w io.Writer) error {
			return render.Sankey(w, res.Pathway, palette, opts)
		}},
		{"heatmap", HEATMAP_FILE, false, true, func(w io.Writer) error {
			return render.Heatmap(w, res.Pathway, palette, opts)
		}},
		{"network", NETWORK_FILE, false, true, func(w io.Writer) error {
			return render.Network(w, res.Pathway, pos, palette, cfg.NetworkLayout == layout.Spring, opts)
		}},
		{"png", NETWORK_PNG_FILE, !cfg.PNG, false, func(w io.Writer) error {
			return render.NetworkPNG(w, res.Pathway, pos, palette, opts)
		}},
		{"excel", EXCEL_FILE, false, false, func(w io.Writer) error {
			return export.WriteExcel(w, res.Connections, res.Pathway.Nodes())
		}},
	}
	for _, o := range outputs {
		if o.skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(cfg.OutputFolder, o.file)
		if err := rec.Stage(o.name, func() error { return v.write(path, o.fn) }); err != nil {
			return nil, fmt.Errorf("%s: %w", o.name, err)
		}
		v.log.Info("wrote output", "stage", o.name, "path", path)
		res.Files = append(res.Files, path)

		if cfg.ShowFigure && o.show {
			if err := v.open(path); err != nil {
				v.log.Warn("could not open figure", "path", path, "err", err)
			}
		}
	}
	return res, nil
}

func (v *Visualizer) load(res *Result) error {
	cfg := v.cfg
	if cfg.GenerateEmptyNetwork {
		v.log.Info("generating empty network", "ignored_path_file", cfg.PathFile)
		return nil
	}
	conns, err := table.Load(v.fs, cfg.PathFile, cfg.SheetName)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.PathFile, err)
	}
	v.log.Info("loaded connections", "path", cfg.PathFile, "sheet", cfg.SheetName, "connections", len(conns))
	res.Connections = conns
	return nil
}

func (v *Visualizer) build(res *Result) error {
	if v.cfg.GenerateEmptyNetwork {
		res.Pathway = graph.Empty()
		return nil
	}
	p, err := graph.Build(res.Connections)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	for _, loop := range p.SelfLoops() {
		v.log.Warn("self-loop left out of the graph", "node", loop.Pre, "weight", loop.Weight)
	}
	v.log.Info("built graph", "nodes", p.NumNodes(), "edges", p.NumEdges(), "layers", p.MaxLayer()+1)
	res.Pathway = p
	return nil
}

func (v *Visualizer) write(path string, fn func(io.Writer) error) error {
	f, err := v.fs.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
